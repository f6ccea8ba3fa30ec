// Package llm defines the text-completion capability the workflow consumes.
// Concrete providers live under contrib/provider.
package llm

import "context"

// Completer produces a completion for a prompt. Implementations must be
// stateless per call: no hidden session is carried between invocations.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Complete implements Completer.
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
