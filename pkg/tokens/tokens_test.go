package tokens

import (
	"strings"
	"testing"
)

func TestCountEmpty(t *testing.T) {
	c := NewCounter()
	if got := c.Count(""); got != 0 {
		t.Fatalf("Count(\"\") = %d, want 0", got)
	}
}

func TestCountGrowsWithText(t *testing.T) {
	c := NewCounter()

	short := c.Count("sinh viên")
	long := c.Count(strings.Repeat("sinh viên đăng ký học phần ", 50))

	if short < 1 {
		t.Fatalf("expected at least 1 token, got %d", short)
	}
	if long <= short {
		t.Fatalf("expected longer text to count more tokens: %d vs %d", long, short)
	}
}

func TestTruncateWithinBudgetUnchanged(t *testing.T) {
	c := NewCounter()
	text := "điều kiện tốt nghiệp"

	if got := c.Truncate(text, 1000); got != text {
		t.Fatalf("expected unchanged text, got %q", got)
	}
}

func TestTruncateShortensOverBudget(t *testing.T) {
	c := NewCounter()
	text := strings.Repeat("quy chế đào tạo tín chỉ ", 200)

	got := c.Truncate(text, 10)

	if len(got) >= len(text) {
		t.Fatalf("expected truncation, got %d bytes from %d", len(got), len(text))
	}
	if c.Count(got) > 10 {
		t.Fatalf("truncated text still counts %d tokens", c.Count(got))
	}
	if !strings.HasPrefix(text, got) {
		t.Fatal("expected a prefix of the input")
	}
}
