package workflow

import (
	"encoding/json"
	"fmt"
	"strings"
)

// decodeJSON parses a model response into T, tolerating markdown code
// fences and prose around the JSON object.
func decodeJSON[T any](raw string) (T, error) {
	var out T
	cleaned := sanitizeJSON(raw)
	if cleaned == "" {
		return out, fmt.Errorf("empty response")
	}
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return out, fmt.Errorf("parse JSON response: %w", err)
	}
	return out, nil
}

// sanitizeJSON strips code fences and trims to the outermost JSON value.
func sanitizeJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return ""
	}
	var end int
	if s[start] == '{' {
		end = strings.LastIndex(s, "}")
	} else {
		end = strings.LastIndex(s, "]")
	}
	if end <= start {
		return ""
	}
	return s[start : end+1]
}
