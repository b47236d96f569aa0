// Package parsing recovers structured data from loosely formatted model
// responses: JSON objects wrapped in code fences or prose, and
// line-oriented KEY: value summaries.
package parsing

import "strings"

// ExtractJSONObject returns the best JSON-object candidate inside raw.
// It strips surrounding whitespace and optional ```json fences, and when
// the remainder is not a bare object it falls back to the span between
// the first '{' and the last '}'. The caller still has to unmarshal the
// result; malformed input comes back unchanged.
func ExtractJSONObject(raw string) string {
	cleaned := stripCodeFences(strings.TrimSpace(raw))

	if strings.HasPrefix(cleaned, "{") && strings.HasSuffix(cleaned, "}") {
		return cleaned
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		return cleaned[start : end+1]
	}
	return cleaned
}

func stripCodeFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 && strings.EqualFold(strings.TrimSpace(s[:idx]), "json") {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
