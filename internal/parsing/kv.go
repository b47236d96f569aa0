package parsing

import (
	"strconv"
	"strings"
)

// KVFields holds the recognized KEY: value lines of one model response.
// Keys are stored upper-cased; the first occurrence of a key wins and
// unrecognized lines are ignored.
type KVFields map[string]string

// ParseKVLines scans text line by line and collects values for the
// recognized keys. Recognition is case-insensitive; a line matches when
// its prefix up to the first colon equals a recognized key after
// trimming.
func ParseKVLines(text string, recognized []string) KVFields {
	keys := make(map[string]struct{}, len(recognized))
	for _, k := range recognized {
		keys[strings.ToUpper(strings.TrimSpace(k))] = struct{}{}
	}

	fields := make(KVFields)
	for _, line := range strings.Split(text, "\n") {
		idx := strings.Index(line, ":")
		if idx <= 0 {
			continue
		}
		key := strings.ToUpper(strings.TrimSpace(line[:idx]))
		if _, ok := keys[key]; !ok {
			continue
		}
		if _, seen := fields[key]; seen {
			continue
		}
		fields[key] = strings.TrimSpace(line[idx+1:])
	}
	return fields
}

func (f KVFields) Str(key, fallback string) string {
	v, ok := f[strings.ToUpper(key)]
	if !ok || v == "" {
		return fallback
	}
	return v
}

// Float parses a numeric value; malformed input is swallowed and the
// fallback returned.
func (f KVFields) Float(key string, fallback float64) float64 {
	v, ok := f[strings.ToUpper(key)]
	if !ok {
		return fallback
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(strings.Trim(v, "$%")), 64)
	if err != nil {
		return fallback
	}
	return n
}

// Bool recognizes yes/no style answers; anything else yields fallback.
func (f KVFields) Bool(key string, fallback bool) bool {
	v, ok := f[strings.ToUpper(key)]
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "true", "y", "1":
		return true
	case "no", "false", "n", "0":
		return false
	default:
		return fallback
	}
}

// List splits a value on semicolons, dropping empty entries.
func (f KVFields) List(key string) []string {
	v, ok := f[strings.ToUpper(key)]
	if !ok {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ";") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
