package tools

import (
	"fmt"
	"strconv"
	"strings"
)

// Args is the raw argument bag of a tool call. The typed accessors below
// centralize the missing-required-field check instead of per-tool ad hoc
// type assertions.
type Args map[string]any

// String returns the named argument as a string when present and non-empty
func (a Args) String(name string) (string, bool) {
	v, ok := a[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return strings.TrimSpace(s), true
}

// RequiredString returns the named argument or an error naming the
// missing parameter
func (a Args) RequiredString(name string) (string, error) {
	s, ok := a.String(name)
	if !ok {
		return "", fmt.Errorf("missing required parameter: %s", name)
	}
	return s, nil
}

// Int returns the named argument as an int. JSON decoding hands numbers
// over as float64; string digits are also accepted.
func (a Args) Int(name string) (int, bool) {
	v, ok := a[name]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

// Bool returns the named argument as a bool. String spellings of true
// and false are accepted.
func (a Args) Bool(name string) (bool, bool) {
	v, ok := a[name]
	if !ok {
		return false, false
	}
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return false, false
		}
		return parsed, true
	}
	return false, false
}

// StringList returns the named argument as a list of strings. Accepts a
// JSON array of strings or a single comma-separated string. A present but
// malformed value returns an error so the caller can report it.
func (a Args) StringList(name string) ([]string, error) {
	v, ok := a[name]
	if !ok {
		return nil, nil
	}

	switch list := v.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("parameter %s must be a list of strings", name)
			}
			out = append(out, strings.TrimSpace(s))
		}
		return out, nil
	case string:
		if strings.TrimSpace(list) == "" {
			return nil, nil
		}
		parts := strings.Split(list, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("parameter %s must be a list of strings", name)
}
