package survey

import "strings"

// Answers holds raw selections keyed by field name.
type Answers map[string][]string

// Clone returns a deep copy.
func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// First returns the first non-blank value for name.
func (a Answers) First(name string) string {
	for _, v := range a[name] {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// List returns trimmed, deduplicated values in first-seen order.
func (a Answers) List(name string) []string {
	values := a[name]
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		s := strings.TrimSpace(v)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Has reports whether value is among the selections for name.
func (a Answers) Has(name, value string) bool {
	for _, v := range a[name] {
		if strings.TrimSpace(v) == value {
			return true
		}
	}
	return false
}
