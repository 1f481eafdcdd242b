package cache

import "strings"

// matchPattern reports whether s matches a glob where '*' matches any run of
// characters. A pattern without '*' must match exactly.
func matchPattern(s, pattern string) bool {
	if pattern == "*" {
		return true
	}
	if !strings.Contains(pattern, "*") {
		return s == pattern
	}

	parts := strings.Split(pattern, "*")

	prefix := parts[0]
	if !strings.HasPrefix(s, prefix) {
		return false
	}
	s = s[len(prefix):]

	suffix := parts[len(parts)-1]
	middle := parts[1 : len(parts)-1]

	for _, part := range middle {
		if part == "" {
			continue
		}
		idx := strings.Index(s, part)
		if idx < 0 {
			return false
		}
		s = s[idx+len(part):]
	}

	return len(s) >= len(suffix) && strings.HasSuffix(s, suffix)
}
