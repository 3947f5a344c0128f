package bookmark

import "strings"

// NormalizeURL prefixes https:// to URLs that carry neither an http:// nor an
// https:// scheme. The same rule is used for probing and for matching verdicts
// back onto the tree.
func NormalizeURL(raw string) string {
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return raw
	}
	return "https://" + raw
}

// ValidSet holds the URLs that passed validation.
type ValidSet map[string]struct{}

// Add marks url as valid.
func (s ValidSet) Add(url string) { s[url] = struct{}{} }

// Contains reports whether raw, or its normalized form, is valid.
func (s ValidSet) Contains(raw string) bool {
	if _, ok := s[raw]; ok {
		return true
	}
	_, ok := s[NormalizeURL(raw)]
	return ok
}
