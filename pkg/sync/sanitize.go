package sync

import "regexp"

var (
	ipPattern     = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)
	domainPattern = regexp.MustCompile(`\b(?:[a-zA-Z0-9-]+\.)+[a-zA-Z]{2,}\b`)
)

// Sanitize masks IP-address-shaped and domain-name-shaped substrings before
// text is sent to a calendar, which may be visible to a wider audience than
// the platform itself.
func Sanitize(text string) string {
	sanitized := ipPattern.ReplaceAllString(text, "*.*.*.*")
	return domainPattern.ReplaceAllString(sanitized, "[domain]")
}
