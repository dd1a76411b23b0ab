package utils

import (
	"regexp"
	"strings"
)

var tagStrip = regexp.MustCompile(`[^0-9a-zA-Z가-힣.\-_ ]`)

// NormalizeTag turns a user-supplied tag into its canonical stored form:
// trimmed, URL-unsafe characters removed and spaces collapsed to dashes.
// Two inputs that normalize to the same string share one tag row.
func NormalizeTag(name string) string {
	s := strings.TrimSpace(name)
	s = tagStrip.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), "-")
	return s
}
