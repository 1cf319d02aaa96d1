package deploy

import (
	"regexp"
	"strings"
)

const maxSubdomainLen = 40

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases input, collapses non alphanumerics to '-', trims dashes
// and truncates to 40 characters.
func Slugify(input string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(input)), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > maxSubdomainLen {
		slug = slug[:maxSubdomainLen]
	}
	return slug
}
