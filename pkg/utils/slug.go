package utils

import (
	"regexp"
	"strings"
)

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9\s-]+`)
	slugSpaces  = regexp.MustCompile(`[\s-]+`)
)

// GenerateSlug creates a URL-friendly slug from an English title.
// Arabic-only titles produce an empty slug; callers fall back to the ID.
func GenerateSlug(input string) string {
	slug := strings.ToLower(strings.TrimSpace(input))
	slug = slugInvalid.ReplaceAllString(slug, "")
	slug = slugSpaces.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
