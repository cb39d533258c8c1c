package leads

import (
	"regexp"
	"strings"
)

var (
	markdownLinkRe = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	angleBracketRe = regexp.MustCompile(`<([^>]+)>`)
)

// NormalizeCell collapses the placeholder markers the backend uses for
// missing values into the empty string. Anything else passes through
// untouched; trimming is the parser's job.
func NormalizeCell(text string) string {
	switch text {
	case "", "N/A", "n/a", "-":
		return ""
	}
	return text
}

// NormalizeURL cleans a URL-bearing cell. Markdown links yield their
// target, angle-bracket wrapped URIs their inner text. Bare domains and
// already-clean strings pass through as-is, best effort.
func NormalizeURL(text string) string {
	cleaned := NormalizeCell(text)
	if cleaned == "" {
		return ""
	}

	if m := markdownLinkRe.FindStringSubmatch(cleaned); m != nil {
		return m[2]
	}
	if m := angleBracketRe.FindStringSubmatch(cleaned); m != nil {
		return m[1]
	}
	if strings.HasPrefix(cleaned, "http") || strings.HasPrefix(cleaned, "www") {
		return cleaned
	}
	return cleaned
}
