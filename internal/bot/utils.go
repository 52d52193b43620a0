package bot

import (
	"regexp"
	"slices"
	"strings"
)

// BuildKeywordRegex compiles a case-insensitive pattern matching any of the
// keywords at the start of the text. Keywords are sorted longest first so a
// longer keyword wins over its prefix.
func BuildKeywordRegex(keywords []string) *regexp.Regexp {
	if len(keywords) == 0 {
		panic("BuildKeywordRegex: keywords cannot be empty")
	}

	sorted := make([]string, len(keywords))
	copy(sorted, keywords)

	slices.SortFunc(sorted, func(a, b string) int {
		return len(b) - len(a)
	})

	pattern := "(?i)^(" + strings.Join(sorted, "|") + ")(?:\\s|$)"
	return regexp.MustCompile(pattern)
}
