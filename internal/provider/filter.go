package provider

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// GlobFilterPrefix marks a title filter as a glob pattern matched against the whole title.
// Filters without it are literal title prefixes.
const GlobFilterPrefix = "glob:"

// titleMatcher accepts or rejects a collection by its title
type titleMatcher func(title string) bool

// compileTitleFilters turns the configured filters into matchers. Plain filters match
// titles starting with them, metacharacters included. Filters marked with
// GlobFilterPrefix are compiled as glob patterns.
func compileTitleFilters(filters []string) ([]titleMatcher, error) {
	matchers := make([]titleMatcher, 0, len(filters))
	for _, filter := range filters {
		pattern, isGlob := strings.CutPrefix(filter, GlobFilterPrefix)
		if !isGlob {
			pattern = glob.QuoteMeta(filter) + "*"
		}

		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid title filter '%s': %w", filter, err)
		}
		matchers = append(matchers, g.Match)
	}
	return matchers, nil
}

// acceptTitle reports whether any matcher accepts title. No matchers accept every title.
func acceptTitle(matchers []titleMatcher, title string) bool {
	if len(matchers) == 0 {
		return true
	}
	for _, match := range matchers {
		if match(title) {
			return true
		}
	}
	return false
}
