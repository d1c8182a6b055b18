package game

import "wiki-race/internal/wiki"

// CompareTitles reports whether two page identifiers name the same page.
// Both sides are percent-decoded and underscores become spaces; the result
// is compared case-sensitively.
func CompareTitles(a, b string) bool {
	return wiki.NormalizeTitle(a) == wiki.NormalizeTitle(b)
}
