package wiki

import (
	"net/url"
	"strings"
)

// NormalizeTitle maps the spellings a title takes in URLs and API responses
// to one form: percent-escapes are decoded (the raw string is kept when it
// is not valid escaping) and underscores become spaces. Case is preserved.
func NormalizeTitle(title string) string {
	if decoded, err := url.PathUnescape(title); err == nil {
		title = decoded
	}
	return strings.ReplaceAll(title, "_", " ")
}
