package webclient

import (
	"regexp"
	"strings"
)

var (
	repeatedSlashes = regexp.MustCompile(`//+`)
	trailingSlashes = regexp.MustCompile(`/+$`)
)

// normalizeURLPath collapses repeated slashes and drops trailing ones.
func normalizeURLPath(u string, keepTrailing bool) string {
	u = repeatedSlashes.ReplaceAllString(u, "/")
	if keepTrailing {
		return trailingSlashes.ReplaceAllString(u, "/")
	}
	return trailingSlashes.ReplaceAllString(u, "")
}

// relativeRoot climbs back to the page root from originalURL: each slash
// past the first adds one "../".
//
//	/         => .
//	/foo      => .
//	/foo/     => ./..
//	/foo/bar/ => ./../..
func relativeRoot(originalURL string) string {
	p, _, _ := strings.Cut(originalURL, "?")
	depth := strings.Count(p, "/")
	up := ""
	if depth > 1 {
		up = strings.Repeat("../", depth-1)
	}
	return normalizeURLPath("./"+up, false)
}

// relativePath points at the last segment of originalURL.
//
//	/foo     => ./foo
//	/foo/    => .
//	/foo/bar => ./bar
func relativePath(originalURL string) string {
	p, _, _ := strings.Cut(originalURL, "?")
	parts := strings.Split(p, "/")
	return normalizeURLPath("./"+parts[len(parts)-1], false)
}
