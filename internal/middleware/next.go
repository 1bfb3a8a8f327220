package middleware

import (
	"net/url"
	"strings"
)

// SafeNext returns next if it is a local absolute path, or "" otherwise.
// Scheme-relative ("//host"), backslash and absolute URLs are rejected so a
// login form cannot be turned into an open redirect.
func SafeNext(next string) string {
	if next == "" || len(next) > 2048 {
		return ""
	}
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	if strings.ContainsAny(next, "\\\r\n\t") {
		return ""
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	return next
}
