package media

import (
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// FoldPath returns the comparison form of a path: backslashes become
// slashes, Unicode is NFC-normalized, letters are lower-cased and a trailing
// separator is dropped. Skip patterns and ignored folders both compare in
// this form.
func FoldPath(value string) string {
	value = strings.ReplaceAll(value, `\`, "/")
	value = norm.NFC.String(value)
	value = strings.ToLower(value)
	if len(value) > 1 && strings.HasSuffix(value, "/") {
		if cleaned := path.Clean(value); cleaned != "." {
			value = cleaned
		}
	}
	return value
}

// WithinFolder reports whether dir is folder or lies beneath it. Both are
// compared literally in FoldPath form; glob characters have no meaning.
func WithinFolder(dir, folder string) bool {
	d, f := FoldPath(dir), FoldPath(folder)
	if f == "" {
		return false
	}
	return d == f || strings.HasPrefix(d, strings.TrimSuffix(f, "/")+"/")
}
