package scan

import (
	"fmt"
	"regexp"
	"strings"

	"mediadupe/internal/media"
)

// SkipMatcher decides whether a directory subtree is pruned.
//
// Patterns are glob-style and matched case-insensitively against the full
// path, with backslashes treated as separators: "*" matches any run of
// characters including separators, "?" one character, and "[...]" a class.
// A pattern without glob metacharacters also matches everything beneath it,
// so "C:\Windows" prunes "C:\Windows\System32". Folders added with
// AddFolders are always literal, whatever characters their names contain.
type SkipMatcher struct {
	patterns []skipPattern
}

type skipPattern struct {
	raw    string
	re     *regexp.Regexp
	prefix string
}

// NewSkipMatcher compiles patterns. Blank patterns are ignored.
func NewSkipMatcher(patterns []string) (*SkipMatcher, error) {
	m := &SkipMatcher{}
	for _, raw := range patterns {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		normalized := media.FoldPath(trimmed)
		p := skipPattern{raw: trimmed}
		if strings.ContainsAny(normalized, "*?[") {
			re, err := globToRegexp(normalized)
			if err != nil {
				return nil, fmt.Errorf("skip pattern %q: %w", trimmed, err)
			}
			p.re = re
		} else {
			p.prefix = normalized
		}
		m.patterns = append(m.patterns, p)
	}
	return m, nil
}

// AddFolders prunes each folder and everything beneath it. Names are taken
// literally, so "album [2019]" matches only that folder.
func (m *SkipMatcher) AddFolders(folders ...string) {
	for _, folder := range folders {
		trimmed := strings.TrimSpace(folder)
		if trimmed == "" {
			continue
		}
		m.patterns = append(m.patterns, skipPattern{raw: trimmed, prefix: trimmed})
	}
}

// Match reports whether dir is pruned, returning the matching pattern.
func (m *SkipMatcher) Match(dir string) (string, bool) {
	if m == nil || len(m.patterns) == 0 {
		return "", false
	}
	target := media.FoldPath(dir)
	for _, p := range m.patterns {
		if p.re != nil {
			if p.re.MatchString(target) {
				return p.raw, true
			}
			continue
		}
		if media.WithinFolder(dir, p.prefix) {
			return p.raw, true
		}
	}
	return "", false
}

// Len returns the number of compiled patterns.
func (m *SkipMatcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.patterns)
}

func globToRegexp(glob string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(glob); i++ {
		switch c := glob[i]; c {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		case '[':
			end := strings.IndexByte(glob[i+1:], ']')
			if end < 0 {
				return nil, fmt.Errorf("unterminated character class")
			}
			class := glob[i+1 : i+1+end]
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			b.WriteString("[" + class + "]")
			i += end + 1
		default:
			b.WriteString(regexp.QuoteMeta(glob[i : i+1]))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}
