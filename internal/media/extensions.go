package media

import "mediadupe/internal/config"

// ExtensionSet matches file names against configured media extensions,
// case-insensitively.
type ExtensionSet map[string]struct{}

// NewExtensionSet normalizes values ("JPG", ".jpg") into a set. An empty list
// falls back to the default media extensions.
func NewExtensionSet(values []string) ExtensionSet {
	exts := config.NormalizeExtensions(values)
	if len(exts) == 0 {
		exts = config.DefaultMediaExtensions
	}
	set := make(ExtensionSet, len(exts))
	for _, ext := range exts {
		set[ext] = struct{}{}
	}
	return set
}

// Match reports whether name carries one of the extensions.
func (s ExtensionSet) Match(name string) bool {
	_, ok := s[Ext(name)]
	return ok
}
