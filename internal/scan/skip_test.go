package scan

import "testing"

func TestSkipMatcher(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		path     string
		want     bool
	}{
		{"glob suffix", []string{"*/a/skip"}, "/data/a/skip", true},
		{"glob does not match sibling", []string{"*/a/skip"}, "/data/a/keep", false},
		{"glob does not match child by itself", []string{"*/a/skip"}, "/data/a/skip/inner", false},
		{"case insensitive", []string{"*/Thumbs"}, "/photos/THUMBS", true},
		{"windows prefix", []string{`C:\Windows`}, `C:\Windows\System32`, true},
		{"windows prefix exact", []string{`C:\Program Files`}, `c:\program files`, true},
		{"prefix is not substring", []string{`C:\Windows`}, `C:\WindowsApps`, false},
		{"unix prefix", []string{"/mnt/photos/cache"}, "/mnt/photos/cache/2020", true},
		{"question mark", []string{"*/backup?"}, "/x/backup1", true},
		{"character class", []string{"*/[ab]tmp"}, "/x/btmp", true},
		{"negated class", []string{"*/[!ab]tmp"}, "/x/btmp", false},
		{"trailing separator", []string{"/mnt/cache/"}, "/mnt/cache", true},
		{"unicode normalized", []string{"*/caf\u00e9"}, "/x/cafe\u0301", true},
		{"blank ignored", []string{"  "}, "/anything", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewSkipMatcher(tt.patterns)
			if err != nil {
				t.Fatalf("NewSkipMatcher: %v", err)
			}
			if _, got := m.Match(tt.path); got != tt.want {
				t.Fatalf("Match(%q) with %v = %v, want %v", tt.path, tt.patterns, got, tt.want)
			}
		})
	}
}

func TestSkipMatcherRejectsBadPattern(t *testing.T) {
	if _, err := NewSkipMatcher([]string{"*/[abc"}); err == nil {
		t.Fatal("expected unterminated class to fail")
	}
}

func TestNilSkipMatcher(t *testing.T) {
	var m *SkipMatcher
	if _, ok := m.Match("/x"); ok {
		t.Fatal("nil matcher must not match")
	}
	if m.Len() != 0 {
		t.Fatal("nil matcher must be empty")
	}
}

func TestSkipMatcherAddFoldersIsLiteral(t *testing.T) {
	m, err := NewSkipMatcher(nil)
	if err != nil {
		t.Fatal(err)
	}
	m.AddFolders("/photos/album [2019]", "/photos/[draft", " ")
	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", m.Len())
	}
	tests := []struct {
		path string
		want bool
	}{
		{"/photos/album [2019]", true},
		{"/Photos/Album [2019]/raw", true},
		{"/photos/[draft", true},
		{"/photos/album 2", false},
		{"/photos/[drafts", false},
	}
	for _, tt := range tests {
		if _, got := m.Match(tt.path); got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
