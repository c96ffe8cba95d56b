package main

import (
	"slices"
	"testing"
)

func TestMergeSkipSetsKeepsFoldersLiteral(t *testing.T) {
	patterns, folders := mergeSkipSets(
		[]string{`C:\Windows`, "*/cache"},
		[]string{"*/cache", " ", "*/tmp"},
		[]string{"/media/album [2019]", "/media/[draft"},
		false,
	)
	if want := []string{`C:\Windows`, "*/cache", "*/tmp"}; !slices.Equal(patterns, want) {
		t.Fatalf("patterns = %v, want %v", patterns, want)
	}
	if want := []string{"/media/album [2019]", "/media/[draft"}; !slices.Equal(folders, want) {
		t.Fatalf("folders = %v, want %v", folders, want)
	}
}

func TestMergeSkipSetsAddsSystemTreesForDrives(t *testing.T) {
	_, folders := mergeSkipSets(nil, nil, []string{"/media/usb/old"}, true)
	for _, want := range []string{"/media/usb/old", "/proc", "/sys", "/dev"} {
		if !slices.Contains(folders, want) {
			t.Fatalf("expected %s in %v", want, folders)
		}
	}
	if _, folders := mergeSkipSets(nil, nil, nil, false); len(folders) != 0 {
		t.Fatalf("folder mode should not prune system trees, got %v", folders)
	}
}
