package fingerprint

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cespare/xxhash/v2"

	"mediadupe/internal/throttle"
)

func fastHasher(sampling Sampling, chunk int64) *Hasher {
	return New(throttle.New(throttle.Policy{MaxHandles: 2, ChunkSize: chunk}), sampling)
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestSamplingOffsets(t *testing.T) {
	s := Sampling{Window: 10, Windows: 3}
	tests := []struct {
		size int64
		want []int64
	}{
		{0, []int64{0}},
		{30, []int64{0}},
		{31, []int64{0, 10, 21}},
		{110, []int64{0, 50, 100}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.size), func(t *testing.T) {
			got := s.Offsets(tt.size)
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Fatalf("Offsets(%d) = %v, want %v", tt.size, got, tt.want)
			}
		})
	}
	if got := (Sampling{Window: 10, Windows: 1}).Offsets(100); fmt.Sprint(got) != "[0]" {
		t.Fatalf("single window offsets = %v", got)
	}
}

func TestQuickHashSamplesFirstMiddleLast(t *testing.T) {
	dir := t.TempDir()
	data := bytes.Repeat([]byte("abcdefghij"), 11) // 110 bytes
	path := writeFile(t, dir, "a.jpg", data)

	h := fastHasher(Sampling{Window: 10, Windows: 3}, 16)
	got, err := h.QuickHash(context.Background(), path, int64(len(data)))
	if err != nil {
		t.Fatalf("QuickHash: %v", err)
	}
	var sample []byte
	sample = append(sample, data[0:10]...)
	sample = append(sample, data[50:60]...)
	sample = append(sample, data[100:110]...)
	want := fmt.Sprintf("%016x", xxhash.Sum64(sample))
	if got != want {
		t.Fatalf("QuickHash = %s, want %s", got, want)
	}
}

func TestQuickHashIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "clip.mp4", bytes.Repeat([]byte{1, 2, 3, 4, 5}, 1000))
	h := fastHasher(Sampling{Window: 64, Windows: 3}, 128)

	first, err := h.QuickHash(context.Background(), path, 5000)
	if err != nil {
		t.Fatalf("first hash: %v", err)
	}
	second, err := h.QuickHash(context.Background(), path, 5000)
	if err != nil {
		t.Fatalf("second hash: %v", err)
	}
	if first != second {
		t.Fatalf("quick hash not deterministic: %s vs %s", first, second)
	}
}

func TestQuickHashIgnoresUnsampledBytes(t *testing.T) {
	dir := t.TempDir()
	a := bytes.Repeat([]byte{'x'}, 100)
	b := append([]byte(nil), a...)
	b[25] = 'y'
	pathA := writeFile(t, dir, "a.png", a)
	pathB := writeFile(t, dir, "b.png", b)

	h := fastHasher(Sampling{Window: 10, Windows: 3}, 16)
	hashA, err := h.QuickHash(context.Background(), pathA, 100)
	if err != nil {
		t.Fatalf("hash a: %v", err)
	}
	hashB, err := h.QuickHash(context.Background(), pathB, 100)
	if err != nil {
		t.Fatalf("hash b: %v", err)
	}
	if hashA != hashB {
		t.Fatal("expected a difference outside the windows to go unnoticed")
	}

	fullA, _ := h.FullHash(context.Background(), pathA)
	fullB, _ := h.FullHash(context.Background(), pathB)
	if fullA == fullB {
		t.Fatal("expected full hash to tell the files apart")
	}
}

func TestQuickHashEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "empty.gif", nil)
	h := fastHasher(DefaultSampling(), 16)

	got, err := h.QuickHash(context.Background(), path, 0)
	if err != nil {
		t.Fatalf("QuickHash: %v", err)
	}
	if want := fmt.Sprintf("%016x", xxhash.Sum64(nil)); got != want {
		t.Fatalf("empty quick hash = %s, want %s", got, want)
	}
	full, err := h.FullHash(context.Background(), path)
	if err != nil {
		t.Fatalf("FullHash: %v", err)
	}
	sum := sha256.Sum256(nil)
	if full != hex.EncodeToString(sum[:]) {
		t.Fatalf("empty full hash = %s", full)
	}
}

func TestFullHashMatchesSHA256(t *testing.T) {
	dir := t.TempDir()
	data := []byte(strings.Repeat("media payload ", 300))
	path := writeFile(t, dir, "movie.mkv", data)
	h := fastHasher(DefaultSampling(), 7)

	got, err := h.FullHash(context.Background(), path)
	if err != nil {
		t.Fatalf("FullHash: %v", err)
	}
	sum := sha256.Sum256(data)
	if got != hex.EncodeToString(sum[:]) {
		t.Fatalf("FullHash = %s", got)
	}
}

func TestMissingFileIsFileAccessError(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone.jpg")
	h := fastHasher(DefaultSampling(), 16)

	checks := map[string]func() error{
		"size": func() error { _, err := h.SizeOf(context.Background(), missing); return err },
		"quick": func() error {
			_, err := h.QuickHash(context.Background(), missing, 10)
			return err
		},
		"full": func() error { _, err := h.FullHash(context.Background(), missing); return err },
	}
	for name, check := range checks {
		t.Run(name, func(t *testing.T) {
			err := check()
			if !errors.Is(err, ErrFileAccess) {
				t.Fatalf("expected ErrFileAccess, got %v", err)
			}
			var accessErr *FileAccessError
			if !errors.As(err, &accessErr) || accessErr.Path != missing {
				t.Fatalf("expected FileAccessError for %s, got %#v", missing, err)
			}
			if !errors.Is(err, os.ErrNotExist) {
				t.Fatalf("expected cause to unwrap to ErrNotExist, got %v", err)
			}
		})
	}
}

func TestQuickHashTruncatedFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "short.jpg", []byte("12345"))
	h := fastHasher(Sampling{Window: 4, Windows: 3}, 16)
	_, err := h.QuickHash(context.Background(), path, 50)
	if !errors.Is(err, ErrFileAccess) {
		t.Fatalf("expected ErrFileAccess for shrunken file, got %v", err)
	}
}

func TestHashingHonoursCancellation(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "big.mov", bytes.Repeat([]byte{9}, 4096))
	h := fastHasher(Sampling{Window: 16, Windows: 3}, 8)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := h.FullHash(ctx, path); !errors.Is(err, ErrCancelled) {
		t.Fatalf("FullHash err = %v, want ErrCancelled", err)
	}
	if _, err := h.QuickHash(ctx, path, 4096); !errors.Is(err, ErrCancelled) {
		t.Fatalf("QuickHash err = %v, want ErrCancelled", err)
	}
}

func TestSizeOf(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.heic", []byte("0123456789"))
	h := fastHasher(DefaultSampling(), 16)
	size, err := h.SizeOf(context.Background(), path)
	if err != nil {
		t.Fatalf("SizeOf: %v", err)
	}
	if size != 10 {
		t.Fatalf("size = %d, want 10", size)
	}
	if _, err := h.SizeOf(context.Background(), dir); !errors.Is(err, ErrFileAccess) {
		t.Fatalf("expected directory to be rejected, got %v", err)
	}
}

func TestCoverageAndCollisionNote(t *testing.T) {
	s := Sampling{Window: 1 << 20, Windows: 3}
	if got := s.Coverage(1 << 20); got != 1 {
		t.Fatalf("small file coverage = %v", got)
	}
	if got := s.Coverage(0); got != 1 {
		t.Fatalf("empty coverage = %v", got)
	}
	if got := s.Coverage(30 << 20); got != 0.1 {
		t.Fatalf("coverage = %v, want 0.1", got)
	}
	note := s.CollisionNote(30 << 20)
	for _, want := range []string{"3 windows", "1.0 MiB", "10.00%", "30 MiB"} {
		if !strings.Contains(note, want) {
			t.Fatalf("note %q missing %q", note, want)
		}
	}
	if note := s.CollisionNote(10); !strings.Contains(note, "whole file") {
		t.Fatalf("unexpected note %q", note)
	}
}

func TestQuickHashReadsWindowsInChunks(t *testing.T) {
	dir := t.TempDir()
	data := make([]byte, 64<<10)
	for i := range data {
		data[i] = byte(i * 7)
	}
	path := writeFile(t, dir, "clip.mp4", data)
	sampling := Sampling{Window: 64 << 10, Windows: 1}

	whole, err := fastHasher(sampling, 1<<20).QuickHash(context.Background(), path, int64(len(data)))
	if err != nil {
		t.Fatalf("QuickHash with large chunks: %v", err)
	}

	// 4 KiB chunks give 16 pieces and 15 inter-chunk delays.
	slow := New(throttle.New(throttle.Policy{MaxHandles: 1, ChunkSize: 4 << 10, ChunkDelay: 4 * time.Millisecond}), sampling)
	start := time.Now()
	chunked, err := slow.QuickHash(context.Background(), path, int64(len(data)))
	if err != nil {
		t.Fatalf("QuickHash with small chunks: %v", err)
	}
	if chunked != whole {
		t.Fatalf("chunked digest %s differs from %s", chunked, whole)
	}
	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Fatalf("expected inter-chunk delays within a window, took %v", elapsed)
	}

	stalled := New(throttle.New(throttle.Policy{MaxHandles: 1, ChunkSize: 4 << 10, ChunkDelay: time.Second}), sampling)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := stalled.QuickHash(ctx, path, int64(len(data))); !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected cancellation between chunks of one window, got %v", err)
	}
}
