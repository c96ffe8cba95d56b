package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"mediadupe/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "mediadupe")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Scan.Mode != config.ModeFolders {
		t.Fatalf("expected folders mode by default, got %q", cfg.Scan.Mode)
	}
	if len(cfg.Scan.Extensions) != len(config.DefaultMediaExtensions) {
		t.Fatalf("unexpected default extensions: %v", cfg.Scan.Extensions)
	}
	if cfg.Detect.HighPrecision {
		t.Fatal("expected high precision disabled by default")
	}
	if cfg.Detect.QuickHashWindow != 1<<20 || cfg.Detect.QuickHashWindows != 3 {
		t.Fatalf("unexpected quick hash layout: %d x %d", cfg.Detect.QuickHashWindow, cfg.Detect.QuickHashWindows)
	}
	if cfg.Throttle.MaxHandles != 2 {
		t.Fatalf("expected conservative handle cap, got %d", cfg.Throttle.MaxHandles)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "mediadupe.toml")

	type payload struct {
		Scan struct {
			Roots      []string `toml:"roots"`
			Extensions []string `toml:"extensions"`
		} `toml:"scan"`
		Detect struct {
			HighPrecision bool `toml:"high_precision"`
		} `toml:"detect"`
		Throttle struct {
			MaxHandles int `toml:"max_handles"`
		} `toml:"throttle"`
	}
	custom := payload{}
	custom.Scan.Roots = []string{tempDir, "  "}
	custom.Scan.Extensions = []string{"JPG", ".Png", ".jpg", ""}
	custom.Detect.HighPrecision = true
	custom.Throttle.MaxHandles = 4
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if len(cfg.Scan.Roots) != 1 || cfg.Scan.Roots[0] != tempDir {
		t.Fatalf("unexpected roots: %v", cfg.Scan.Roots)
	}
	want := []string{".jpg", ".png"}
	if strings.Join(cfg.Scan.Extensions, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected extensions: got %v want %v", cfg.Scan.Extensions, want)
	}
	if !cfg.Detect.HighPrecision {
		t.Fatal("expected high precision from file")
	}
	if cfg.Throttle.MaxHandles != 4 {
		t.Fatalf("expected max handles override, got %d", cfg.Throttle.MaxHandles)
	}
	if cfg.Throttle.ChunkSize != 1<<20 {
		t.Fatalf("expected default chunk size retained, got %d", cfg.Throttle.ChunkSize)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"mode", func(c *config.Config) { c.Scan.Mode = "network" }, "scan.mode"},
		{"handles", func(c *config.Config) { c.Throttle.MaxHandles = -1 }, "throttle.max_handles"},
		{"chunk", func(c *config.Config) { c.Throttle.ChunkSize = -5 }, "throttle.chunk_size"},
		{"delay", func(c *config.Config) { c.Throttle.OpDelayMS = -1 }, "throttle.op_delay_ms"},
		{"windows", func(c *config.Config) { c.Detect.QuickHashWindows = 99 }, "detect.quick_hash_windows"},
		{"window size", func(c *config.Config) { c.Detect.QuickHashWindow = -1 }, "detect.quick_hash_window"},
		{"format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in error, got %v", tc.want, err)
			}
		})
	}
}

func TestLogLevelEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MEDIADUPE_LOG_LEVEL", "DEBUG")
	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected env log level, got %q", cfg.Logging.Level)
	}
}

func TestNormalizeExtensions(t *testing.T) {
	got := config.NormalizeExtensions([]string{" MP4", "mp4", ".HEIC", ""})
	if strings.Join(got, ",") != ".mp4,.heic" {
		t.Fatalf("unexpected normalized extensions: %v", got)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	t.Setenv("HOME", t.TempDir())
	cfg, _, exists, err := config.Load(target)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if len(cfg.Scan.SkipPatterns) != len(config.DefaultSkipPatterns) {
		t.Fatalf("unexpected skip patterns: %v", cfg.Scan.SkipPatterns)
	}
}

func TestEncodeReloadsIdentically(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	root := filepath.Join(home, "photos")
	src := filepath.Join(t.TempDir(), "in.toml")
	body := "[scan]\nroots = [\"~/photos\"]\nextensions = [\"JPG\"]\n[throttle]\nmax_handles = 2\n"
	if err := os.WriteFile(src, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	first, _, _, err := config.Load(src)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	var buf bytes.Buffer
	if err := first.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	dst := filepath.Join(t.TempDir(), "out.toml")
	if err := os.WriteFile(dst, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write encoded: %v", err)
	}
	second, _, _, err := config.Load(dst)
	if err != nil {
		t.Fatalf("reload encoded config: %v\n%s", err, buf.String())
	}
	if len(second.Scan.Roots) != 1 || second.Scan.Roots[0] != root {
		t.Fatalf("roots not preserved: %v", second.Scan.Roots)
	}
	if strings.Join(second.Scan.Extensions, ",") != ".jpg" || second.Throttle.MaxHandles != 2 {
		t.Fatalf("unexpected reloaded config: %+v", second)
	}
}

func TestLoadReportsParsePosition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	if err := os.WriteFile(path, []byte("[scan]\nmode = \n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), path+":2:") {
		t.Fatalf("expected error with line position, got %v", err)
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	cases := map[string]string{
		"":            "",
		"~":           home,
		"~/a/../b":    filepath.Join(home, "b"),
		"/tmp//x/./y": filepath.Clean("/tmp/x/y"),
	}
	for in, want := range cases {
		got, err := config.ExpandPath(in)
		if err != nil {
			t.Fatalf("ExpandPath(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ExpandPath(%q) = %q, want %q", in, got, want)
		}
	}
}
