package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mediadupe/internal/config"
	"mediadupe/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	mediaRoot  string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	testsupport.MkdirAll(t, homeDir)
	t.Setenv("HOME", homeDir)

	mediaRoot := testsupport.MediaRoot(cfg)
	testsupport.MkdirAll(t, mediaRoot)

	configPath := filepath.Join(homeDir, ".config", "mediadupe", "config.toml")
	testsupport.MkdirAll(t, filepath.Dir(configPath))
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, mediaRoot: mediaRoot}
}

// seedDuplicates writes a.jpg and b.jpg with identical content plus a
// same-sized c.jpg that differs and a non-media notes.txt.
func (e *cliTestEnv) seedDuplicates(t *testing.T) {
	t.Helper()
	same := []byte("identical photo bytes")
	other := []byte("different photo bytes")
	testsupport.WriteFile(t, filepath.Join(e.mediaRoot, "d1", "a.jpg"), same)
	testsupport.WriteFile(t, filepath.Join(e.mediaRoot, "d2", "b.jpg"), same)
	testsupport.WriteFile(t, filepath.Join(e.mediaRoot, "d3", "c.jpg"), other)
	testsupport.WriteFile(t, filepath.Join(e.mediaRoot, "d3", "notes.txt"), same)
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
state_dir = %q
log_dir = %q

[scan]
roots = [%q]
skip_patterns = []

[throttle]
op_delay_ms = 0
chunk_delay_ms = 0

[logging]
level = "info"
`,
		cfg.Paths.StateDir,
		cfg.Paths.LogDir,
		cfg.Scan.Roots[0],
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
