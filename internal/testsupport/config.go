// Package testsupport provides fixtures shared by package tests: per-test
// configs seeded with temp directories, project tree builders, and stub
// external binaries.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"celpress/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The project directory and background file exist; the output directory is
// left for the publisher to create.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.ProjectDir = filepath.Join(base, "project")
	cfgVal.Paths.OutputDir = filepath.Join(base, "published")
	cfgVal.Paths.Background = filepath.Join(base, "bg.png")
	cfgVal.Paths.RootDir = base
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.History.Enabled = false
	cfgVal.History.Path = filepath.Join(base, "history.db")

	if err := os.MkdirAll(cfgVal.Paths.ProjectDir, 0o755); err != nil {
		t.Fatalf("mkdir project dir: %v", err)
	}
	if err := os.MkdirAll(cfgVal.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir log dir: %v", err)
	}
	if err := os.WriteFile(cfgVal.Paths.Background, []byte("bg"), 0o644); err != nil {
		t.Fatalf("write background: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithLeftRatio overrides the published panel width ratio.
func WithLeftRatio(ratio float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Publish.LeftRatio = ratio
	}
}

// WithSyncRoot switches the config from a direct project dir to sync-root
// resolution.
func WithSyncRoot(projectName string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.ProjectDir = ""
		b.cfg.Paths.SyncRoot = filepath.Join(b.baseDir, "sync")
		b.cfg.Paths.ProjectName = projectName
	}
}

// WithHistory enables the sqlite cycle history.
func WithHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = true
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg and ffprobe are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}
