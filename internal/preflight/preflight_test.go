package preflight

import (
	"os"
	"path/filepath"
	"testing"

	"celpress/internal/config"
	"celpress/internal/testsupport"
)

func TestCheckReadableDirectory(t *testing.T) {
	dir := t.TempDir()
	if result := CheckReadableDirectory("dir", dir); !result.Passed {
		t.Fatalf("expected pass for %s: %s", dir, result.Detail)
	}
	if result := CheckReadableDirectory("dir", filepath.Join(dir, "missing")); result.Passed {
		t.Fatal("expected failure for missing directory")
	}

	file := filepath.Join(dir, "plain.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if result := CheckReadableDirectory("dir", file); result.Passed {
		t.Fatal("expected failure for non-directory")
	}
}

func TestCheckWritableDirectoryWalksToExistingParent(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "a", "b", "published")
	if result := CheckWritableDirectory("output", target); !result.Passed {
		t.Fatalf("expected pass via existing parent: %s", result.Detail)
	}
	if result := CheckWritableDirectory("output", ""); result.Passed {
		t.Fatal("expected failure for unconfigured path")
	}
}

func TestCheckReadableFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "bg.png")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if result := CheckReadableFile("background", file); !result.Passed {
		t.Fatalf("expected pass: %s", result.Detail)
	}
	if result := CheckReadableFile("background", dir); result.Passed {
		t.Fatal("expected failure for directory")
	}
	if result := CheckReadableFile("background", filepath.Join(dir, "missing.png")); result.Passed {
		t.Fatal("expected failure for missing file")
	}
}

func TestRunAllPassesWithCompleteSetup(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	testsupport.WriteProject(t, cfg.Paths.ProjectDir, 100, 100, 8, testsupport.LayerFixture{
		Name:     "1",
		Schedule: [][2]int{{0, 1}},
		Cels:     []int{0},
	})

	failed := Failures(RunAll(cfg))
	if len(failed) != 0 {
		t.Fatalf("expected all checks to pass, failed: %+v", failed)
	}
}

func TestRunAllReportsMissingPieces(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ProjectDir = filepath.Join(root, "project")
	cfg.Paths.OutputDir = filepath.Join(root, "published")
	cfg.Paths.Background = filepath.Join(root, "bg.png")
	cfg.Paths.LogDir = filepath.Join(root, "logs")
	cfg.Publish.FFmpegBinary = filepath.Join(root, "no-ffmpeg")

	results := RunAll(&cfg)
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	failed := Failures(results)
	if len(failed) == 0 {
		t.Fatal("expected failures for empty setup")
	}
	seen := map[string]bool{}
	for _, result := range failed {
		seen[result.Name] = true
	}
	for _, name := range []string{"FFmpeg", "Project directory", "Base background"} {
		if !seen[name] {
			t.Fatalf("expected %s among failures: %+v", name, failed)
		}
	}
}
