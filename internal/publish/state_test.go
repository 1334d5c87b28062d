package publish

import (
	"os"
	"path/filepath"
	"testing"

	"celpress/internal/alphabox"
)

func TestLoadStateMissingFileReturnsDefault(t *testing.T) {
	state := LoadState(filepath.Join(t.TempDir(), "nope.json"))
	if state.Version != StateVersion {
		t.Fatalf("version = %d, want %d", state.Version, StateVersion)
	}
	if state.GlobalSig != "" {
		t.Fatalf("global sig = %q, want empty", state.GlobalSig)
	}
	if state.Frames == nil || state.InputFiles == nil || state.CelBBoxCache == nil {
		t.Fatal("default state maps must be non-nil")
	}
}

func TestStateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), StateFileName)
	in := &State{
		Version:    StateVersion,
		GlobalSig:  "canvas=100x100|bg=200x100|left_width=100|left_ratio=0.500000|fps=8.000000|frames=3",
		Crop:       []int{10, 10, 50, 40},
		Frames:     map[string]string{"frame-0000.png": "a:1:2"},
		InputFiles: map[string]string{"data.txt": "5:99"},
		CelBBoxCache: map[string]*alphabox.Box{
			"cel:1:2": {X: 10, Y: 10, W: 20, H: 20},
			"cel:3:4": nil,
		},
	}
	if err := SaveState(path, in); err != nil {
		t.Fatalf("save: %v", err)
	}

	out := LoadState(path)
	if out.GlobalSig != in.GlobalSig {
		t.Fatalf("global sig = %q, want %q", out.GlobalSig, in.GlobalSig)
	}
	if !equalInts(out.Crop, in.Crop) {
		t.Fatalf("crop = %v, want %v", out.Crop, in.Crop)
	}
	if out.Frames["frame-0000.png"] != "a:1:2" {
		t.Fatalf("frames = %v", out.Frames)
	}
	box, ok := out.CelBBoxCache["cel:1:2"]
	if !ok || box == nil || *box != (alphabox.Box{X: 10, Y: 10, W: 20, H: 20}) {
		t.Fatalf("cached box = %v", box)
	}
	if empty, ok := out.CelBBoxCache["cel:3:4"]; !ok || empty != nil {
		t.Fatalf("empty cel cache entry = %v present=%v, want nil present", empty, ok)
	}
}

func TestLoadStateVersionMismatchReturnsDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), StateFileName)
	if err := os.WriteFile(path, []byte(`{"version":99,"global_sig":"x"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	state := LoadState(path)
	if state.GlobalSig != "" {
		t.Fatalf("expected default state, got sig %q", state.GlobalSig)
	}
}

func TestFileSignatureTracksContentChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cel.png")
	if err := os.WriteFile(path, []byte("one"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	first, err := FileSignature(path)
	if err != nil {
		t.Fatalf("signature: %v", err)
	}
	if err := os.WriteFile(path, []byte("longer content"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	second, err := FileSignature(path)
	if err != nil {
		t.Fatalf("signature: %v", err)
	}
	if first == second {
		t.Fatal("signature did not change with file size")
	}
}

func TestGlobalSignatureFormat(t *testing.T) {
	sig := GlobalSignature(100, 100, 200, 100, 100, 0.5, 8, 3)
	want := "canvas=100x100|bg=200x100|left_width=100|left_ratio=0.500000|fps=8.000000|frames=3"
	if sig != want {
		t.Fatalf("signature = %q, want %q", sig, want)
	}
}
