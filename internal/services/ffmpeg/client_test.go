package ffmpeg_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"celpress/internal/services/ffmpeg"
)

type fakeExecutor struct {
	runOutput  []byte
	runErr     error
	stdout     []byte
	stderr     []byte
	captureErr error

	lastBinary string
	lastArgs   []string
}

func (f *fakeExecutor) Run(_ context.Context, binary string, args []string) ([]byte, error) {
	f.lastBinary = binary
	f.lastArgs = args
	return f.runOutput, f.runErr
}

func (f *fakeExecutor) Capture(_ context.Context, binary string, args []string) ([]byte, []byte, error) {
	f.lastBinary = binary
	f.lastArgs = args
	return f.stdout, f.stderr, f.captureErr
}

func newClient(t *testing.T, exec ffmpeg.Executor) *ffmpeg.Client {
	t.Helper()
	client, err := ffmpeg.New("ffmpeg", "ffprobe", ffmpeg.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestProbeDimensions(t *testing.T) {
	exec := &fakeExecutor{runOutput: []byte("640x480\n")}
	client := newClient(t, exec)

	w, h, err := client.ProbeDimensions(context.Background(), "bg.png")
	if err != nil {
		t.Fatalf("ProbeDimensions: %v", err)
	}
	if w != 640 || h != 480 {
		t.Fatalf("got %dx%d, want 640x480", w, h)
	}
	if exec.lastBinary != "ffprobe" {
		t.Fatalf("binary = %q", exec.lastBinary)
	}
}

func TestProbeDimensionsMalformed(t *testing.T) {
	exec := &fakeExecutor{runOutput: []byte("garbage")}
	client := newClient(t, exec)

	if _, _, err := client.ProbeDimensions(context.Background(), "bg.png"); err == nil {
		t.Fatal("expected error for malformed output")
	}
}

func TestProbeDimensionsSurfacesDiagnostics(t *testing.T) {
	exec := &fakeExecutor{runOutput: []byte("No such file or directory"), runErr: errors.New("exit status 1")}
	client := newClient(t, exec)

	_, _, err := client.ProbeDimensions(context.Background(), "missing.png")
	if err == nil || !strings.Contains(err.Error(), "No such file or directory") {
		t.Fatalf("expected diagnostics in error, got %v", err)
	}
}

func TestFlattenLayersBuildsOverlayChain(t *testing.T) {
	exec := &fakeExecutor{}
	client := newClient(t, exec)

	err := client.FlattenLayers(context.Background(), []string{"a.png", "b.png"}, "out.png", 100, 50)
	if err != nil {
		t.Fatalf("FlattenLayers: %v", err)
	}

	joined := strings.Join(exec.lastArgs, " ")
	if !strings.Contains(joined, "color=c=black@0.0:s=100x50,format=rgba") {
		t.Fatalf("missing transparent canvas input: %s", joined)
	}
	wantGraph := "[0:v]format=rgba[b0];[b0][1:v]overlay=0:0:format=auto[b1];[b1][2:v]overlay=0:0:format=auto[b2]"
	if !strings.Contains(joined, wantGraph) {
		t.Fatalf("filter graph mismatch: %s", joined)
	}
	if !strings.Contains(joined, "-map [b2]") {
		t.Fatalf("expected final map target: %s", joined)
	}
}

func TestFlattenLayersRequiresInputs(t *testing.T) {
	client := newClient(t, &fakeExecutor{})
	if err := client.FlattenLayers(context.Background(), nil, "out.png", 10, 10); err == nil {
		t.Fatal("expected error for empty layer list")
	}
}

func TestScaleCropPanelArgs(t *testing.T) {
	exec := &fakeExecutor{}
	client := newClient(t, exec)

	if err := client.ScaleCropPanel(context.Background(), "flat.png", "panel.png", 120, 100); err != nil {
		t.Fatalf("ScaleCropPanel: %v", err)
	}
	joined := strings.Join(exec.lastArgs, " ")
	if !strings.Contains(joined, "scale=120:100:force_original_aspect_ratio=increase,crop=120:100:0:0") {
		t.Fatalf("scale/crop filter mismatch: %s", joined)
	}
	if !strings.Contains(joined, "-pix_fmt rgba") || !strings.Contains(joined, "-compression_level 9") {
		t.Fatalf("output settings mismatch: %s", joined)
	}
}

func TestCropFrameArgs(t *testing.T) {
	exec := &fakeExecutor{}
	client := newClient(t, exec)

	if err := client.CropFrame(context.Background(), "panel.png", "out.png", 3, 4, 20, 10); err != nil {
		t.Fatalf("CropFrame: %v", err)
	}
	joined := strings.Join(exec.lastArgs, " ")
	if !strings.Contains(joined, "crop=20:10:3:4") {
		t.Fatalf("crop filter mismatch: %s", joined)
	}
}

func TestRawRGBAUsesStderrForDiagnostics(t *testing.T) {
	exec := &fakeExecutor{stderr: []byte("decode failed"), captureErr: errors.New("exit status 1")}
	client := newClient(t, exec)

	_, err := client.RawRGBA(context.Background(), "cel.png")
	if err == nil || !strings.Contains(err.Error(), "decode failed") {
		t.Fatalf("expected stderr diagnostics, got %v", err)
	}
}
