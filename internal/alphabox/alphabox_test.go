package alphabox_test

import (
	"context"
	"testing"

	"celpress/internal/alphabox"
)

type fakeEngine struct {
	width  int
	height int
	data   []byte
}

func (f *fakeEngine) ProbeDimensions(context.Context, string) (int, int, error) {
	return f.width, f.height, nil
}

func (f *fakeEngine) RawRGBA(context.Context, string) ([]byte, error) {
	return f.data, nil
}

// rgbaCanvas builds a fully transparent w x h RGBA buffer.
func rgbaCanvas(w, h int) []byte {
	return make([]byte, w*h*4)
}

func setAlpha(data []byte, w, x, y int, alpha byte) {
	data[(y*w+x)*4+3] = alpha
}

func TestDetectFindsTightBounds(t *testing.T) {
	w, h := 8, 6
	data := rgbaCanvas(w, h)
	setAlpha(data, w, 2, 1, 255)
	setAlpha(data, w, 5, 4, 200)

	detector := alphabox.NewDetector(&fakeEngine{width: w, height: h, data: data}, alphabox.DefaultThreshold)
	box, ok, err := detector.Detect(context.Background(), "cel.png")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if !ok {
		t.Fatal("expected non-empty box")
	}
	want := alphabox.Box{X: 2, Y: 1, W: 4, H: 4}
	if box != want {
		t.Fatalf("box = %+v, want %+v", box, want)
	}
}

func TestDetectThresholdBoundary(t *testing.T) {
	w, h := 4, 4
	data := rgbaCanvas(w, h)
	// Exactly at the threshold does not count; one above does.
	setAlpha(data, w, 0, 0, 8)
	setAlpha(data, w, 2, 2, 9)

	detector := alphabox.NewDetector(&fakeEngine{width: w, height: h, data: data}, 8)
	box, ok, err := detector.Detect(context.Background(), "cel.png")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if !ok {
		t.Fatal("expected non-empty box")
	}
	if box != (alphabox.Box{X: 2, Y: 2, W: 1, H: 1}) {
		t.Fatalf("box = %+v", box)
	}
}

func TestDetectEmptyImage(t *testing.T) {
	detector := alphabox.NewDetector(&fakeEngine{width: 4, height: 4, data: rgbaCanvas(4, 4)}, alphabox.DefaultThreshold)
	_, ok, err := detector.Detect(context.Background(), "cel.png")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if ok {
		t.Fatal("expected empty result for fully transparent image")
	}
}

func TestDetectShortBuffer(t *testing.T) {
	detector := alphabox.NewDetector(&fakeEngine{width: 4, height: 4, data: make([]byte, 7)}, alphabox.DefaultThreshold)
	if _, _, err := detector.Detect(context.Background(), "cel.png"); err == nil {
		t.Fatal("expected error for truncated rgba buffer")
	}
}

func TestUnion(t *testing.T) {
	a := alphabox.Box{X: 10, Y: 10, W: 5, H: 5}
	b := alphabox.Box{X: 2, Y: 12, W: 4, H: 20}
	got := alphabox.Union(a, b)
	want := alphabox.Box{X: 2, Y: 10, W: 13, H: 22}
	if got != want {
		t.Fatalf("Union = %+v, want %+v", got, want)
	}
}

func TestUnionContained(t *testing.T) {
	outer := alphabox.Box{X: 0, Y: 0, W: 50, H: 50}
	inner := alphabox.Box{X: 10, Y: 10, W: 5, H: 5}
	if got := alphabox.Union(outer, inner); got != outer {
		t.Fatalf("Union = %+v, want unchanged outer %+v", got, outer)
	}
}

func TestPanelCropMapsWithCoverScale(t *testing.T) {
	// canvas 100x100, panel 100x100 over bg height 100: scale 1.0.
	src := alphabox.Box{X: 10, Y: 20, W: 30, H: 40}
	got := alphabox.PanelCrop(src, 100, 100, 100, 100)
	if got != src {
		t.Fatalf("identity crop = %+v, want %+v", got, src)
	}

	// canvas 200x100, panel 100, bg 100: scale = max(0.5, 1.0) = 1.0, so the
	// mapped x extent can exceed the panel and must clamp.
	src = alphabox.Box{X: 150, Y: 0, W: 50, H: 10}
	got = alphabox.PanelCrop(src, 200, 100, 100, 100)
	if got != (alphabox.Box{X: 0, Y: 0, W: 100, H: 100}) {
		t.Fatalf("degenerate clamp = %+v, want full panel", got)
	}
}

func TestPanelCropRoundsOutward(t *testing.T) {
	// canvas 100x100, panel 150, bg 100: scale 1.5.
	src := alphabox.Box{X: 1, Y: 1, W: 1, H: 1}
	got := alphabox.PanelCrop(src, 100, 100, 150, 100)
	// 1*1.5=1.5 floors to 1; 2*1.5=3 ceils to 3.
	want := alphabox.Box{X: 1, Y: 1, W: 2, H: 2}
	if got != want {
		t.Fatalf("crop = %+v, want %+v", got, want)
	}
}

func TestPanelCropDegenerateFallsBack(t *testing.T) {
	got := alphabox.PanelCrop(alphabox.Box{}, 100, 100, 60, 40)
	if got != (alphabox.Box{X: 0, Y: 0, W: 60, H: 40}) {
		t.Fatalf("fallback crop = %+v", got)
	}
}
