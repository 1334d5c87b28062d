package alphabox

import (
	"context"
	"fmt"
)

// DefaultThreshold is the alpha value above which a pixel counts as drawn.
const DefaultThreshold = 8

// Engine is the subset of the raster engine the detector needs.
type Engine interface {
	ProbeDimensions(ctx context.Context, imagePath string) (int, int, error)
	RawRGBA(ctx context.Context, imagePath string) ([]byte, error)
}

// Detector scans a cel image's alpha channel for its tight content bounds.
type Detector struct {
	engine    Engine
	threshold int
}

// NewDetector builds a detector. A threshold outside [0,255] falls back to
// the default.
func NewDetector(engine Engine, threshold int) *Detector {
	if threshold < 0 || threshold > 255 {
		threshold = DefaultThreshold
	}
	return &Detector{engine: engine, threshold: threshold}
}

// Detect returns the smallest box containing every pixel whose alpha exceeds
// the threshold, or false when the image has no such pixel.
func (d *Detector) Detect(ctx context.Context, imagePath string) (Box, bool, error) {
	width, height, err := d.engine.ProbeDimensions(ctx, imagePath)
	if err != nil {
		return Box{}, false, err
	}
	data, err := d.engine.RawRGBA(ctx, imagePath)
	if err != nil {
		return Box{}, false, err
	}
	expected := width * height * 4
	if len(data) < expected {
		return Box{}, false, fmt.Errorf("raw rgba frame too short for %s: got=%d expected=%d", imagePath, len(data), expected)
	}

	minX, minY := width, height
	maxX, maxY := -1, -1
	threshold := byte(d.threshold)

	for y := 0; y < height; y++ {
		rowOffset := y * width * 4
		for x := 0; x < width; x++ {
			alpha := data[rowOffset+x*4+3]
			if alpha > threshold {
				if x < minX {
					minX = x
				}
				if y < minY {
					minY = y
				}
				if x > maxX {
					maxX = x
				}
				if y > maxY {
					maxY = y
				}
			}
		}
	}

	if maxX < minX || maxY < minY {
		return Box{}, false, nil
	}
	return Box{X: minX, Y: minY, W: maxX - minX + 1, H: maxY - minY + 1}, true, nil
}
