// Package alphabox computes opaque-pixel bounding boxes for cel images and
// maps their union into the output panel's coordinate space.
package alphabox

import "math"

// Box is an axis-aligned rectangle in pixel coordinates.
type Box struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Union returns the smallest box covering both a and b.
func Union(a, b Box) Box {
	x0 := min(a.X, b.X)
	y0 := min(a.Y, b.Y)
	x1 := max(a.X+a.W, b.X+b.W)
	y1 := max(a.Y+a.H, b.Y+b.H)
	return Box{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// PanelCrop maps a source-canvas box into panel space using the same cover
// scale the compositor applies: scale = max(panelW/canvasW, bgH/canvasH).
// Corners are floored/ceiled outward and clamped to the panel; a degenerate
// result falls back to the full panel rectangle.
func PanelCrop(src Box, canvasW, canvasH, panelW, bgH int) Box {
	scale := math.Max(float64(panelW)/float64(canvasW), float64(bgH)/float64(canvasH))

	x0 := max(0, int(math.Floor(float64(src.X)*scale)))
	y0 := max(0, int(math.Floor(float64(src.Y)*scale)))
	x1 := min(panelW, int(math.Ceil(float64(src.X+src.W)*scale)))
	y1 := min(bgH, int(math.Ceil(float64(src.Y+src.H)*scale)))

	if x1 <= x0 || y1 <= y0 {
		return Box{X: 0, Y: 0, W: panelW, H: bgH}
	}
	return Box{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}
