package publish

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileSignature fingerprints a file by absolute path, byte size, and
// nanosecond modification time. Used for per-frame change detection and as
// the bbox cache key, so an untouched cel is never re-measured.
func FileSignature(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	return fmt.Sprintf("%s:%d:%d", filepath.ToSlash(path), info.Size(), info.ModTime().UnixNano()), nil
}

// InputSignature fingerprints a tracked input by size and modification time,
// without the path (the path is the map key).
func InputSignature(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	return fmt.Sprintf("%d:%d", info.Size(), info.ModTime().UnixNano()), nil
}

// GlobalSignature folds every parameter that affects crop geometry or
// scaling. Any change forces a full rebuild.
func GlobalSignature(canvasW, canvasH, bgW, bgH, panelWidth int, leftRatio, fps float64, frameCount int) string {
	return fmt.Sprintf(
		"canvas=%dx%d|bg=%dx%d|left_width=%d|left_ratio=%.6f|fps=%.6f|frames=%d",
		canvasW, canvasH, bgW, bgH, panelWidth, leftRatio, fps, frameCount,
	)
}
