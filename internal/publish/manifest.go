package publish

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"celpress/internal/alphabox"
)

// buildManifest renders the consumer-facing frame list. Overlay placement is
// expressed as ratios of the background dimensions so the consumer stays
// resolution independent. Frame paths are written relative to rootDir when
// possible, absolute otherwise.
func buildManifest(fps float64, crop alphabox.Box, bgWidth, bgHeight int, jobs []frameJob, outputDir, rootDir string) []byte {
	var b strings.Builder
	b.WriteString("# auto-generated by celpress\n")
	b.WriteString("fps=" + strconv.FormatFloat(fps, 'g', -1, 64) + "\n")
	fmt.Fprintf(&b, "overlay_x_ratio=%.8f\n", float64(crop.X)/float64(bgWidth))
	fmt.Fprintf(&b, "overlay_y_ratio=%.8f\n", float64(crop.Y)/float64(bgHeight))
	fmt.Fprintf(&b, "overlay_w_ratio=%.8f\n", float64(crop.W)/float64(bgWidth))
	fmt.Fprintf(&b, "overlay_h_ratio=%.8f\n", float64(crop.H)/float64(bgHeight))
	for _, job := range jobs {
		b.WriteString(manifestFramePath(filepath.Join(outputDir, job.name), rootDir) + "\n")
	}
	return []byte(b.String())
}

func manifestFramePath(framePath, rootDir string) string {
	if rootDir == "" {
		return framePath
	}
	rel, err := filepath.Rel(rootDir, framePath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return framePath
	}
	return filepath.ToSlash(rel)
}
