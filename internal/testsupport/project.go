package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// LayerFixture describes one numbered layer directory for WriteProject:
// schedule rows as start:duration pairs plus the cel starts to create images
// for.
type LayerFixture struct {
	Name     string
	Schedule [][2]int
	Cels     []int
}

// WriteProject lays out a minimal project tree: data.txt plus the given
// layers with schedules and placeholder cel images.
func WriteProject(t testing.TB, projectDir string, canvasWidth, canvasHeight int, fps float64, layers ...LayerFixture) {
	t.Helper()

	meta := fmt.Sprintf("canvasWidth:%d\ncanvasHeight:%d\nframesPerSecond:%v\n", canvasWidth, canvasHeight, fps)
	WriteFile(t, filepath.Join(projectDir, "data.txt"), meta)

	for _, layer := range layers {
		layerDir := filepath.Join(projectDir, layer.Name)
		var rows []string
		for _, entry := range layer.Schedule {
			rows = append(rows, fmt.Sprintf("%d:%d", entry[0], entry[1]))
		}
		WriteFile(t, filepath.Join(layerDir, "layerData.txt"), strings.Join(rows, "\n")+"\n")
		for _, start := range layer.Cels {
			WriteFile(t, filepath.Join(layerDir, fmt.Sprintf("%04d.png", start)), fmt.Sprintf("cel-%s-%04d", layer.Name, start))
		}
	}
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
