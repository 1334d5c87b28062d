package timeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"celpress/internal/services"
)

const (
	// DataFileName is the project metadata file with key:value lines.
	DataFileName = "data.txt"
	// LayerDataFileName is the per-layer cel schedule file.
	LayerDataFileName = "layerData.txt"
	// CameraFileName is optional camera metadata, tracked as an input only.
	CameraFileName = "camera.txt"

	defaultCanvasWidth  = 1920
	defaultCanvasHeight = 1080
	defaultFPS          = 8.0
)

// LayerEntry is one scheduled appearance of a cel: the cel image is named by
// the 4-digit zero-padded Start index and stays visible for Duration frames.
type LayerEntry struct {
	Start    int
	Duration int
}

// Layer is a numbered project sub-folder holding cel images plus its
// schedule entries, sorted by start ascending.
type Layer struct {
	Directory string
	Entries   []LayerEntry
}

// CelPath returns the image path for the cel starting at the given index.
func (l Layer) CelPath(start int) string {
	return filepath.Join(l.Directory, fmt.Sprintf("%04d.png", start))
}

// Project is the parsed, immutable timeline model for one project directory.
type Project struct {
	Dir          string
	CanvasWidth  int
	CanvasHeight int
	FPS          float64
	Layers       []Layer
}

// Load parses project metadata and discovers layers. Missing metadata is a
// configuration error; individual layers without entries are simply absent.
func Load(projectDir string) (*Project, error) {
	width, height, fps, err := parseProjectMeta(projectDir)
	if err != nil {
		return nil, err
	}
	layers, err := discoverLayers(projectDir)
	if err != nil {
		return nil, err
	}
	return &Project{
		Dir:          projectDir,
		CanvasWidth:  width,
		CanvasHeight: height,
		FPS:          fps,
		Layers:       layers,
	}, nil
}

// DataFilePath returns the project metadata file path.
func (p *Project) DataFilePath() string {
	return filepath.Join(p.Dir, DataFileName)
}

// CameraFilePath returns the optional camera metadata file path.
func (p *Project) CameraFilePath() string {
	return filepath.Join(p.Dir, CameraFileName)
}

// FrameCount is one past the highest start+duration-1 across every layer, or
// zero when no layer has entries.
func (p *Project) FrameCount() int {
	maxFrame := -1
	for _, layer := range p.Layers {
		for _, entry := range layer.Entries {
			if last := entry.Start + entry.Duration - 1; last > maxFrame {
				maxFrame = last
			}
		}
	}
	return maxFrame + 1
}

// ActiveCelStart returns the start index of the entry covering frameIdx, or
// false when no entry covers it. When entries overlap, the last match in
// start-sorted order wins.
func ActiveCelStart(entries []LayerEntry, frameIdx int) (int, bool) {
	active := -1
	found := false
	for _, entry := range entries {
		if entry.Start <= frameIdx && frameIdx < entry.Start+entry.Duration {
			active = entry.Start
			found = true
		}
	}
	return active, found
}

func parseProjectMeta(projectDir string) (int, int, float64, error) {
	dataFile := filepath.Join(projectDir, DataFileName)
	raw, err := os.ReadFile(dataFile)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, 0, services.Wrap(services.ErrConfiguration, "timeline", "load", fmt.Sprintf("missing project data file %s", dataFile), nil)
		}
		return 0, 0, 0, fmt.Errorf("read project data file: %w", err)
	}

	width := defaultCanvasWidth
	height := defaultCanvasHeight
	fps := defaultFPS

	for _, rawLine := range strings.Split(string(raw), "\n") {
		line := strings.TrimSpace(rawLine)
		switch {
		case strings.HasPrefix(line, "canvasWidth:"):
			if width, err = parseIntValue(line); err != nil {
				return 0, 0, 0, fmt.Errorf("parse canvasWidth: %w", err)
			}
		case strings.HasPrefix(line, "canvasHeight:"):
			if height, err = parseIntValue(line); err != nil {
				return 0, 0, 0, fmt.Errorf("parse canvasHeight: %w", err)
			}
		case strings.HasPrefix(line, "framesPerSecond:"):
			if fps, err = parseFloatValue(line); err != nil {
				return 0, 0, 0, fmt.Errorf("parse framesPerSecond: %w", err)
			}
		}
	}
	return width, height, fps, nil
}

func parseIntValue(line string) (int, error) {
	_, value, _ := strings.Cut(line, ":")
	return strconv.Atoi(strings.TrimSpace(value))
}

func parseFloatValue(line string) (float64, error) {
	_, value, _ := strings.Cut(line, ":")
	return strconv.ParseFloat(strings.TrimSpace(value), 64)
}

func discoverLayers(projectDir string) ([]Layer, error) {
	children, err := os.ReadDir(projectDir)
	if err != nil {
		return nil, fmt.Errorf("read project directory: %w", err)
	}

	var out []Layer
	// ReadDir returns entries in filename order, which fixes the compositing
	// stack order for layers.
	for _, child := range children {
		if !child.IsDir() || !isDigits(child.Name()) {
			continue
		}
		layerDir := filepath.Join(projectDir, child.Name())
		layerData := filepath.Join(layerDir, LayerDataFileName)
		if _, err := os.Stat(layerData); err != nil {
			continue
		}
		entries, err := parseLayerEntries(layerData, layerDir)
		if err != nil {
			return nil, err
		}
		out = append(out, Layer{Directory: layerDir, Entries: entries})
	}
	return out, nil
}

func parseLayerEntries(layerDataFile, layerDir string) ([]LayerEntry, error) {
	raw, err := os.ReadFile(layerDataFile)
	if err != nil {
		return nil, fmt.Errorf("read layer schedule: %w", err)
	}

	var entries []LayerEntry
	for _, rawLine := range strings.Split(string(raw), "\n") {
		parts := strings.Split(strings.TrimSpace(rawLine), ":")
		if len(parts) < 2 {
			continue
		}
		if !isDigits(parts[0]) || !isDigits(parts[1]) {
			continue
		}
		start, _ := strconv.Atoi(parts[0])
		duration, _ := strconv.Atoi(parts[1])
		if duration < 1 {
			duration = 1
		}
		entries = append(entries, LayerEntry{Start: start, Duration: duration})
	}

	if len(entries) > 0 {
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Start < entries[j].Start
		})
		return entries, nil
	}

	// Fallback: no timeline rows, so treat every numerically named png in the
	// folder as a single-frame cel.
	children, err := os.ReadDir(layerDir)
	if err != nil {
		return nil, fmt.Errorf("read layer directory: %w", err)
	}
	var fallback []LayerEntry
	for _, child := range children {
		name := child.Name()
		if child.IsDir() || !strings.HasSuffix(name, ".png") {
			continue
		}
		stem := strings.TrimSuffix(name, ".png")
		if !isDigits(stem) {
			continue
		}
		start, _ := strconv.Atoi(stem)
		fallback = append(fallback, LayerEntry{Start: start, Duration: 1})
	}
	return fallback, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
