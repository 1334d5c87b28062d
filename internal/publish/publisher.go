package publish

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"celpress/internal/alphabox"
	"celpress/internal/config"
	"celpress/internal/fileutil"
	"celpress/internal/logging"
	"celpress/internal/services"
	"celpress/internal/timeline"
)

// ManifestFileName is the fixed manifest name inside the output directory.
const ManifestFileName = "manifest.txt"

const frameNamePattern = "frame-*.png"

// Engine is the narrow raster capability surface the publisher drives. It is
// satisfied by services/ffmpeg.Client and by fakes in tests.
type Engine interface {
	ProbeDimensions(ctx context.Context, imagePath string) (int, int, error)
	RawRGBA(ctx context.Context, imagePath string) ([]byte, error)
	FlattenLayers(ctx context.Context, layerPaths []string, outFile string, canvasWidth, canvasHeight int) error
	ScaleCropPanel(ctx context.Context, src, outFile string, panelWidth, bgHeight int) error
	CropFrame(ctx context.Context, src, outFile string, x, y, w, h int) error
}

// Publisher runs incremental publish cycles for one configured output tree.
type Publisher struct {
	cfg      *config.Config
	engine   Engine
	detector *alphabox.Detector
	logger   *slog.Logger
}

// NewPublisher wires a publisher from configuration and a raster engine.
func NewPublisher(cfg *config.Config, engine Engine, logger *slog.Logger) *Publisher {
	return &Publisher{
		cfg:      cfg,
		engine:   engine,
		detector: alphabox.NewDetector(engine, cfg.Publish.AlphaThreshold),
		logger:   logging.NewComponentLogger(logger, "publish"),
	}
}

// Result summarizes one successful publish cycle.
type Result struct {
	FrameCount    int
	FPS           float64
	RebuiltFrames int
	ChangedInputs []string
	ChangedFrames []string
	Crop          alphabox.Box
}

// frameJob carries the per-frame inputs collected while walking the timeline.
type frameJob struct {
	name string
	cels []string
	sig  string
}

// Publish runs one full incremental cycle against projectDir.
func (p *Publisher) Publish(ctx context.Context, projectDir string) (*Result, error) {
	if _, err := os.Stat(projectDir); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "publish", "cycle", fmt.Sprintf("project dir not found: %s", projectDir), nil)
	}
	background := p.cfg.Paths.Background
	if _, err := os.Stat(background); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "publish", "cycle", fmt.Sprintf("base background not found: %s", background), nil)
	}

	project, err := timeline.Load(projectDir)
	if err != nil {
		return nil, err
	}
	if len(project.Layers) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "publish", "cycle", fmt.Sprintf("no drawable layers found in: %s", projectDir), nil)
	}
	frameCount := project.FrameCount()
	if frameCount <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, "publish", "cycle", "timeline frame count is zero", nil)
	}

	outputDir := p.cfg.Paths.OutputDir
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	statePath := filepath.Join(outputDir, StateFileName)
	prev := LoadState(statePath)

	bgW, bgH, err := p.engine.ProbeDimensions(ctx, background)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "publish", "probe background", "", err)
	}
	panelWidth := int(float64(bgW) * p.cfg.Publish.LeftRatio)
	if panelWidth < 1 {
		panelWidth = 1
	}

	jobs, err := collectFrames(project, frameCount)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "publish", "cycle", "no output frames produced", nil)
	}

	currentInputs, err := trackInputs(project, jobs)
	if err != nil {
		return nil, err
	}
	changedInputs := diffInputs(prev.InputFiles, currentInputs)

	sourceBox, bboxCache, err := p.unionSourceBox(ctx, project, prev.CelBBoxCache)
	if err != nil {
		return nil, err
	}
	if sourceBox == nil {
		sourceBox = &alphabox.Box{X: 0, Y: 0, W: project.CanvasWidth, H: project.CanvasHeight}
	}
	crop := alphabox.PanelCrop(*sourceBox, project.CanvasWidth, project.CanvasHeight, panelWidth, bgH)
	cropSlice := []int{crop.X, crop.Y, crop.W, crop.H}

	globalSig := GlobalSignature(
		project.CanvasWidth, project.CanvasHeight,
		bgW, bgH, panelWidth,
		p.cfg.Publish.LeftRatio, project.FPS, len(jobs),
	)
	forceFull := prev.GlobalSig != globalSig || !equalInts(prev.Crop, cropSlice)

	currentSigs := make(map[string]string, len(jobs))
	for _, job := range jobs {
		currentSigs[job.name] = job.sig
	}
	if err := sweepStaleOutputs(outputDir, prev.Frames, currentSigs); err != nil {
		return nil, err
	}

	var changedFrames []string
	for _, job := range jobs {
		outPath := filepath.Join(outputDir, job.name)
		if forceFull || prev.Frames[job.name] != job.sig || !fileExists(outPath) {
			changedFrames = append(changedFrames, job.name)
		}
	}

	scratchDir := filepath.Join(outputDir, fmt.Sprintf(".publish_tmp.%d.%d", os.Getpid(), time.Now().UnixNano()))
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer func() {
		if err := fileutil.RemoveAllRetry(scratchDir, 5, 50*time.Millisecond); err != nil {
			p.logger.Warn("scratch cleanup failed",
				logging.String(logging.FieldEventType, "scratch_cleanup_failed"),
				logging.String("scratch_dir", scratchDir),
				logging.Error(err),
			)
		}
	}()

	rebuilt := 0
	changedSet := make(map[string]struct{}, len(changedFrames))
	for _, name := range changedFrames {
		changedSet[name] = struct{}{}
	}
	for _, job := range jobs {
		if _, stale := changedSet[job.name]; !stale {
			continue
		}
		if err := p.composeFrame(ctx, job, scratchDir, outputDir, project, panelWidth, bgH, crop); err != nil {
			return nil, err
		}
		rebuilt++
	}

	manifest := buildManifest(project.FPS, crop, bgW, bgH, jobs, outputDir, p.cfg.Paths.RootDir)
	if err := fileutil.WriteFileAtomic(filepath.Join(outputDir, ManifestFileName), manifest, 0o644); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	next := &State{
		Version:      StateVersion,
		GlobalSig:    globalSig,
		Crop:         cropSlice,
		Frames:       currentSigs,
		InputFiles:   currentInputs,
		CelBBoxCache: bboxCache,
	}
	if err := SaveState(statePath, next); err != nil {
		return nil, fmt.Errorf("save publish state: %w", err)
	}

	return &Result{
		FrameCount:    len(jobs),
		FPS:           project.FPS,
		RebuiltFrames: rebuilt,
		ChangedInputs: changedInputs,
		ChangedFrames: changedFrames,
		Crop:          crop,
	}, nil
}

func collectFrames(project *timeline.Project, frameCount int) ([]frameJob, error) {
	var jobs []frameJob
	for idx := 0; idx < frameCount; idx++ {
		var cels []string
		for _, layer := range project.Layers {
			start, ok := timeline.ActiveCelStart(layer.Entries, idx)
			if !ok {
				continue
			}
			candidate := layer.CelPath(start)
			if fileExists(candidate) {
				cels = append(cels, candidate)
			}
		}
		if len(cels) == 0 {
			continue
		}
		sig, err := frameSignature(cels)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, frameJob{
			name: fmt.Sprintf("frame-%04d.png", idx),
			cels: cels,
			sig:  sig,
		})
	}
	return jobs, nil
}

func frameSignature(cels []string) (string, error) {
	sig := ""
	for i, cel := range cels {
		celSig, err := FileSignature(cel)
		if err != nil {
			return "", err
		}
		if i > 0 {
			sig += "|"
		}
		sig += celSig
	}
	return sig, nil
}

func trackInputs(project *timeline.Project, jobs []frameJob) (map[string]string, error) {
	inputs := map[string]string{}
	track := func(path string) error {
		rel, err := filepath.Rel(project.Dir, path)
		if err != nil {
			return fmt.Errorf("relativize input %s: %w", path, err)
		}
		sig, err := InputSignature(path)
		if err != nil {
			return err
		}
		inputs[filepath.ToSlash(rel)] = sig
		return nil
	}

	if err := track(project.DataFilePath()); err != nil {
		return nil, err
	}
	if camera := project.CameraFilePath(); fileExists(camera) {
		if err := track(camera); err != nil {
			return nil, err
		}
	}
	for _, layer := range project.Layers {
		layerData := filepath.Join(layer.Directory, timeline.LayerDataFileName)
		if fileExists(layerData) {
			if err := track(layerData); err != nil {
				return nil, err
			}
		}
	}
	for _, job := range jobs {
		for _, cel := range job.cels {
			if err := track(cel); err != nil {
				return nil, err
			}
		}
	}
	return inputs, nil
}

// diffInputs reports inputs whose signatures changed plus removed ones, for
// observability only.
func diffInputs(prev, current map[string]string) []string {
	var changed []string
	for rel, sig := range current {
		if prev[rel] != sig {
			changed = append(changed, rel)
		}
	}
	for rel := range prev {
		if _, ok := current[rel]; !ok {
			changed = append(changed, "(removed) "+rel)
		}
	}
	sort.Strings(changed)
	return changed
}

// unionSourceBox unions the alpha bbox of every distinct cel referenced by
// the timeline, consulting and rebuilding the persistent cache keyed by cel
// content signature. The returned cache holds only currently referenced cels.
func (p *Publisher) unionSourceBox(ctx context.Context, project *timeline.Project, prevCache map[string]*alphabox.Box) (*alphabox.Box, map[string]*alphabox.Box, error) {
	var union *alphabox.Box
	seen := map[string]struct{}{}
	cache := map[string]*alphabox.Box{}

	for _, layer := range project.Layers {
		for _, entry := range layer.Entries {
			candidate := layer.CelPath(entry.Start)
			if _, dup := seen[candidate]; dup || !fileExists(candidate) {
				continue
			}
			seen[candidate] = struct{}{}

			cacheKey, err := FileSignature(candidate)
			if err != nil {
				return nil, nil, err
			}

			var box *alphabox.Box
			if cached, ok := prevCache[cacheKey]; ok {
				box = cached
			} else {
				detected, found, err := p.detector.Detect(ctx, candidate)
				if err != nil {
					return nil, nil, services.Wrap(services.ErrExternalTool, "publish", "detect alpha bbox", candidate, err)
				}
				if found {
					box = &detected
				}
			}
			cache[cacheKey] = box
			if box == nil {
				continue
			}
			if union == nil {
				u := *box
				union = &u
			} else {
				u := alphabox.Union(*union, *box)
				union = &u
			}
		}
	}
	return union, cache, nil
}

// sweepStaleOutputs deletes frames recorded in the previous state that are no
// longer active, then sweeps any frame-named files not in the current set to
// guard against partial prior runs.
func sweepStaleOutputs(outputDir string, prevFrames, currentSigs map[string]string) error {
	for name := range prevFrames {
		if _, ok := currentSigs[name]; ok {
			continue
		}
		stale := filepath.Join(outputDir, name)
		if err := os.Remove(stale); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove stale frame %s: %w", name, err)
		}
	}
	matches, err := filepath.Glob(filepath.Join(outputDir, frameNamePattern))
	if err != nil {
		return fmt.Errorf("sweep output dir: %w", err)
	}
	for _, match := range matches {
		name := filepath.Base(match)
		if _, ok := currentSigs[name]; ok {
			continue
		}
		if err := os.Remove(match); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("sweep stale frame %s: %w", name, err)
		}
	}
	return nil
}

// composeFrame runs the three-step pipeline for one stale frame: flatten the
// active cels, cover-scale into the panel, crop to the global window. The
// final crop lands directly at the published path; intermediates stay in the
// scratch dir.
func (p *Publisher) composeFrame(ctx context.Context, job frameJob, scratchDir, outputDir string, project *timeline.Project, panelWidth, bgHeight int, crop alphabox.Box) error {
	flat := filepath.Join(scratchDir, job.name+".flat.png")
	panel := filepath.Join(scratchDir, job.name+".panel.png")
	out := filepath.Join(outputDir, job.name)

	if err := p.engine.FlattenLayers(ctx, job.cels, flat, project.CanvasWidth, project.CanvasHeight); err != nil {
		return services.Wrap(services.ErrExternalTool, "publish", "flatten", job.name, err)
	}
	if err := p.engine.ScaleCropPanel(ctx, flat, panel, panelWidth, bgHeight); err != nil {
		return services.Wrap(services.ErrExternalTool, "publish", "panel scale", job.name, err)
	}
	if err := p.engine.CropFrame(ctx, panel, out, crop.X, crop.Y, crop.W, crop.H); err != nil {
		return services.Wrap(services.ErrExternalTool, "publish", "overlay crop", job.name, err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
