package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"celpress/internal/config"
	"celpress/internal/history"
	"celpress/internal/logging"
	"celpress/internal/publish"
	"celpress/internal/services"
	"celpress/internal/timeline"
)

// ErrAlreadyRunning reports that another watcher holds the instance lock.
// Callers treat it as a clean no-op, not a failure.
var ErrAlreadyRunning = errors.New("another celpress instance is already running")

// Publisher is the cycle surface the watcher drives, satisfied by
// publish.Publisher and by fakes in tests.
type Publisher interface {
	Publish(ctx context.Context, projectDir string) (*publish.Result, error)
}

// Watcher owns the poll loop and the single-instance lock.
type Watcher struct {
	cfg       *config.Config
	logger    *slog.Logger
	publisher Publisher
	hist      *history.Store
	lock      *flock.Flock
	interval  time.Duration

	// lastPublished is the change signature of the most recent successful
	// cycle. Failed cycles leave it untouched so the next tick retries.
	lastPublished timeline.ChangeSignature
	published     bool
}

// New wires a watcher. The history store may be nil when history is disabled.
func New(cfg *config.Config, pub Publisher, hist *history.Store, logger *slog.Logger) (*Watcher, error) {
	if cfg == nil || pub == nil || logger == nil {
		return nil, errors.New("watcher requires config, publisher, and logger")
	}
	return &Watcher{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "watcher"),
		publisher: pub,
		hist:      hist,
		lock:      flock.New(cfg.LockFilePath()),
		interval:  time.Duration(cfg.Publish.ScanInterval * float64(time.Second)),
	}, nil
}

// acquire takes the instance lock without blocking.
func (w *Watcher) acquire() error {
	ok, err := w.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire instance lock: %w", err)
	}
	if !ok {
		w.logger.Info("instance lock busy",
			logging.String(logging.FieldEventType, "watcher_busy"),
			logging.String("lock_file", w.lock.Path()),
		)
		return ErrAlreadyRunning
	}
	return nil
}

func (w *Watcher) release() {
	if err := w.lock.Unlock(); err != nil {
		w.logger.Warn("failed to release instance lock",
			logging.String(logging.FieldEventType, "lock_release_failed"),
			logging.Error(err),
		)
	}
}

// projectDir re-resolves the project location each tick so a project that
// appears under the sync root after startup is picked up without a restart.
func (w *Watcher) projectDir() string {
	if w.cfg.Paths.ProjectDir != "" {
		return w.cfg.Paths.ProjectDir
	}
	return timeline.ResolveProjectDir(w.cfg.Paths.SyncRoot, w.cfg.Paths.ProjectName)
}

// RunOnce acquires the lock, runs exactly one publish cycle, and releases
// the lock. The cycle error, if any, is returned to the caller.
func (w *Watcher) RunOnce(ctx context.Context) error {
	if err := w.acquire(); err != nil {
		return err
	}
	defer w.release()
	_, err := w.runCycle(ctx, w.projectDir())
	return err
}

// Run acquires the lock and polls until ctx is cancelled. Cycle failures are
// logged and retried on later ticks; only lock acquisition errors and context
// cancellation end the loop.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.acquire(); err != nil {
		return err
	}
	defer w.release()

	w.logger.Info("watcher started",
		logging.String(logging.FieldEventType, "watcher_started"),
		logging.String("project_dir", w.projectDir()),
		logging.Duration("interval", w.interval),
	)

	for {
		w.tick(ctx)
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopped",
				logging.String(logging.FieldEventType, "watcher_stopped"),
			)
			return nil
		case <-time.After(w.interval):
		}
	}
}

// tick runs at most one cycle: fingerprint the project, publish when the
// fingerprint differs from the last successful cycle.
func (w *Watcher) tick(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	default:
	}

	projectDir := w.projectDir()
	sig := timeline.ProjectSignature(projectDir)
	if w.published && sig == w.lastPublished {
		return
	}

	if _, err := w.runCycle(ctx, projectDir); err != nil {
		// Leave lastPublished alone so the next tick retries the cycle.
		return
	}
	w.lastPublished = sig
	w.published = true
}

// runCycle executes one publish cycle with a fresh cycle ID, logs the
// structured outcome line, and records the cycle in history when enabled.
func (w *Watcher) runCycle(ctx context.Context, projectDir string) (*publish.Result, error) {
	cycleID := uuid.NewString()
	started := time.Now()
	logger := w.logger.With(logging.String(logging.FieldCycleID, cycleID))

	logger.Info("publish cycle started",
		logging.String(logging.FieldEventType, "cycle_start"),
		logging.String("project_dir", projectDir),
	)

	result, err := w.publisher.Publish(ctx, projectDir)
	finished := time.Now()
	if err != nil {
		logger.Error("publish cycle failed",
			logging.String(logging.FieldEventType, "publish_error"),
			logging.Duration("elapsed", finished.Sub(started)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, errorHint(err)),
		)
		w.record(ctx, history.Cycle{
			CycleID:    cycleID,
			StartedAt:  started,
			FinishedAt: finished,
			Status:     history.StatusError,
			Reason:     err.Error(),
		})
		return nil, err
	}

	logger.Info("publish cycle complete",
		logging.String(logging.FieldEventType, "publish_ok"),
		logging.Duration("elapsed", finished.Sub(started)),
		logging.Int("frame_count", result.FrameCount),
		logging.Int("rebuilt_frames", result.RebuiltFrames),
		logging.Float64("fps", result.FPS),
		logging.Any("changed_inputs", trimList(result.ChangedInputs, 10)),
		logging.Any("changed_frames", trimList(result.ChangedFrames, 10)),
	)
	w.record(ctx, history.Cycle{
		CycleID:       cycleID,
		StartedAt:     started,
		FinishedAt:    finished,
		Status:        history.StatusOK,
		FPS:           result.FPS,
		FrameCount:    result.FrameCount,
		RebuiltFrames: result.RebuiltFrames,
		ChangedInputs: len(result.ChangedInputs),
		ChangedFrames: len(result.ChangedFrames),
	})
	return result, nil
}

func (w *Watcher) record(ctx context.Context, cycle history.Cycle) {
	if w.hist == nil {
		return
	}
	if err := w.hist.Record(ctx, cycle); err != nil {
		w.logger.Warn("failed to record cycle history",
			logging.String(logging.FieldEventType, "history_record_failed"),
			logging.Error(err),
		)
	}
}

func errorHint(err error) string {
	switch {
	case errors.Is(err, services.ErrConfiguration):
		return "check project layout and config paths"
	case errors.Is(err, services.ErrExternalTool):
		return "check ffmpeg installation and the captured tool output"
	default:
		return "transient failure; the next tick retries"
	}
}

// trimList bounds a list for log lines, replacing the tail with a count.
func trimList(items []string, max int) []string {
	if len(items) <= max {
		return items
	}
	trimmed := make([]string, max+1)
	copy(trimmed, items[:max])
	trimmed[max] = fmt.Sprintf("(+%d more)", len(items)-max)
	return trimmed
}
