package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"celpress/internal/config"
	"celpress/internal/history"
	"celpress/internal/logging"
	"celpress/internal/publish"
	"celpress/internal/testsupport"
)

type fakePublisher struct {
	calls int
	errs  []error
}

func (f *fakePublisher) Publish(context.Context, string) (*publish.Result, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &publish.Result{FrameCount: 3, FPS: 8, RebuiltFrames: 1}, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return testsupport.NewConfig(t)
}

func newTestWatcher(t *testing.T, cfg *config.Config, pub Publisher, hist *history.Store) *Watcher {
	t.Helper()
	w, err := New(cfg, pub, hist, logging.NewNop())
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	return w
}

func TestRunOnceBusyReturnsErrAlreadyRunning(t *testing.T) {
	cfg := testConfig(t)
	holder := flock.New(cfg.LockFilePath())
	ok, err := holder.TryLock()
	if err != nil || !ok {
		t.Fatalf("pre-acquire lock: ok=%v err=%v", ok, err)
	}
	defer holder.Unlock()

	pub := &fakePublisher{}
	w := newTestWatcher(t, cfg, pub, nil)
	if err := w.RunOnce(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("err = %v, want ErrAlreadyRunning", err)
	}
	if pub.calls != 0 {
		t.Fatalf("publish ran despite busy lock")
	}
}

func TestRunOnceReleasesLock(t *testing.T) {
	cfg := testConfig(t)
	w := newTestWatcher(t, cfg, &fakePublisher{}, nil)
	if err := w.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if err := w.RunOnce(context.Background()); err != nil {
		t.Fatalf("second run once: %v", err)
	}
}

func TestTickSkipsUnchangedProject(t *testing.T) {
	cfg := testConfig(t)
	if err := os.WriteFile(filepath.Join(cfg.Paths.ProjectDir, "data.txt"), []byte("canvasWidth:100\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	pub := &fakePublisher{}
	w := newTestWatcher(t, cfg, pub, nil)
	ctx := context.Background()

	w.tick(ctx)
	w.tick(ctx)
	if pub.calls != 1 {
		t.Fatalf("publish calls = %d, want 1 for unchanged project", pub.calls)
	}
}

func TestTickRepublishesOnChange(t *testing.T) {
	cfg := testConfig(t)
	first := filepath.Join(cfg.Paths.ProjectDir, "data.txt")
	if err := os.WriteFile(first, []byte("canvasWidth:100\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	pub := &fakePublisher{}
	w := newTestWatcher(t, cfg, pub, nil)
	ctx := context.Background()

	w.tick(ctx)
	// A new tracked file changes the project fingerprint.
	if err := os.WriteFile(filepath.Join(cfg.Paths.ProjectDir, "camera.txt"), []byte("x\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	w.tick(ctx)
	if pub.calls != 2 {
		t.Fatalf("publish calls = %d, want 2 after change", pub.calls)
	}
}

func TestTickRetriesAfterFailure(t *testing.T) {
	cfg := testConfig(t)
	if err := os.WriteFile(filepath.Join(cfg.Paths.ProjectDir, "data.txt"), []byte("canvasWidth:100\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	pub := &fakePublisher{errs: []error{errors.New("ffmpeg exploded"), nil}}
	w := newTestWatcher(t, cfg, pub, nil)
	ctx := context.Background()

	w.tick(ctx)
	w.tick(ctx)
	w.tick(ctx)
	if pub.calls != 2 {
		t.Fatalf("publish calls = %d, want 2 (retry then settle)", pub.calls)
	}
}

func TestRunOnceRecordsHistory(t *testing.T) {
	cfg := testConfig(t)
	store, err := history.Open(filepath.Join(cfg.Paths.LogDir, "history.db"))
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer store.Close()

	w := newTestWatcher(t, cfg, &fakePublisher{}, store)
	if err := w.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}

	cycles, err := store.Recent(context.Background(), 5)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(cycles) != 1 || cycles[0].Status != history.StatusOK || cycles[0].FrameCount != 3 {
		t.Fatalf("unexpected cycles: %+v", cycles)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Publish.ScanInterval = 0.2
	pub := &fakePublisher{}
	w := newTestWatcher(t, cfg, pub, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
	if pub.calls == 0 {
		t.Fatal("expected at least one publish attempt")
	}
}
