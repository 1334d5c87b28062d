package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"celpress/internal/config"
	"celpress/internal/daemon"
	"celpress/internal/history"
	"celpress/internal/logging"
	"celpress/internal/publish"
	"celpress/internal/services/ffmpeg"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// newLogger builds the process logger writing to stdout and the run log file.
func newLogger(cfg *config.Config) (*slog.Logger, error) {
	logPath := filepath.Join(cfg.Paths.LogDir, "celpress.log")
	logger, err := logging.New(logging.Options{
		Level:            cfg.Logging.Level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

// newWatcher assembles the publish pipeline behind a watcher. The returned
// cleanup closes the history store when one was opened.
func newWatcher(cfg *config.Config, logger *slog.Logger) (*daemon.Watcher, func(), error) {
	client, err := ffmpeg.New(cfg.FFmpegBinary(), cfg.FFprobeBinary())
	if err != nil {
		return nil, nil, fmt.Errorf("init raster engine: %w", err)
	}
	publisher := publish.NewPublisher(cfg, client, logger)

	cleanup := func() {}
	var hist *history.Store
	if cfg.History.Enabled {
		hist, err = history.Open(cfg.History.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open history store: %w", err)
		}
		cleanup = func() { _ = hist.Close() }
	}

	watcher, err := daemon.New(cfg, publisher, hist, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return watcher, cleanup, nil
}
