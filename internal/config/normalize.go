package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePublish()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.ProjectDir, err = expandPath(strings.TrimSpace(c.Paths.ProjectDir)); err != nil {
		return fmt.Errorf("paths.project_dir: %w", err)
	}
	if c.Paths.SyncRoot, err = expandPath(strings.TrimSpace(c.Paths.SyncRoot)); err != nil {
		return fmt.Errorf("paths.sync_root: %w", err)
	}
	c.Paths.ProjectName = strings.TrimSpace(c.Paths.ProjectName)
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.Background, err = expandPath(strings.TrimSpace(c.Paths.Background)); err != nil {
		return fmt.Errorf("paths.background: %w", err)
	}
	if c.Paths.RootDir, err = expandPath(strings.TrimSpace(c.Paths.RootDir)); err != nil {
		return fmt.Errorf("paths.root_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizePublish() {
	if c.Publish.LeftRatio == 0 {
		c.Publish.LeftRatio = defaultLeftRatio
	}
	if c.Publish.AlphaThreshold == 0 {
		c.Publish.AlphaThreshold = defaultAlphaThreshold
	}
	if c.Publish.ScanInterval <= 0 {
		c.Publish.ScanInterval = defaultScanInterval
	}
	if c.Publish.ScanInterval < minScanInterval {
		c.Publish.ScanInterval = minScanInterval
	}
	c.Publish.FFmpegBinary = strings.TrimSpace(c.Publish.FFmpegBinary)
	c.Publish.FFprobeBinary = strings.TrimSpace(c.Publish.FFprobeBinary)
}

func (c *Config) normalizeHistory() error {
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath()
	}
	var err error
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
