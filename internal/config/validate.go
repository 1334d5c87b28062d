package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validatePublish(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.ProjectDir) == "" {
		if strings.TrimSpace(c.Paths.SyncRoot) == "" || strings.TrimSpace(c.Paths.ProjectName) == "" {
			defaultPath, err := DefaultConfigPath()
			if err != nil {
				defaultPath = "~/.config/celpress/config.toml"
			}
			return fmt.Errorf("paths.project_dir (or paths.sync_root + paths.project_name) is required. Edit %s (create with 'celpress config init')", defaultPath)
		}
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if strings.TrimSpace(c.Paths.Background) == "" {
		return errors.New("paths.background must be set")
	}
	return nil
}

func (c *Config) validatePublish() error {
	if c.Publish.LeftRatio <= 0 || c.Publish.LeftRatio > 1 {
		return errors.New("publish.left_ratio must be between 0 (exclusive) and 1")
	}
	if c.Publish.AlphaThreshold < 0 || c.Publish.AlphaThreshold > 255 {
		return errors.New("publish.alpha_threshold must be between 0 and 255")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be %q or %q", "json", "console")
	}
	return nil
}
