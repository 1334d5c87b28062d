package config

import (
	"os"
	"path/filepath"
)

const (
	defaultLogDir         = "~/.local/share/celpress/logs"
	defaultLogFormat      = "json"
	defaultLogLevel       = "info"
	defaultLeftRatio      = 0.60
	defaultAlphaThreshold = 8
	defaultScanInterval   = 1.0
	minScanInterval       = 0.2
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		Publish: Publish{
			LeftRatio:      defaultLeftRatio,
			AlphaThreshold: defaultAlphaThreshold,
			ScanInterval:   defaultScanInterval,
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath(),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultHistoryPath() string {
	if base, ok := os.LookupEnv("XDG_STATE_HOME"); ok && base != "" {
		return filepath.Join(base, "celpress", "history.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.local/state/celpress/history.db"
	}
	return filepath.Join(home, ".local", "state", "celpress", "history.db")
}
