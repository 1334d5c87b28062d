// Package config loads and validates the celpress TOML configuration.
//
// Load resolves the config path (flag value, CELPRESS_CONFIG, the user config
// dir, then a project-local celpress.toml), decodes it over the repository
// defaults, expands every path field, and validates the result. Components
// receive a fully normalized *Config and never re-read files or environment
// variables themselves.
package config
