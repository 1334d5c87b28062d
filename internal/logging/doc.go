// Package logging assembles the structured slog loggers and formatting helpers
// used across celpress.
//
// It owns the configurable console/JSON handlers and centralizes level and
// output plumbing so every component emits events with the same shape. The
// watch loop's cycle outcomes (publish_ok, publish_error, watcher_busy) are
// single-line events tagged with FieldEventType. The package also provides a
// no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup.
package logging
