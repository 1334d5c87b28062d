// Package daemon runs the publish watcher: a single-instance poll loop that
// fingerprints the project directory each tick and triggers a publish cycle
// whenever the fingerprint differs from the last successful one. An advisory file lock
// keeps concurrent watchers and one-shot runs from racing on the output tree.
package daemon
