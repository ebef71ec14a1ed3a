// Package daemon hosts the long-running callsheet process: it enforces
// single-instance execution through a lock file, runs the manifest watcher,
// and exposes a small HTTP API for health, status, and run history.
package daemon
