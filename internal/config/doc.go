// Package config loads, normalizes, and validates Callsheet configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CALLSHEET_IMAGE_BASE_URL. The Config type centralizes every knob the daemon
// and CLI need, from manifest and cache locations to per-engine generation
// backends.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
