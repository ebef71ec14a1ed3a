// Package media defines the generation contract shared by every backend:
// immutable request and result value types for the five media kinds (speech,
// image, music, sound effects, video assembly), deterministic cache-key
// derivation, request validation, the provider interfaces, and the error
// taxonomy used to classify backend failures.
//
// The orchestrator treats all generation uniformly through these interfaces;
// backend-specific complexity lives behind them in internal/providers.
package media
