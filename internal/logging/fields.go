package logging

// Standardized attribute keys shared across components so log consumers can
// filter on them reliably.
const (
	FieldComponent = "component"
	FieldProjectID = "project_id"
	FieldRunID     = "run_id"
	FieldPhase     = "phase"
	FieldProvider  = "provider"
	FieldEventType = "event_type"
	FieldErrorHint = "error_hint"
)
