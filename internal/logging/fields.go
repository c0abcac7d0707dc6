package logging

// Standardized attribute keys used across components.
const (
	FieldComponent = "component"

	FieldEventType = "event_type"

	FieldErrorHint = "error_hint"

	// FieldImpact carries the user-facing consequence of a warning.
	FieldImpact = "impact"

	// FieldSessionID identifies one playback request across log lines.
	FieldSessionID = "session_id"

	// FieldSource is the resolved source identifier of a scene document.
	FieldSource = "source"

	// FieldTier is the capability tier selected for a playback.
	FieldTier = "tier"

	FieldCacheKey = "cache_key"
)
