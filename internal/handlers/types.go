package handlers

import "time"

// PresetStatus is the caller's standing against one preset.
type PresetStatus struct {
	Preset    string    `doc:"Preset name"                                json:"preset"`
	Limit     int64     `doc:"Requests allowed per window"                json:"limit"`
	Remaining int64     `doc:"Requests left in the current window"        json:"remaining"`
	WindowMS  int64     `doc:"Window length in milliseconds"              json:"windowMs"`
	ResetAt   time.Time `doc:"When the current window ends"               json:"resetAt"`
	Limited   bool      `doc:"Whether the next request would be rejected" json:"limited"`
}

// StatusResponse lists the caller's standing across all presets.
type StatusResponse struct {
	Body struct {
		Identifier string         `doc:"Client identifier used for limiting" json:"identifier"`
		Presets    []PresetStatus `json:"presets"`
	}
}

// DenialsRequest selects how many recent denials to return.
type DenialsRequest struct {
	Limit int `default:"50" maximum:"500" minimum:"1" query:"limit"`
}

// Denial is a single rejected request.
type Denial struct {
	ID         string    `json:"id"`
	Preset     string    `json:"preset"`
	Identifier string    `json:"identifier"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	RequestID  string    `json:"requestId,omitempty"`
	Limit      int64     `json:"limit"`
	ResetAt    time.Time `json:"resetAt"`
	OccurredAt time.Time `json:"occurredAt"`
}

// DenialsResponse lists recent denials, newest first.
type DenialsResponse struct {
	Body struct {
		Denials []Denial `json:"denials"`
	}
}

// CheckRequest consumes one request of a preset on behalf of an identifier.
type CheckRequest struct {
	Body struct {
		Preset     string `doc:"Preset to count against"    example:"auth"        json:"preset"     minLength:"1"`
		Identifier string `doc:"Client identifier to count" example:"203.0.113.7" json:"identifier"`
	}
}

// CheckResponse is the limiter decision for a consumed request.
type CheckResponse struct {
	Body struct {
		Allowed    bool      `json:"allowed"`
		Limit      int64     `json:"limit"`
		Remaining  int64     `json:"remaining"`
		ResetAt    time.Time `json:"resetAt"`
		RetryAfter int64     `doc:"Seconds until the window resets, set when denied" json:"retryAfter,omitempty"`
	}
}
