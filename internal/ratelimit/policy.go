package ratelimit

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrInvalidPolicy is returned when a policy has a non-positive window or limit.
var ErrInvalidPolicy = errors.New("invalid rate limit policy")

// ErrUnknownPreset is returned when no policy is configured for a preset.
var ErrUnknownPreset = errors.New("unknown rate limit preset")

// Policy defines one fixed-window rate limit.
type Policy struct {
	Window      time.Duration
	MaxRequests int64
}

// Validate reports ErrInvalidPolicy when the window or the limit is not positive.
func (p Policy) Validate() error {
	if p.Window <= 0 {
		return fmt.Errorf("%w: window must be positive, got %s", ErrInvalidPolicy, p.Window)
	}

	if p.MaxRequests <= 0 {
		return fmt.Errorf("%w: max requests must be positive, got %d", ErrInvalidPolicy, p.MaxRequests)
	}

	return nil
}

func (p Policy) String() string {
	return fmt.Sprintf("%d/%s", p.MaxRequests, p.Window)
}

// Preset names a policy applied to a class of endpoints.
type Preset string

const (
	// PresetAuth applies to sign-in and identity provider callbacks.
	PresetAuth Preset = "auth"
	// PresetAPI applies to read operations (GET, HEAD, OPTIONS).
	PresetAPI Preset = "api"
	// PresetCreate applies to write operations (POST, PUT, PATCH, DELETE).
	PresetCreate Preset = "create"
)

// DefaultPolicies returns the built-in preset table.
func DefaultPolicies() map[Preset]Policy {
	return map[Preset]Policy{
		PresetAuth:   {Window: 15 * time.Minute, MaxRequests: 5},
		PresetAPI:    {Window: time.Minute, MaxRequests: 100},
		PresetCreate: {Window: time.Minute, MaxRequests: 10},
	}
}

func sortedPresets(policies map[Preset]Policy) []Preset {
	presets := make([]Preset, 0, len(policies))
	for preset := range policies {
		presets = append(presets, preset)
	}

	sort.Slice(presets, func(i, j int) bool { return presets[i] < presets[j] })

	return presets
}
