package ratelimit

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// PolicyFile is the on-disk form of preset overrides.
//
//	presets:
//	  auth:
//	    window_ms: 900000
//	    max_requests: 5
type PolicyFile struct {
	Presets map[Preset]PresetEntry `yaml:"presets"`
}

// PresetEntry is one preset entry of a PolicyFile. Omitted keys keep the
// value of base.
type PresetEntry struct {
	WindowMS    *int64 `yaml:"window_ms"`
	MaxRequests *int64 `yaml:"max_requests"`
}

// Apply returns base with the keys set in the entry replaced.
func (e PresetEntry) Apply(base Policy) Policy {
	if e.WindowMS != nil {
		base.Window = time.Duration(*e.WindowMS) * time.Millisecond
	}

	if e.MaxRequests != nil {
		base.MaxRequests = *e.MaxRequests
	}

	return base
}

// LoadPolicies returns the default presets overlaid with the presets in path.
// An empty path returns the defaults. Every resulting policy is validated.
func LoadPolicies(path string) (map[Preset]Policy, error) {
	policies := DefaultPolicies()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read presets file: %w", err)
		}

		var file PolicyFile
		if err := yaml.Unmarshal(b, &file); err != nil {
			return nil, fmt.Errorf("parse presets file: %w", err)
		}

		for preset, entry := range file.Presets {
			policies[preset] = entry.Apply(policies[preset])
		}
	}

	for _, preset := range sortedPresets(policies) {
		if err := policies[preset].Validate(); err != nil {
			return nil, fmt.Errorf("preset %q: %w", preset, err)
		}
	}

	return policies, nil
}
