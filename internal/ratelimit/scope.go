package ratelimit

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// MetadataKey is the key used to store rate limit config in operation metadata.
const MetadataKey = "rateLimit"

// EndpointConfig defines per-endpoint rate limit configuration.
// This can be attached to Huma operations via the Metadata field.
type EndpointConfig struct {
	// Preset selects the named policy for the endpoint.
	//
	// If Preset is empty, the middleware falls back to method-based detection
	// (api for reads, create for writes).
	Preset Preset

	// Disabled skips rate limiting entirely for this endpoint.
	Disabled bool
}

// PresetResolver determines which preset applies to a given request.
type PresetResolver interface {
	Resolve(ctx huma.Context) Preset
}

// MethodPresetResolver resolves presets based on HTTP method.
// GET, HEAD, OPTIONS use the api preset.
// All other methods use the create preset.
type MethodPresetResolver struct{}

// NewMethodPresetResolver creates a new method-based preset resolver.
func NewMethodPresetResolver() *MethodPresetResolver {
	return &MethodPresetResolver{}
}

// Resolve returns the preset for the request based on its HTTP method.
func (r *MethodPresetResolver) Resolve(ctx huma.Context) Preset {
	switch ctx.Method() {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return PresetAPI
	default:
		return PresetCreate
	}
}

// OperationPresetResolver resolves presets by checking operation metadata first,
// then falling back to method-based detection.
type OperationPresetResolver struct {
	fallback *MethodPresetResolver
}

// NewOperationPresetResolver creates a new operation-aware preset resolver.
func NewOperationPresetResolver() *OperationPresetResolver {
	return &OperationPresetResolver{
		fallback: NewMethodPresetResolver(),
	}
}

// Resolve returns the preset for a request, checking operation metadata first.
func (r *OperationPresetResolver) Resolve(ctx huma.Context) Preset {
	if cfg := GetEndpointConfig(ctx); cfg != nil && cfg.Preset != "" {
		return cfg.Preset
	}

	return r.fallback.Resolve(ctx)
}

// GetEndpointConfig extracts the EndpointConfig from operation metadata, if present.
func GetEndpointConfig(ctx huma.Context) *EndpointConfig {
	op := ctx.Operation()
	if op == nil || op.Metadata == nil {
		return nil
	}

	cfg, ok := op.Metadata[MetadataKey].(EndpointConfig)
	if !ok {
		return nil
	}

	return &cfg
}
