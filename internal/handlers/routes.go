package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/motoconnect/internal/ratelimit"
)

const checkPath = "/v1/ratelimit/check"

// RegisterRoutes registers the public rate limit routes.
func RegisterRoutes(api huma.API, h *RateLimitHandler) {
	// Reading your own status must work even while limited
	huma.Register(api, huma.Operation{
		OperationID: "get-ratelimit-status",
		Method:      http.MethodGet,
		Path:        "/v1/ratelimit/status",
		Summary:     "Get rate limit status",
		Description: "Reports the caller's remaining quota for every preset without consuming any.",
		Tags:        []string{"Rate limits"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Disabled: true},
		},
	}, h.Status)
}

// RegisterAdminRoutes registers the routes that act on or reveal other clients.
// They are meant for trusted callers and are only mounted when explicitly enabled.
func RegisterAdminRoutes(api huma.API, h *RateLimitHandler) {
	// The caller is counted against create in addition to the identifier it names
	huma.Register(api, huma.Operation{
		OperationID: "check-ratelimit",
		Method:      http.MethodPost,
		Path:        checkPath,
		Summary:     "Consume a request",
		Description: "Counts one request against a preset for an identifier and returns the decision.",
		Tags:        []string{"Rate limits"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Preset: ratelimit.PresetCreate},
		},
	}, h.Check)

	huma.Register(api, huma.Operation{
		OperationID: "list-ratelimit-denials",
		Method:      http.MethodGet,
		Path:        "/v1/ratelimit/denials",
		Summary:     "List recent denials",
		Description: "Lists the most recent requests rejected by the rate limiter, newest first.",
		Tags:        []string{"Rate limits"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Preset: ratelimit.PresetAPI},
		},
	}, h.Denials)
}
