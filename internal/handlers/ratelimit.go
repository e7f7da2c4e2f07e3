package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/motoconnect/internal/analytics"
	"github.com/serroba/motoconnect/internal/messaging"
	"github.com/serroba/motoconnect/internal/ratelimit"
	"go.uber.org/zap"
)

// RateLimitHandler exposes limiter state and the denial log.
type RateLimitHandler struct {
	set           *ratelimit.Set
	denials       analytics.DenialReader
	publishDenial messaging.Publish[analytics.RateLimitExceededEvent]
	logger        *zap.Logger
}

// NewRateLimitHandler creates a new rate limit handler.
func NewRateLimitHandler(
	set *ratelimit.Set,
	denials analytics.DenialReader,
	publishDenial messaging.Publish[analytics.RateLimitExceededEvent],
	logger *zap.Logger,
) *RateLimitHandler {
	return &RateLimitHandler{
		set:           set,
		denials:       denials,
		publishDenial: publishDenial,
		logger:        logger,
	}
}

// Check consumes one request for the given preset and identifier and returns
// the decision. Callers enforce the decision themselves.
func (h *RateLimitHandler) Check(ctx context.Context, req *CheckRequest) (*CheckResponse, error) {
	identifier := req.Body.Identifier
	if identifier == "" {
		identifier = UnknownClient
	}

	preset := ratelimit.Preset(req.Body.Preset)

	decision, err := h.set.Check(ctx, preset, identifier)
	if errors.Is(err, ratelimit.ErrUnknownPreset) {
		return nil, huma.Error422UnprocessableEntity("unknown preset: " + req.Body.Preset)
	}

	if err != nil {
		h.logger.Error("rate limit check failed", zap.String("preset", req.Body.Preset), zap.Error(err))

		return nil, huma.Error500InternalServerError("rate limit check failed")
	}

	resp := &CheckResponse{}
	resp.Body.Allowed = decision.Allowed
	resp.Body.Limit = decision.Limit
	resp.Body.Remaining = decision.Remaining
	resp.Body.ResetAt = decision.ResetAt.UTC()

	if !decision.Allowed {
		now := h.set.Clock().Now()
		resp.Body.RetryAfter = int64(decision.RetryAfter(now).Seconds())

		meta := RequestMetaFromContext(ctx)
		event := analytics.NewRateLimitExceededEvent(string(preset), identifier, decision.Limit, decision.ResetAt, now)
		event.Method = http.MethodPost
		event.Path = checkPath
		event.RequestID = meta.RequestID
		event.UserAgent = meta.UserAgent

		if err := h.publishDenial(ctx, event); err != nil {
			h.logger.Error("failed to publish denial event",
				zap.String("id", event.ID),
				zap.Error(err),
			)
		}
	}

	return resp, nil
}

// Status reports the caller's standing against every preset without consuming quota.
func (h *RateLimitHandler) Status(ctx context.Context, _ *struct{}) (*StatusResponse, error) {
	identifier := RequestMetaFromContext(ctx).Identifier()

	resp := &StatusResponse{}
	resp.Body.Identifier = identifier
	resp.Body.Presets = make([]PresetStatus, 0, len(h.set.Presets()))

	for _, preset := range h.set.Presets() {
		decision, err := h.set.Peek(preset, identifier)
		if err != nil {
			h.logger.Error("failed to read limiter state",
				zap.String("preset", string(preset)),
				zap.Error(err),
			)

			return nil, huma.Error500InternalServerError("failed to read limiter state")
		}

		policy, _ := h.set.Policy(preset)

		resp.Body.Presets = append(resp.Body.Presets, PresetStatus{
			Preset:    string(preset),
			Limit:     decision.Limit,
			Remaining: decision.Remaining,
			WindowMS:  policy.Window.Milliseconds(),
			ResetAt:   decision.ResetAt.UTC(),
			Limited:   !decision.Allowed,
		})
	}

	return resp, nil
}

// Denials lists the most recent rejected requests.
func (h *RateLimitHandler) Denials(ctx context.Context, req *DenialsRequest) (*DenialsResponse, error) {
	events, err := h.denials.Recent(ctx, req.Limit)
	if err != nil {
		h.logger.Error("failed to read denial log", zap.Error(err))

		return nil, huma.Error503ServiceUnavailable("denial log unavailable")
	}

	resp := &DenialsResponse{}
	resp.Body.Denials = make([]Denial, 0, len(events))

	for _, e := range events {
		resp.Body.Denials = append(resp.Body.Denials, Denial{
			ID:         e.ID,
			Preset:     e.Preset,
			Identifier: e.Identifier,
			Method:     e.Method,
			Path:       e.Path,
			RequestID:  e.RequestID,
			Limit:      e.Limit,
			ResetAt:    e.ResetAt,
			OccurredAt: e.OccurredAt,
		})
	}

	return resp, nil
}
