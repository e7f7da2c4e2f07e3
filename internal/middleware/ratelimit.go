package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/motoconnect/internal/analytics"
	"github.com/serroba/motoconnect/internal/handlers"
	"github.com/serroba/motoconnect/internal/messaging"
	"github.com/serroba/motoconnect/internal/ratelimit"
	"go.uber.org/zap"
)

const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"
)

// RateLimiter returns a Huma middleware that applies preset-based rate limiting.
// The client IP from RequestMeta is the identifier; the preset comes from the
// resolver. Operations can opt out through ratelimit.MetadataKey with
// Disabled set.
func RateLimiter(
	api huma.API,
	set *ratelimit.Set,
	resolver ratelimit.PresetResolver,
	publishDenial messaging.Publish[analytics.RateLimitExceededEvent],
	logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		path := getOperationPath(ctx)

		if cfg := ratelimit.GetEndpointConfig(ctx); cfg != nil && cfg.Disabled {
			logger.Debug("rate limiting disabled for endpoint",
				zap.String("path", path), zap.String("method", ctx.Method()))
			next(ctx)

			return
		}

		meta := handlers.RequestMetaFromContext(ctx.Context())
		identifier := meta.Identifier()
		preset := resolver.Resolve(ctx)

		decision, err := set.Check(ctx.Context(), preset, identifier)
		if err != nil {
			logger.Error("rate limit check failed",
				zap.String("path", path),
				zap.String("preset", string(preset)),
				zap.Error(err),
			)

			msg := "internal server error"
			if errors.Is(err, ratelimit.ErrUnknownPreset) {
				msg = "rate limit misconfigured"
			}

			_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, msg, err)

			return
		}

		setDecisionHeaders(ctx, decision)

		if !decision.Allowed {
			now := set.Clock().Now()
			retryAfter := decision.RetryAfter(now)

			ctx.SetHeader(HeaderRetryAfter, strconv.FormatInt(int64(retryAfter.Seconds()), 10))

			logger.Warn("rate limit exceeded",
				zap.String("path", path),
				zap.String("method", ctx.Method()),
				zap.String("preset", string(preset)),
				zap.String("client_ip", identifier),
				zap.String("request_id", meta.RequestID),
				zap.Int64("limit", decision.Limit),
				zap.Time("reset_at", decision.ResetAt),
			)

			event := analytics.NewRateLimitExceededEvent(string(preset), identifier, decision.Limit, decision.ResetAt, now)
			event.Method = ctx.Method()
			event.Path = path
			event.RequestID = meta.RequestID
			event.UserAgent = meta.UserAgent

			if err := publishDenial(ctx.Context(), event); err != nil {
				logger.Error("failed to publish denial event",
					zap.String("id", event.ID),
					zap.Error(err),
				)
			}

			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests,
				"rate limit exceeded: retry in "+retryAfter.String())

			return
		}

		next(ctx)
	}
}

func setDecisionHeaders(ctx huma.Context, decision ratelimit.Decision) {
	ctx.SetHeader(HeaderLimit, strconv.FormatInt(decision.Limit, 10))
	ctx.SetHeader(HeaderRemaining, strconv.FormatInt(decision.Remaining, 10))
	ctx.SetHeader(HeaderReset, strconv.FormatInt(decision.ResetAt.Unix(), 10))
}

// getOperationPath extracts the route template from the operation, falling back to the URL path.
func getOperationPath(ctx huma.Context) string {
	if op := ctx.Operation(); op != nil {
		return op.Path
	}

	u := ctx.URL()

	return u.Path
}
