package middleware

import (
	"net"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/motoconnect/internal/handlers"
)

const HeaderRequestID = "X-Request-ID"

// maxRequestIDLength bounds client supplied request IDs.
const maxRequestIDLength = 128

// RequestMeta is a middleware that adds client IP, user-agent, referrer and a
// request ID to the request context. The request ID is echoed back in
// X-Request-ID.
func RequestMeta(_ huma.API, newID func() string, trustProxy bool) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		requestID := ctx.Header(HeaderRequestID)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = newID()
		}

		meta := handlers.RequestMeta{
			ClientIP:  ClientIP(ctx, trustProxy),
			UserAgent: ctx.Header("User-Agent"),
			Referrer:  ctx.Header("Referer"),
			RequestID: requestID,
		}

		ctx.SetHeader(HeaderRequestID, requestID)

		newCtx := handlers.ContextWithRequestMeta(ctx.Context(), meta)
		ctx = huma.WithContext(ctx, newCtx)

		next(ctx)
	}
}

// ClientIP extracts the client IP from the request. Proxy headers are only
// honoured when trustProxy is set.
func ClientIP(ctx huma.Context, trustProxy bool) string {
	if trustProxy {
		// first hop is the original client
		if xff := ctx.Header("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}

		if xri := strings.TrimSpace(ctx.Header("X-Real-IP")); xri != "" {
			return xri
		}
	}

	addr := ctx.RemoteAddr()

	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}

	return host
}
