package handlers

import "context"

type requestMetaKey struct{}

// RequestMeta holds HTTP request metadata used for limiting and denial analytics.
type RequestMeta struct {
	ClientIP  string
	UserAgent string
	Referrer  string
	RequestID string
}

// ContextWithRequestMeta adds request metadata to context.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext extracts request metadata from context.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	if v, ok := ctx.Value(requestMetaKey{}).(RequestMeta); ok {
		return v
	}

	return RequestMeta{}
}

// Identifier is the key the limiter counts against: the client IP, or
// "unknown" when none could be determined.
func (m RequestMeta) Identifier() string {
	if m.ClientIP == "" {
		return UnknownClient
	}

	return m.ClientIP
}

const UnknownClient = "unknown"
