package models

import "context"

type requestMetaKey struct{}

// RequestMeta carries caller details through context so audit rows can
// record them without widening every service signature.
type RequestMeta struct {
	IpAddress string
	UserAgent string
}

// WithRequestMeta attaches caller details to a context.
func WithRequestMeta(ctx context.Context, meta *RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// GetRequestMeta returns the caller details, or "unknown" values if absent.
func GetRequestMeta(ctx context.Context) RequestMeta {
	if meta, ok := ctx.Value(requestMetaKey{}).(*RequestMeta); ok && meta != nil {
		return *meta
	}
	return RequestMeta{IpAddress: "unknown", UserAgent: "unknown"}
}
