package goIdentity

import "context"

type contextKey uint8

const clientIPKey contextKey = iota

// WithClientIP attaches the caller's network address to ctx. Login uses it
// for per-IP rate limiting and audit events; absent an IP those features
// degrade gracefully rather than fail.
func WithClientIP(ctx context.Context, ip string) context.Context {
	if ip == "" {
		return ctx
	}
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIPFromContext extracts the address stored by WithClientIP.
func ClientIPFromContext(ctx context.Context) (string, bool) {
	ip, ok := ctx.Value(clientIPKey).(string)
	return ip, ok
}

func clientIP(ctx context.Context) string {
	ip, _ := ClientIPFromContext(ctx)
	return ip
}
