package audit

import "context"

type clientKey struct{}

// Client identifies the caller of an audited request.
type Client struct {
	IP        string
	UserAgent string
}

// ContextWithClient attaches the caller's address and user agent to ctx.
func ContextWithClient(ctx context.Context, ip, userAgent string) context.Context {
	return context.WithValue(ctx, clientKey{}, Client{IP: ip, UserAgent: userAgent})
}

// ClientFromContext returns the client stored by ContextWithClient, or the zero Client.
func ClientFromContext(ctx context.Context) Client {
	c, _ := ctx.Value(clientKey{}).(Client)
	return c
}
