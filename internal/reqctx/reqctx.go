// Package reqctx carries caller identity through the request scope. The
// transport attaches identity once at the boundary; services and stores read
// it without threading extra parameters through every call.
//
// Identity is context-scoped, never process-global. Reads outside an active
// request return zero values.
package reqctx

import "context"

// Identity is the opaque caller identity supplied by the transport.
type Identity struct {
	UserID   string // opaque identifier (UUID string in current deployments)
	UserName string // display name
}

type ctxKey int

const (
	identityKey ctxKey = iota
	tokenKey
)

// WithIdentity returns a context carrying the caller identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// WithToken returns a context carrying the opaque auth token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// IdentityFrom returns the caller identity, or the zero Identity when the
// context carries none.
func IdentityFrom(ctx context.Context) Identity {
	id, _ := ctx.Value(identityKey).(Identity)
	return id
}

// UserID returns the caller's opaque user id, or "" outside a request.
func UserID(ctx context.Context) string {
	return IdentityFrom(ctx).UserID
}

// UserName returns the caller's display name, or "" outside a request.
func UserName(ctx context.Context) string {
	return IdentityFrom(ctx).UserName
}

// Token returns the opaque auth token, or "" outside a request.
func Token(ctx context.Context) string {
	tok, _ := ctx.Value(tokenKey).(string)
	return tok
}
