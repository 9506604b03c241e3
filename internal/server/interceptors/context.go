package interceptors

import "context"

type contextKey struct{ name string }

var principalKey = contextKey{"principal"}

// Principal is the authenticated caller attached to the request context by
// the revocation gate.
type Principal struct {
	AccountID int64
	Username  string
	Email     string
	Role      string
}

// WithPrincipal returns a context carrying the authenticated principal.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the principal from ctx and true if set.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
