package actorctx

import (
	"context"

	"github.com/geocoder89/bloghub/internal/auth"
)

type ctxKey string

const keyPrincipal ctxKey = "principal"

func WithPrincipal(ctx context.Context, p auth.Principal) context.Context {
	return context.WithValue(ctx, keyPrincipal, p)
}

// PrincipalFrom returns nil when the request was not authenticated.
func PrincipalFrom(ctx context.Context) *auth.Principal {
	p, ok := ctx.Value(keyPrincipal).(auth.Principal)
	if !ok || p.ID == "" {
		return nil
	}
	return &p
}

func UserIDFrom(ctx context.Context) (string, bool) {
	p := PrincipalFrom(ctx)
	if p == nil {
		return "", false
	}
	return p.ID, true
}
