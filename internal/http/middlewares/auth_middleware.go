package middlewares

import (
	"net/http"
	"strings"

	"github.com/geocoder89/bloghub/internal/actorctx"
	"github.com/geocoder89/bloghub/internal/auth"
	"github.com/geocoder89/bloghub/internal/http/apierr"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenValidator interface {
	Validate(token string) (auth.Principal, error)
}

type AuthMiddleware struct {
	tokens TokenValidator
}

func NewAuthMiddleware(tokens TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Resolve attaches the principal for a valid bearer token and otherwise lets
// the request through unauthenticated. Routes decide whether that is enough.
func (m *AuthMiddleware) Resolve() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Next()
			return
		}

		p, err := m.tokens.Validate(raw)
		if err != nil {
			c.Next()
			return
		}

		c.Set(CtxPrincipal, p)
		c.Request = c.Request.WithContext(actorctx.WithPrincipal(c.Request.Context(), p))

		c.Next()
	}
}

// RequireAuth rejects requests that Resolve left unauthenticated.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if PrincipalFromContext(c) == nil {
			apierr.Abort(c, http.StatusUnauthorized, apierr.CodeUnauthenticated, "Missing, invalid or expired access token", nil)
			return
		}
		c.Next()
	}
}

// PrincipalFromContext returns nil for unauthenticated requests.
func PrincipalFromContext(c *gin.Context) *auth.Principal {
	v, ok := c.Get(CtxPrincipal)
	if !ok {
		return nil
	}
	p, ok := v.(auth.Principal)
	if !ok || p.ID == "" {
		return nil
	}
	return &p
}

func bearerToken(header string) (string, bool) {
	scheme, raw, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	return raw, true
}
