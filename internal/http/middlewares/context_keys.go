package middlewares

import "github.com/geocoder89/bloghub/internal/http/apierr"

// gin context keys
const (
	CtxRequestID = apierr.CtxRequestID
	CtxPrincipal = "auth.principal"
)
