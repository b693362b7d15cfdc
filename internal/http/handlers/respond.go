package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/bloghub/internal/http/apierr"
	"github.com/geocoder89/bloghub/internal/policy"
	"github.com/gin-gonic/gin"
)

const (
	CodeInvalidInput    = apierr.CodeInvalidInput
	CodeUnauthenticated = apierr.CodeUnauthenticated
	CodeForbidden       = apierr.CodeForbidden
	CodeNotFound        = apierr.CodeNotFound
	CodeConflict        = apierr.CodeConflict
	CodeInternal        = apierr.CodeInternal
)

type APIError = apierr.APIError

func requestIDFrom(ctx *gin.Context) string {
	return apierr.RequestID(ctx)
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	apierr.Abort(ctx, status, code, message, details)
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, CodeInvalidInput, message, details)
}

func RespondUnauthenticated(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusUnauthorized, CodeUnauthenticated, message, nil)
}

func RespondForbidden(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusForbidden, CodeForbidden, message, nil)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, CodeNotFound, message, nil)
}

func RespondConflict(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusConflict, CodeConflict, message, nil)
}

// RespondInternal logs the cause and answers with a generic message; store
// errors never reach the client.
func RespondInternal(ctx *gin.Context, message string, cause error) {
	slog.Default().ErrorContext(ctx.Request.Context(), message,
		"err", cause,
		"request_id", requestIDFrom(ctx),
	)
	RespondError(ctx, http.StatusInternalServerError, CodeInternal, message, nil)
}

// RespondDenied translates a policy deny into 401 or 403.
func RespondDenied(ctx *gin.Context, d policy.Decision) {
	switch err := d.Err(); {
	case errors.Is(err, policy.ErrUnauthenticated):
		RespondUnauthenticated(ctx, "Authentication required")
	default:
		RespondForbidden(ctx, "You can only modify your own posts")
	}
}
