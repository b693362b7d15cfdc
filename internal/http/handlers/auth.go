package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/bloghub/internal/domain/user"
	"github.com/geocoder89/bloghub/internal/http/middlewares"
	"github.com/geocoder89/bloghub/internal/security"
	"github.com/gin-gonic/gin"
)

type UserStore interface {
	Create(ctx context.Context, email, username, passwordHash string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
}

type TokenIssuer interface {
	Issue(subjectID, email, role string) (string, error)
	TTL() time.Duration
}

type AuthHandler struct {
	users  UserStore
	tokens TokenIssuer
}

func NewAuthHandler(users UserStore, tokens TokenIssuer) *AuthHandler {
	return &AuthHandler{
		users:  users,
		tokens: tokens,
	}
}

type TokenResponse struct {
	AccessToken string       `json:"accessToken"`
	TokenType   string       `json:"tokenType"`
	ExpiresIn   int64        `json:"expiresIn"`
	User        user.Summary `json:"user"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		if errors.Is(err, security.ErrPasswordTooLong) {
			RespondBadRequest(ctx, "Invalid request body", gin.H{"fields": []FieldError{{
				Field:   "password",
				Rule:    "maxbytes",
				Param:   "72",
				Message: validationMessage("maxbytes", "72"),
			}}})
			return
		}
		RespondInternal(ctx, "Could not create user", err)
		return
	}

	cctx, cancel := storeCtx(ctx, 3*time.Second)
	defer cancel()

	u, err := h.users.Create(cctx, req.Email, req.Username, hash)

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondConflict(ctx, "Email is already in use.")
			return
		}

		RespondInternal(ctx, "Could not create user", err)
		return
	}

	h.respondWithToken(ctx, http.StatusCreated, u)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for DB lookup
	cctx, cancel := storeCtx(ctx, 2*time.Second)
	defer cancel()

	found, err := h.users.GetByEmail(cctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			security.BurnCompare(req.Password)
			RespondUnauthenticated(ctx, "Email or password is incorrect.")
			return
		}
		RespondInternal(ctx, "Could not log in", err)
		return
	}

	err = security.CheckPassword(found.PasswordHash, req.Password)

	if err != nil {
		if errors.Is(err, security.ErrPasswordMismatch) {
			RespondUnauthenticated(ctx, "Email or password is incorrect.")
			return
		}
		RespondInternal(ctx, "Could not log in", err)
		return
	}

	h.respondWithToken(ctx, http.StatusOK, found)
}

// Me returns the caller's stored profile. A token whose subject no longer
// resolves to a user is treated as unauthenticated.
func (h *AuthHandler) Me(ctx *gin.Context) {
	principal := middlewares.PrincipalFromContext(ctx)
	if principal == nil {
		RespondUnauthenticated(ctx, "Authentication required")
		return
	}

	cctx, cancel := storeCtx(ctx, 2*time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, principal.ID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondUnauthenticated(ctx, "Account no longer exists")
			return
		}
		RespondInternal(ctx, "Could not load profile", err)
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *AuthHandler) respondWithToken(ctx *gin.Context, status int, u user.User) {
	token, err := h.tokens.Issue(u.ID, u.Email, u.Role)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token", err)
		return
	}

	ctx.JSON(status, TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.tokens.TTL().Seconds()),
		User:        u.Summary(),
	})
}

func storeCtx(ctx *gin.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request.Context(), d)
}
