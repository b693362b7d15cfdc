package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/bloghub/internal/auth"
	"github.com/geocoder89/bloghub/internal/domain/post"
	"github.com/geocoder89/bloghub/internal/http/middlewares"
	"github.com/geocoder89/bloghub/internal/notifications"
	"github.com/geocoder89/bloghub/internal/policy"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PostStore interface {
	Create(ctx context.Context, title, content, authorID string) (post.Post, error)
	GetByID(ctx context.Context, id string) (post.Post, error)
	ListPublished(ctx context.Context) ([]post.Post, error)
	ListByAuthor(ctx context.Context, authorID string) ([]post.Post, error)
	Save(ctx context.Context, p post.Post) (post.Post, error)
	Delete(ctx context.Context, p post.Post) error
}

// DecisionObserver records authorization outcomes, e.g. as metrics.
type DecisionObserver interface {
	ObserveDecision(action string, allowed bool, reason string)
}

type PostsHandler struct {
	posts    PostStore
	notifier notifications.Notifier
	observer DecisionObserver
}

type PostsOption func(*PostsHandler)

func WithNotifier(n notifications.Notifier) PostsOption {
	return func(h *PostsHandler) { h.notifier = n }
}

func WithDecisionObserver(o DecisionObserver) PostsOption {
	return func(h *PostsHandler) { h.observer = o }
}

func NewPostsHandler(posts PostStore, opts ...PostsOption) *PostsHandler {
	h := &PostsHandler{posts: posts}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type listResponse struct {
	Items []post.Post `json:"items"`
	Count int         `json:"count"`
}

func (h *PostsHandler) CreatePost(ctx *gin.Context) {
	principal := middlewares.PrincipalFromContext(ctx)
	if !h.authorize(ctx, principal, policy.ActionCreate, nil) {
		return
	}

	var req post.CreateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := storeCtx(ctx, 2*time.Second)
	defer cancel()

	// author always comes from the token, never from the body
	p, err := h.posts.Create(cctx, req.Title, req.Content, principal.ID)

	if err != nil {
		RespondInternal(ctx, "Could not create post", err)
		return
	}

	ctx.JSON(http.StatusCreated, p)
}

func (h *PostsHandler) ListPosts(ctx *gin.Context) {
	if !h.authorize(ctx, middlewares.PrincipalFromContext(ctx), policy.ActionList, nil) {
		return
	}

	cctx, cancel := storeCtx(ctx, 2*time.Second)
	defer cancel()

	posts, err := h.posts.ListPublished(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not list posts", err)
		return
	}

	posts = onlyPublished(posts)
	RespondJSONWithETag(ctx, http.StatusOK, listResponse{Items: posts, Count: len(posts)})
}

func (h *PostsHandler) ListMyPosts(ctx *gin.Context) {
	principal := middlewares.PrincipalFromContext(ctx)
	if !h.authorize(ctx, principal, policy.ActionListOwn, nil) {
		return
	}

	cctx, cancel := storeCtx(ctx, 2*time.Second)
	defer cancel()

	// filter comes from the principal only; query params are ignored
	posts, err := h.posts.ListByAuthor(cctx, principal.ID)

	if err != nil {
		RespondInternal(ctx, "Could not list posts", err)
		return
	}

	ctx.JSON(http.StatusOK, listResponse{Items: posts, Count: len(posts)})
}

// GetPostById serves published posts to anyone. Drafts are only visible to
// their author; everyone else gets the same 404 as for a missing post.
func (h *PostsHandler) GetPostById(ctx *gin.Context) {
	p, ok := h.loadPost(ctx)
	if !ok {
		return
	}

	principal := middlewares.PrincipalFromContext(ctx)

	if !p.Published {
		d := h.decide(principal, policy.ActionReadDraft, &p)
		if !d.Allowed {
			RespondNotFound(ctx, "Post not found")
			return
		}
	} else if !h.authorize(ctx, principal, policy.ActionRead, &p) {
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, p)
}

func (h *PostsHandler) UpdatePost(ctx *gin.Context) {
	principal := middlewares.PrincipalFromContext(ctx)
	if principal == nil {
		h.authorize(ctx, nil, policy.ActionUpdate, nil)
		return
	}

	var req post.UpdateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	p, ok := h.loadPost(ctx)
	if !ok {
		return
	}

	if !h.authorize(ctx, principal, policy.ActionUpdate, &p) {
		return
	}

	p.Apply(req.Title, req.Content)

	h.save(ctx, p, "Could not update post")
}

func (h *PostsHandler) PublishPost(ctx *gin.Context) {
	principal := middlewares.PrincipalFromContext(ctx)
	if principal == nil {
		h.authorize(ctx, nil, policy.ActionPublish, nil)
		return
	}

	p, ok := h.loadPost(ctx)
	if !ok {
		return
	}

	if !h.authorize(ctx, principal, policy.ActionPublish, &p) {
		return
	}

	// already published: nothing to write, nothing to announce
	if !p.Publish() {
		ctx.JSON(http.StatusOK, p)
		return
	}

	saved, ok := h.save(ctx, p, "Could not publish post")
	if !ok {
		return
	}

	h.notifyPublished(ctx, saved)
}

func (h *PostsHandler) DeletePost(ctx *gin.Context) {
	principal := middlewares.PrincipalFromContext(ctx)
	if principal == nil {
		h.authorize(ctx, nil, policy.ActionDelete, nil)
		return
	}

	p, ok := h.loadPost(ctx)
	if !ok {
		return
	}

	if !h.authorize(ctx, principal, policy.ActionDelete, &p) {
		return
	}

	cctx, cancel := storeCtx(ctx, 2*time.Second)
	defer cancel()

	err := h.posts.Delete(cctx, p)

	if err != nil {
		if errors.Is(err, post.ErrNotFound) {
			RespondNotFound(ctx, "Post not found")
			return
		}
		RespondInternal(ctx, "Could not delete post", err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// loadPost resolves :id, answering 404 for malformed or unknown ids.
func (h *PostsHandler) loadPost(ctx *gin.Context) (post.Post, bool) {
	id := ctx.Param("id")

	if _, err := uuid.Parse(id); err != nil {
		RespondNotFound(ctx, "Post not found")
		return post.Post{}, false
	}

	cctx, cancel := storeCtx(ctx, 2*time.Second)
	defer cancel()

	p, err := h.posts.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, post.ErrNotFound) {
			RespondNotFound(ctx, "Post not found")
			return post.Post{}, false
		}
		RespondInternal(ctx, "Could not fetch post", err)
		return post.Post{}, false
	}

	return p, true
}

func (h *PostsHandler) save(ctx *gin.Context, p post.Post, failMsg string) (post.Post, bool) {
	cctx, cancel := storeCtx(ctx, 2*time.Second)
	defer cancel()

	saved, err := h.posts.Save(cctx, p)

	if err != nil {
		// deleted between lookup and write
		if errors.Is(err, post.ErrNotFound) {
			RespondNotFound(ctx, "Post not found")
			return post.Post{}, false
		}
		RespondInternal(ctx, failMsg, err)
		return post.Post{}, false
	}

	ctx.JSON(http.StatusOK, saved)
	return saved, true
}

func (h *PostsHandler) decide(principal *auth.Principal, action policy.Action, resource *post.Post) policy.Decision {
	d := policy.Decide(principal, action, resource)

	if h.observer != nil {
		h.observer.ObserveDecision(string(action), d.Allowed, string(d.Reason))
	}

	return d
}

// authorize answers 401/403 and returns false when the policy denies.
func (h *PostsHandler) authorize(ctx *gin.Context, principal *auth.Principal, action policy.Action, resource *post.Post) bool {
	d := h.decide(principal, action, resource)

	if d.Allowed {
		return true
	}

	slog.Default().DebugContext(ctx.Request.Context(), "authz_denied",
		"action", string(action),
		"reason", string(d.Reason),
		"request_id", requestIDFrom(ctx),
	)

	RespondDenied(ctx, d)
	return false
}

// notifyPublished never fails the request; the post is already saved.
func (h *PostsHandler) notifyPublished(ctx *gin.Context, p post.Post) {
	if h.notifier == nil {
		return
	}

	err := h.notifier.PostPublished(ctx.Request.Context(), notifications.PostPublishedInput{
		PostID:      p.ID,
		AuthorID:    p.AuthorID,
		Title:       p.Title,
		PublishedAt: p.UpdatedAt,
		RequestID:   requestIDFrom(ctx),
	})

	if err != nil {
		slog.Default().WarnContext(ctx.Request.Context(), "post_published notification failed",
			"post_id", p.ID,
			"err", err,
		)
	}
}

// drafts never leave through the public listing
func onlyPublished(in []post.Post) []post.Post {
	out := make([]post.Post, 0, len(in))
	for _, p := range in {
		if p.Published {
			out = append(out, p)
		}
	}
	return out
}
