package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/geocoder89/bloghub/internal/domain/post"
)

type PostsRepo struct {
	mu    sync.RWMutex
	items map[string]post.Post
}

func NewPostsRepo() *PostsRepo {
	return &PostsRepo{
		items: make(map[string]post.Post),
	}
}

func (r *PostsRepo) Create(ctx context.Context, title, content, authorID string) (post.Post, error) {
	if err := ctx.Err(); err != nil {
		return post.Post{}, err
	}

	p := post.New(title, content, authorID)

	r.mu.Lock()
	r.items[p.ID] = p
	r.mu.Unlock()

	return p, nil
}

func (r *PostsRepo) GetByID(ctx context.Context, id string) (post.Post, error) {
	r.mu.RLock()
	p, ok := r.items[id]
	r.mu.RUnlock()

	if !ok {
		return post.Post{}, post.ErrNotFound
	}
	return p, nil
}

func (r *PostsRepo) ListPublished(ctx context.Context) ([]post.Post, error) {
	return r.filter(func(p post.Post) bool { return p.Published }), nil
}

func (r *PostsRepo) ListByAuthor(ctx context.Context, authorID string) ([]post.Post, error) {
	return r.filter(func(p post.Post) bool { return p.AuthorID == authorID }), nil
}

// Save replaces title, content, published flag and updatedAt. The stored
// author is kept regardless of what the caller passes.
func (r *PostsRepo) Save(ctx context.Context, p post.Post) (post.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[p.ID]
	if !ok {
		return post.Post{}, post.ErrNotFound
	}

	current.Title = p.Title
	current.Content = p.Content
	current.Published = p.Published
	current.UpdatedAt = p.UpdatedAt

	r.items[p.ID] = current
	return current, nil
}

func (r *PostsRepo) Delete(ctx context.Context, p post.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[p.ID]; !ok {
		return post.ErrNotFound
	}
	delete(r.items, p.ID)
	return nil
}

// newest first, matching the postgres ordering
func (r *PostsRepo) filter(keep func(post.Post) bool) []post.Post {
	r.mu.RLock()
	out := make([]post.Post, 0, len(r.items))
	for _, p := range r.items {
		if keep(p) {
			out = append(out, p)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
