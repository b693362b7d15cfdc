package post

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("post not found")

// Post is authored by exactly one user. AuthorID is set by New and has no
// mutator; stores never write it after insert.
type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Published bool      `json:"published"`
	AuthorID  string    `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateRequest struct {
	Title   string `json:"title" binding:"required,min=1,max=200"`
	Content string `json:"content" binding:"required"`
}

// a full update payload, both fields replace the stored values.
type UpdateRequest struct {
	Title   string `json:"title" binding:"required,min=1,max=200"`
	Content string `json:"content" binding:"required"`
}

func New(title, content, authorID string) Post {
	now := time.Now().UTC()

	return Post{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		Published: false,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (p *Post) Apply(title, content string) {
	p.Title = title
	p.Content = content
	p.UpdatedAt = time.Now().UTC()
}

// Publish marks the post visible in the public listing. It reports whether
// the post was previously unpublished.
func (p *Post) Publish() bool {
	if p.Published {
		return false
	}
	p.Published = true
	p.UpdatedAt = time.Now().UTC()
	return true
}
