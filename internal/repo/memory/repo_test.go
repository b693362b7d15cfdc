package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/geocoder89/bloghub/internal/domain/post"
	"github.com/geocoder89/bloghub/internal/domain/user"
)

func TestUsersRepo_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	r := NewUsersRepo()

	u, err := r.Create(ctx, "a@x.com", "alice", "hash")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if u.Role != user.RoleUser {
		t.Fatalf("got role %q, want %q", u.Role, user.RoleUser)
	}

	byEmail, err := r.GetByEmail(ctx, "a@x.com")
	if err != nil || byEmail.ID != u.ID {
		t.Fatalf("GetByEmail got %+v, %v", byEmail, err)
	}

	byID, err := r.GetByID(ctx, u.ID)
	if err != nil || byID.Email != "a@x.com" {
		t.Fatalf("GetByID got %+v, %v", byID, err)
	}

	if _, err := r.GetByEmail(ctx, "A@x.com"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("email lookup should be case-sensitive, got %v", err)
	}
}

func TestUsersRepo_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	r := NewUsersRepo()

	first, err := r.Create(ctx, "a@x.com", "alice", "hash1")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	_, err = r.Create(ctx, "a@x.com", "mallory", "hash2")
	if !errors.Is(err, user.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	stored, _ := r.GetByEmail(ctx, "a@x.com")
	if stored.ID != first.ID || stored.PasswordHash != "hash1" {
		t.Fatalf("duplicate registration overwrote the original user: %+v", stored)
	}
}

func TestUsersRepo_ConcurrentDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	r := NewUsersRepo()

	const n = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins, conflicts := 0, 0

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Create(ctx, "race@x.com", "racer", "hash")

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, user.ErrEmailTaken):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins != 1 || conflicts != n-1 {
		t.Fatalf("got wins=%d conflicts=%d, want 1 and %d", wins, conflicts, n-1)
	}
}

func TestPostsRepo_Lifecycle(t *testing.T) {
	ctx := context.Background()
	r := NewPostsRepo()

	p, err := r.Create(ctx, "T", "C", "alice")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	got, err := r.GetByID(ctx, p.ID)
	if err != nil || got.Title != "T" || got.Published {
		t.Fatalf("GetByID got %+v, %v", got, err)
	}

	got.Publish()
	got.AuthorID = "mallory"
	saved, err := r.Save(ctx, got)
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if !saved.Published {
		t.Fatalf("publish not persisted")
	}
	if saved.AuthorID != "alice" {
		t.Fatalf("Save must not change the author, got %q", saved.AuthorID)
	}

	if err := r.Delete(ctx, saved); err != nil {
		t.Fatalf("Delete error: %v", err)
	}

	if _, err := r.GetByID(ctx, p.ID); !errors.Is(err, post.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	if err := r.Delete(ctx, saved); !errors.Is(err, post.ErrNotFound) {
		t.Fatalf("second delete should be not found, got %v", err)
	}

	if _, err := r.Save(ctx, saved); !errors.Is(err, post.ErrNotFound) {
		t.Fatalf("save after delete should be not found, got %v", err)
	}
}

func TestPostsRepo_Listings(t *testing.T) {
	ctx := context.Background()
	r := NewPostsRepo()

	mustCreate := func(title, author string, publish bool) post.Post {
		t.Helper()
		p, err := r.Create(ctx, title, "content", author)
		if err != nil {
			t.Fatalf("Create error: %v", err)
		}
		if publish {
			p.Publish()
			if p, err = r.Save(ctx, p); err != nil {
				t.Fatalf("Save error: %v", err)
			}
		}
		return p
	}

	mustCreate("a-draft", "alice", false)
	mustCreate("a-live", "alice", true)
	mustCreate("b-draft", "bob", false)
	mustCreate("b-live", "bob", true)
	mustCreate("b-live-2", "bob", true)

	published, err := r.ListPublished(ctx)
	if err != nil {
		t.Fatalf("ListPublished error: %v", err)
	}
	if len(published) != 3 {
		t.Fatalf("got %d published, want 3", len(published))
	}
	for _, p := range published {
		if !p.Published {
			t.Fatalf("ListPublished returned a draft: %+v", p)
		}
	}

	mine, err := r.ListByAuthor(ctx, "alice")
	if err != nil {
		t.Fatalf("ListByAuthor error: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("got %d posts for alice, want 2", len(mine))
	}
	for _, p := range mine {
		if p.AuthorID != "alice" {
			t.Fatalf("ListByAuthor leaked %+v", p)
		}
	}

	none, _ := r.ListByAuthor(ctx, "carol")
	if len(none) != 0 {
		t.Fatalf("expected no posts for carol, got %d", len(none))
	}
}
