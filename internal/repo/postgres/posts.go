package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/bloghub/internal/domain/post"
	"github.com/geocoder89/bloghub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postColumns = `id, title, content, published, author_id, created_at, updated_at`

type PostsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewPostsRepo(pool *pgxpool.Pool, prom *observability.Prom) *PostsRepo {
	return &PostsRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *PostsRepo) Create(ctx context.Context, title, content, authorID string) (post.Post, error) {
	p := post.New(title, content, authorID)

	err := r.prom.ObserveDB("posts.create", func() error {
		_, e := r.pool.Exec(ctx,
			`INSERT INTO posts (id, title, content, published, author_id, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			p.ID, p.Title, p.Content, p.Published, p.AuthorID, p.CreatedAt, p.UpdatedAt,
		)
		return e
	})

	if err != nil {
		return post.Post{}, err
	}

	return p, nil
}

func (r *PostsRepo) GetByID(ctx context.Context, id string) (post.Post, error) {
	var p post.Post

	err := r.prom.ObserveDB("posts.get_by_id", func() error {
		return scanPost(r.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id), &p)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return post.Post{}, post.ErrNotFound
		}
		return post.Post{}, err
	}

	return p, nil
}

func (r *PostsRepo) ListPublished(ctx context.Context) ([]post.Post, error) {
	return r.list(ctx, "posts.list_published",
		`SELECT `+postColumns+` FROM posts
		WHERE published = TRUE
		ORDER BY created_at DESC, id DESC`)
}

func (r *PostsRepo) ListByAuthor(ctx context.Context, authorID string) ([]post.Post, error) {
	return r.list(ctx, "posts.list_by_author",
		`SELECT `+postColumns+` FROM posts
		WHERE author_id = $1
		ORDER BY created_at DESC, id DESC`, authorID)
}

// Save writes the mutable columns; author_id is fixed at insert.
func (r *PostsRepo) Save(ctx context.Context, in post.Post) (post.Post, error) {
	var p post.Post

	err := r.prom.ObserveDB("posts.save", func() error {
		return scanPost(r.pool.QueryRow(ctx,
			`UPDATE posts
			SET title = $2,
				content = $3,
				published = $4,
				updated_at = $5
			WHERE id = $1
			RETURNING `+postColumns,
			in.ID, in.Title, in.Content, in.Published, in.UpdatedAt,
		), &p)
	})

	if err != nil {
		// if there are no rows matching the id
		if errors.Is(err, pgx.ErrNoRows) {
			return post.Post{}, post.ErrNotFound
		}
		return post.Post{}, err
	}

	return p, nil
}

func (r *PostsRepo) Delete(ctx context.Context, p post.Post) error {
	var affected int64

	err := r.prom.ObserveDB("posts.delete", func() error {
		tag, e := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, p.ID)
		affected = tag.RowsAffected()
		return e
	})

	if err != nil {
		return err
	}

	// if no rows were deleted as a result return a not found error
	if affected == 0 {
		return post.ErrNotFound
	}

	return nil
}

func (r *PostsRepo) list(ctx context.Context, op, query string, args ...any) (out []post.Post, err error) {
	var rows pgx.Rows

	err = r.prom.ObserveDB(op, func() error {
		rows, err = r.pool.Query(ctx, query, args...)
		return err
	})

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	out = make([]post.Post, 0)

	for rows.Next() {
		var p post.Post

		if e := scanPost(rows, &p); e != nil {
			return nil, e
		}
		out = append(out, p)
	}

	if e := rows.Err(); e != nil {
		return nil, e
	}

	return out, nil
}

func scanPost(row pgx.Row, p *post.Post) error {
	return row.Scan(&p.ID, &p.Title, &p.Content, &p.Published, &p.AuthorID, &p.CreatedAt, &p.UpdatedAt)
}
