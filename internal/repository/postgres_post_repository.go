package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/docs-hub/internal/domain"
)

const uniqueViolation = "23505"

const postColumns = `id::text, title, slug, content, excerpt, published, created_at, updated_at`

type postgresPostRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresPostRepository returns a Postgres-backed implementation.
func NewPostgresPostRepository(pool *pgxpool.Pool) PostRepository {
	return &postgresPostRepository{pool: pool}
}

func (r *postgresPostRepository) ListPublished(ctx context.Context) ([]domain.Post, error) {
	const query = `SELECT ` + postColumns + ` FROM posts WHERE published ORDER BY created_at DESC`
	return r.query(ctx, query)
}

func (r *postgresPostRepository) ListAll(ctx context.Context) ([]domain.Post, error) {
	const query = `SELECT ` + postColumns + ` FROM posts ORDER BY created_at DESC`
	return r.query(ctx, query)
}

func (r *postgresPostRepository) GetBySlug(ctx context.Context, slug string, includeUnpublished bool) (*domain.Post, error) {
	const query = `SELECT ` + postColumns + ` FROM posts WHERE slug=$1 AND (published OR $2)`
	return r.fetchSingle(ctx, query, slug, includeUnpublished)
}

func (r *postgresPostRepository) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	const query = `SELECT ` + postColumns + ` FROM posts WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *postgresPostRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	var exists bool
	var err error
	if _, parseErr := uuid.Parse(excludeID); parseErr == nil {
		err = r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM posts WHERE slug=$1 AND id<>$2)`, slug, excludeID).Scan(&exists)
	} else {
		err = r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM posts WHERE slug=$1)`, slug).Scan(&exists)
	}
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return exists, nil
}

func (r *postgresPostRepository) Create(ctx context.Context, post *domain.Post) error {
	const query = `
        INSERT INTO posts (title, slug, content, excerpt, published, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id::text`

	err := r.pool.QueryRow(ctx, query,
		post.Title,
		post.Slug,
		post.Content,
		post.Excerpt,
		post.Published,
		post.CreatedAt,
		post.UpdatedAt,
	).Scan(&post.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlugTaken
		}
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (r *postgresPostRepository) Update(ctx context.Context, post *domain.Post) error {
	if _, err := uuid.Parse(post.ID); err != nil {
		return ErrNotFound
	}
	const query = `
        UPDATE posts SET title=$1, slug=$2, content=$3, excerpt=$4, published=$5, updated_at=$6
        WHERE id=$7
        RETURNING ` + postColumns

	updated, err := scanPost(r.pool.QueryRow(ctx, query,
		post.Title,
		post.Slug,
		post.Content,
		post.Excerpt,
		post.Published,
		post.UpdatedAt,
		post.ID,
	))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return ErrNotFound
		case isUniqueViolation(err):
			return ErrSlugTaken
		}
		return fmt.Errorf("update post: %w", err)
	}
	*post = *updated
	return nil
}

func (r *postgresPostRepository) Delete(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}
	cmd, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id=$1`, id)
	if err != nil {
		return false, fmt.Errorf("delete post: %w", err)
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *postgresPostRepository) Search(ctx context.Context, query string) ([]domain.Post, error) {
	const sql = `SELECT ` + postColumns + ` FROM posts
        WHERE published AND (title ILIKE $1 OR content ILIKE $1 OR excerpt ILIKE $1)
        ORDER BY created_at DESC`
	return r.query(ctx, sql, "%"+escapeLike(query)+"%")
}

func (r *postgresPostRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Post, error) {
	post, err := scanPost(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch post: %w", err)
	}
	return post, nil
}

func (r *postgresPostRepository) query(ctx context.Context, query string, args ...any) ([]domain.Post, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	result := []domain.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *post)
	}
	return result, rows.Err()
}

func scanPost(row pgx.Row) (*domain.Post, error) {
	var post domain.Post
	if err := row.Scan(
		&post.ID,
		&post.Title,
		&post.Slug,
		&post.Content,
		&post.Excerpt,
		&post.Published,
		&post.CreatedAt,
		&post.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &post, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
