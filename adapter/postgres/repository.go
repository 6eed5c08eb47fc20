package postgres

import (
	"context"
	"database/sql"

	"newsdesk/domain"
)

type Repository struct{ db *sql.DB }

func New(db *sql.DB) *Repository { return &Repository{db: db} }

func (r *Repository) Ensure(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS news (
    id BIGSERIAL PRIMARY KEY,
    created_at TIMESTAMP NOT NULL DEFAULT now(),
    title TEXT NOT NULL,
    link TEXT NOT NULL,
    published_at TIMESTAMP NOT NULL,
    summary TEXT NOT NULL,
    source TEXT NOT NULL,
    UNIQUE (source, title, link)
);
`)
	return err
}

func (r *Repository) InsertIgnore(ctx context.Context, item domain.NewsItem) (bool, error) {
	// The column is TIMESTAMP without time zone, which drops offsets on
	// write; normalizing to UTC keeps the retention ordering chronological.
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO news (title, link, published_at, summary, source) VALUES ($1,$2,$3,$4,$5) ON CONFLICT (source, title, link) DO NOTHING`,
		item.Title, item.Link, item.PublishedAt.UTC(), item.Summary, item.Source)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (r *Repository) Prune(ctx context.Context, k int) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM news WHERE id NOT IN (SELECT id FROM news ORDER BY published_at DESC, id DESC LIMIT $1)`, k)
	return err
}

func (r *Repository) ListRecent(ctx context.Context, limit int) ([]domain.StoredItem, error) {
	q := `SELECT id, created_at, title, link, published_at, summary, source FROM news ORDER BY published_at DESC, id DESC`
	if limit > 0 {
		q += ` LIMIT $1`
		return scanItems(r.db.QueryContext(ctx, q, limit))
	}
	return scanItems(r.db.QueryContext(ctx, q))
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM news`).Scan(&n)
	return n, err
}

func scanItems(rows *sql.Rows, err error) ([]domain.StoredItem, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.StoredItem
	for rows.Next() {
		var it domain.StoredItem
		if err := rows.Scan(&it.ID, &it.CreatedAt, &it.Title, &it.Link, &it.PublishedAt, &it.Summary, &it.Source); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
