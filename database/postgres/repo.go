// Package postgres implements the metadata repo using PostgreSQL
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maysssss/photoapi"
	"github.com/maysssss/photoapi/database/internal"
)

// Repo is a photoapi.MetaDataRepo backed by a PostgreSQL pool.
type Repo struct {
	pool      *pgxpool.Pool
	tableName string
}

// NewRepo creates a Repo for the given (already validated) table name.
func NewRepo(pool *pgxpool.Pool, tableName string) (*Repo, error) {
	if !internal.IsValidTableName(tableName) {
		return nil, fmt.Errorf("new repo: invalid table name: %s", tableName)
	}
	return &Repo{pool: pool, tableName: tableName}, nil
}

// Ping verifies database connectivity
func (r *Repo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repo) Get(ctx context.Context, key string) (photoapi.MetaData, error) {
	query := fmt.Sprintf(`
		SELECT id, object_key, content_type, etag, file_size_bytes, created_at, updated_at
		FROM %s
		WHERE object_key = $1
	`, r.tableName)

	var m photoapi.MetaData
	err := r.pool.QueryRow(ctx, query, key).Scan(
		&m.ID, &m.Key, &m.ContentType, &m.Etag, &m.FileSizeBytes, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return photoapi.MetaData{}, photoapi.ErrNotFound
		}
		return photoapi.MetaData{}, fmt.Errorf("get: %w", err)
	}

	return m, nil
}

func (r *Repo) Upsert(ctx context.Context, entry photoapi.ObjectEntry) (photoapi.MetaData, bool, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (object_key, content_type, etag, file_size_bytes)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (object_key) DO UPDATE
		SET content_type = EXCLUDED.content_type,
			etag = EXCLUDED.etag,
			file_size_bytes = EXCLUDED.file_size_bytes,
			updated_at = NOW()
		RETURNING id, object_key, content_type, etag, file_size_bytes, created_at, updated_at,
			(xmax = 0) AS inserted
	`, r.tableName)

	var m photoapi.MetaData
	var inserted bool

	err := r.pool.QueryRow(ctx, query, entry.Key, entry.ContentType, entry.ETag, entry.Size).Scan(
		&m.ID, &m.Key, &m.ContentType, &m.Etag, &m.FileSizeBytes, &m.CreatedAt, &m.UpdatedAt, &inserted,
	)
	if err != nil {
		return photoapi.MetaData{}, false, fmt.Errorf("upsert: %w", err)
	}

	return m, inserted, nil
}

func (r *Repo) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE object_key = $1
	`, r.tableName)

	result, err := r.pool.Exec(ctx, query, key)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete: %w", photoapi.ErrNotFound)
	}

	return nil
}

func (r *Repo) List(ctx context.Context, prefix string) ([]photoapi.MetaData, error) {
	query := fmt.Sprintf(`
		SELECT id, object_key, content_type, etag, file_size_bytes, created_at, updated_at
		FROM %s
		WHERE object_key LIKE $1 || '%%'
		ORDER BY object_key
	`, r.tableName)

	rows, err := r.pool.Query(ctx, query, internal.EscapeLikePattern(prefix))
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	var items []photoapi.MetaData
	for rows.Next() {
		var m photoapi.MetaData
		if err := rows.Scan(&m.ID, &m.Key, &m.ContentType, &m.Etag, &m.FileSizeBytes, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("list: scan: %w", err)
		}
		items = append(items, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list: rows: %w", err)
	}

	return items, nil
}
