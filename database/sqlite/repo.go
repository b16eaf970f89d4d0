// Package sqlite implements the metadata repo using SQLite
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/maysssss/photoapi"
	"github.com/maysssss/photoapi/database/internal"
)

// Repo is a photoapi.MetaDataRepo backed by a SQLite database.
type Repo struct {
	db        *sql.DB
	tableName string
}

// NewRepo creates a Repo for the given (already validated) table name.
func NewRepo(db *sql.DB, tableName string) (*Repo, error) {
	if !internal.IsValidTableName(tableName) {
		return nil, fmt.Errorf("new repo: invalid table name: %s", tableName)
	}
	return &Repo{db: db, tableName: tableName}, nil
}

func (r *Repo) Get(ctx context.Context, key string) (photoapi.MetaData, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, object_key, content_type, etag, file_size_bytes, created_at, updated_at
		FROM %s
		WHERE object_key = ?`, r.tableName)

	var m photoapi.MetaData
	var idStr, createdAt, updatedAt string

	err := r.db.QueryRowContext(ctx, query, key).Scan(
		&idStr, &m.Key, &m.ContentType, &m.Etag, &m.FileSizeBytes, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return photoapi.MetaData{}, photoapi.ErrNotFound
		}
		return photoapi.MetaData{}, fmt.Errorf("get: %w", err)
	}

	if err := parseRow(&m, idStr, createdAt, updatedAt); err != nil {
		return photoapi.MetaData{}, fmt.Errorf("get: %w", err)
	}

	return m, nil
}

func (r *Repo) Upsert(ctx context.Context, entry photoapi.ObjectEntry) (photoapi.MetaData, bool, error) {
	// Check if the entry exists first to determine insert vs update
	var existingID, existingCreatedAt string
	checkQuery := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, created_at FROM %s WHERE object_key = ?`, r.tableName)
	err := r.db.QueryRowContext(ctx, checkQuery, entry.Key).Scan(&existingID, &existingCreatedAt)
	isInsert := errors.Is(err, sql.ErrNoRows)
	if err != nil && !isInsert {
		return photoapi.MetaData{}, false, fmt.Errorf("upsert: check existing: %w", err)
	}

	now := time.Now().UTC()
	nowStr := now.Format(time.RFC3339Nano)

	m := photoapi.MetaData{
		Key:           entry.Key,
		ContentType:   entry.ContentType,
		Etag:          entry.ETag,
		FileSizeBytes: entry.Size,
		UpdatedAt:     now,
	}

	if isInsert {
		m.ID = uuid.New()
		m.CreatedAt = now

		insertQuery := fmt.Sprintf( //nolint:gosec // G201: table name is validated
			`INSERT INTO %s (id, object_key, content_type, etag, file_size_bytes, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`, r.tableName)

		_, err = r.db.ExecContext(ctx, insertQuery,
			m.ID.String(), entry.Key, entry.ContentType, entry.ETag, entry.Size, nowStr, nowStr,
		)
		if err != nil {
			return photoapi.MetaData{}, false, fmt.Errorf("upsert: insert: %w", err)
		}

		return m, true, nil
	}

	updateQuery := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`UPDATE %s
		SET content_type = ?, etag = ?, file_size_bytes = ?, updated_at = ?
		WHERE object_key = ?`, r.tableName)

	_, err = r.db.ExecContext(ctx, updateQuery,
		entry.ContentType, entry.ETag, entry.Size, nowStr, entry.Key,
	)
	if err != nil {
		return photoapi.MetaData{}, false, fmt.Errorf("upsert: update: %w", err)
	}

	m.ID, err = uuid.Parse(existingID)
	if err != nil {
		return photoapi.MetaData{}, false, fmt.Errorf("upsert: parse uuid: %w", err)
	}
	m.CreatedAt, err = time.Parse(time.RFC3339Nano, existingCreatedAt)
	if err != nil {
		return photoapi.MetaData{}, false, fmt.Errorf("upsert: parse created_at: %w", err)
	}

	return m, false, nil
}

func (r *Repo) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`DELETE FROM %s WHERE object_key = ?`, r.tableName)

	result, err := r.db.ExecContext(ctx, query, key)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete: rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("delete: %w", photoapi.ErrNotFound)
	}

	return nil
}

func (r *Repo) List(ctx context.Context, prefix string) ([]photoapi.MetaData, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, object_key, content_type, etag, file_size_bytes, created_at, updated_at
		FROM %s
		WHERE object_key LIKE ? || '%%' ESCAPE '\'
		ORDER BY object_key`, r.tableName)

	rows, err := r.db.QueryContext(ctx, query, internal.EscapeLikePattern(prefix))
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []photoapi.MetaData
	for rows.Next() {
		var m photoapi.MetaData
		var idStr, createdAt, updatedAt string

		if err := rows.Scan(&idStr, &m.Key, &m.ContentType, &m.Etag, &m.FileSizeBytes, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("list: scan: %w", err)
		}

		if err := parseRow(&m, idStr, createdAt, updatedAt); err != nil {
			return nil, fmt.Errorf("list: %w", err)
		}

		items = append(items, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list: rows: %w", err)
	}

	return items, nil
}

func parseRow(m *photoapi.MetaData, idStr, createdAt, updatedAt string) error {
	var err error

	m.ID, err = uuid.Parse(idStr)
	if err != nil {
		return fmt.Errorf("parse uuid: %w", err)
	}

	m.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return fmt.Errorf("parse created_at: %w", err)
	}

	m.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return fmt.Errorf("parse updated_at: %w", err)
	}

	return nil
}
