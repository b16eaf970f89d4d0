package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maysssss/photoapi"
	"github.com/maysssss/photoapi/database/sqlite"
)

func TestRepo_Upsert_Insert(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	entry := photoapi.ObjectEntry{
		Key:         "images/g1/p1",
		Size:        1024,
		ETag:        "etag1",
		ContentType: "image/jpeg",
	}

	m, created, err := repo.Upsert(ctx, entry)
	require.NoError(t, err)

	assert.True(t, created)
	assert.NotEqual(t, uuid.Nil, m.ID)
	assert.Equal(t, entry.Key, m.Key)
	assert.Equal(t, entry.ContentType, m.ContentType)
	assert.Equal(t, entry.ETag, m.Etag)
	assert.Equal(t, entry.Size, m.FileSizeBytes)
	assert.False(t, m.CreatedAt.IsZero())
	assert.Equal(t, m.CreatedAt, m.UpdatedAt)
}

func TestRepo_Upsert_Update(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	first, created, err := repo.Upsert(ctx, photoapi.ObjectEntry{
		Key:         "images/g1/p1",
		Size:        1024,
		ETag:        "etag1",
		ContentType: "image/jpeg",
	})
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := repo.Upsert(ctx, photoapi.ObjectEntry{
		Key:         "images/g1/p1",
		Size:        2048,
		ETag:        "etag2",
		ContentType: "image/png",
	})
	require.NoError(t, err)

	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, "etag2", second.Etag)
	assert.Equal(t, "image/png", second.ContentType)
	assert.Equal(t, int64(2048), second.FileSizeBytes)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt) || second.UpdatedAt.Equal(first.UpdatedAt))
}

func TestRepo_Get(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	inserted, _, err := repo.Upsert(ctx, photoapi.ObjectEntry{
		Key:         "metadata/groups.json",
		Size:        13,
		ETag:        "etag1",
		ContentType: "application/json",
	})
	require.NoError(t, err)

	got, err := repo.Get(ctx, "metadata/groups.json")
	require.NoError(t, err)

	assert.Equal(t, inserted.ID, got.ID)
	assert.Equal(t, inserted.Key, got.Key)
	assert.Equal(t, inserted.ContentType, got.ContentType)
	assert.Equal(t, inserted.Etag, got.Etag)
	assert.Equal(t, inserted.FileSizeBytes, got.FileSizeBytes)
	assert.WithinDuration(t, inserted.CreatedAt, got.CreatedAt, time.Millisecond)
	assert.WithinDuration(t, inserted.UpdatedAt, got.UpdatedAt, time.Millisecond)
}

func TestRepo_Get_NotFound(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Get(context.Background(), "images/g1/missing")
	assert.ErrorIs(t, err, photoapi.ErrNotFound)
}

func TestRepo_Delete(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	_, _, err := repo.Upsert(ctx, photoapi.ObjectEntry{
		Key:         "images/g1/p1",
		Size:        1,
		ETag:        "e",
		ContentType: "image/jpeg",
	})
	require.NoError(t, err)

	err = repo.Delete(ctx, "images/g1/p1")
	assert.NoError(t, err)

	_, err = repo.Get(ctx, "images/g1/p1")
	assert.ErrorIs(t, err, photoapi.ErrNotFound)
}

func TestRepo_Delete_NotFound(t *testing.T) {
	repo := setupTestRepo(t)

	err := repo.Delete(context.Background(), "images/g1/missing")
	assert.ErrorIs(t, err, photoapi.ErrNotFound)
}

func TestRepo_List_Prefix(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	keys := []string{
		"images/g1/p1",
		"images/g1/p2",
		"images/g2/p1",
		"metadata/groups.json",
	}
	for _, k := range keys {
		_, _, err := repo.Upsert(ctx, photoapi.ObjectEntry{
			Key:         k,
			Size:        1,
			ETag:        "e",
			ContentType: "application/octet-stream",
		})
		require.NoError(t, err)
	}

	items, err := repo.List(ctx, "images/g1/")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "images/g1/p1", items[0].Key)
	assert.Equal(t, "images/g1/p2", items[1].Key)

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestRepo_List_EscapesLikeWildcards(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	for _, k := range []string{"images/g_1/p1", "images/gX1/p1"} {
		_, _, err := repo.Upsert(ctx, photoapi.ObjectEntry{
			Key:         k,
			Size:        1,
			ETag:        "e",
			ContentType: "image/jpeg",
		})
		require.NoError(t, err)
	}

	// An underscore in the prefix must match literally, not as a wildcard.
	items, err := repo.List(ctx, "images/g_1/")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "images/g_1/p1", items[0].Key)
}

func TestRepo_List_Empty(t *testing.T) {
	repo := setupTestRepo(t)

	items, err := repo.List(context.Background(), "images/")
	assert.NoError(t, err)
	assert.Empty(t, items)
}

func TestNewRepo_InvalidTableName(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = sqlite.NewRepo(db, "bad; DROP TABLE x")
	assert.Error(t, err)
}

func TestValidateSchema_MissingTable(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	err = sqlite.ValidateSchema(context.Background(), db, "never_created")
	assert.Error(t, err)
}
