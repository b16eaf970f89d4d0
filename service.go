package photoapi

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// MetaDataRepo defines the interface for managing object metadata
// persistence. Implementations must handle concurrent access safely.
//
// All methods accept a context for cancellation and timeout control.
type MetaDataRepo interface {
	// Get retrieves metadata for the object at key.
	// Returns ErrNotFound if the key does not exist.
	Get(ctx context.Context, key string) (MetaData, error)

	// Upsert creates or updates metadata for an object. The bool result
	// is true when a new entry was created.
	Upsert(ctx context.Context, entry ObjectEntry) (MetaData, bool, error)

	// Delete removes metadata for the object at key.
	// Returns ErrNotFound if the key does not exist.
	Delete(ctx context.Context, key string) error

	// List returns metadata for every object whose key starts with prefix.
	List(ctx context.Context, prefix string) ([]MetaData, error)
}

// FileStorage defines the interface for physical blob storage. The local
// filesystem backend lives in the filesystem package; implementations for
// S3-compatible stores satisfy the same contract.
type FileStorage interface {
	// Get opens the blob at key for reading. Returns ErrNotFound if the
	// blob does not exist. The caller closes the returned reader.
	Get(ctx context.Context, key string) (io.ReadSeekCloser, error)

	// Write stores content at key, overwriting any existing blob, and
	// returns the bytes written plus a content-derived etag.
	Write(ctx context.Context, key string, content io.Reader) (SaveResult, error)

	// Delete removes the blob at key. Returns ErrNotFound if the blob
	// does not exist.
	Delete(ctx context.Context, key string) error

	// List walks the backend and returns every stored object with its
	// size, etag, and detected content type. Used for metadata rebuilds.
	List(ctx context.Context) ([]ObjectEntry, error)
}

// PhotoService is the object-store adapter behind the HTTP gateway. It
// composes a metadata repository (content types, etags) with a blob backend
// (bytes). Requests never span multiple keys atomically, so no transaction
// coordination is needed; read-after-write visibility for the groups
// document follows from writing metadata only after the blob is durable.
type PhotoService struct {
	repo    MetaDataRepo
	storage FileStorage
}

// NewPhotoService creates a PhotoService from its two backends.
func NewPhotoService(repo MetaDataRepo, storage FileStorage) (*PhotoService, error) {
	if repo == nil {
		return nil, errors.New("new photo service: nil metadata repo")
	}
	if storage == nil {
		return nil, errors.New("new photo service: nil file storage")
	}
	return &PhotoService{repo: repo, storage: storage}, nil
}

// Groups returns the raw groups metadata document. Returns ErrNotFound when
// no document has been written yet; the HTTP layer translates that into an
// empty collection rather than an error.
func (s *PhotoService) Groups(ctx context.Context) ([]byte, error) {
	r, err := s.storage.Get(ctx, GroupsKey)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("groups: %w", err)
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("groups: read document: %w", err)
	}

	return data, nil
}

// SaveGroups overwrites the groups metadata document with content, verbatim.
func (s *PhotoService) SaveGroups(ctx context.Context, content io.Reader) (MetaData, error) {
	return s.save(ctx, GroupsKey, "application/json", content)
}

// UploadPhoto stores a photo blob under the key derived from its group and
// photo identifiers. The returned string is the client-facing key
// ("{groupID}/{photoID}"); the storage key carries the images/ prefix.
func (s *PhotoService) UploadPhoto(ctx context.Context, groupID, photoID, contentType string, content io.Reader) (string, MetaData, error) {
	if !IsValidKey(groupID) || !IsValidKey(photoID) {
		return "", MetaData{}, fmt.Errorf("upload photo: %w", ErrInvalidInput)
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}

	m, err := s.save(ctx, ImageKey(groupID, photoID), contentType, content)
	if err != nil {
		return "", MetaData{}, fmt.Errorf("upload photo: %w", err)
	}

	return groupID + "/" + photoID, m, nil
}

// Photo opens the photo blob at key for streaming, along with its stored
// metadata. Returns ErrNotFound when the key is absent.
func (s *PhotoService) Photo(ctx context.Context, key string) (MetaData, io.ReadSeekCloser, error) {
	storageKey := imagePrefix + key

	m, err := s.repo.Get(ctx, storageKey)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return MetaData{}, nil, ErrNotFound
		}
		return MetaData{}, nil, fmt.Errorf("photo: metadata: %w", err)
	}

	r, err := s.storage.Get(ctx, storageKey)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return MetaData{}, nil, ErrNotFound
		}
		return MetaData{}, nil, fmt.Errorf("photo: open blob: %w", err)
	}

	return m, r, nil
}

// DeletePhoto removes the photo blob at key. Deletion is idempotent: a key
// that was never stored, or was already deleted, is not an error.
func (s *PhotoService) DeletePhoto(ctx context.Context, key string) error {
	storageKey := imagePrefix + key

	if err := s.storage.Delete(ctx, storageKey); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete photo: blob: %w", err)
	}

	if err := s.repo.Delete(ctx, storageKey); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete photo: metadata: %w", err)
	}

	return nil
}

// Populate rebuilds the metadata repository from the blob backend. It walks
// every stored object and upserts an entry for it, reporting how many were
// indexed. Intended for initial setup or recovery after metadata loss.
func (s *PhotoService) Populate(ctx context.Context) (int, error) {
	entries, err := s.storage.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("populate: %w", err)
	}

	indexed := 0
	for _, entry := range entries {
		if _, _, err := s.repo.Upsert(ctx, entry); err != nil {
			return indexed, fmt.Errorf("populate: upsert %s: %w", entry.Key, err)
		}
		indexed++
	}

	return indexed, nil
}

func (s *PhotoService) save(ctx context.Context, key, contentType string, content io.Reader) (MetaData, error) {
	result, err := s.storage.Write(ctx, key, content)
	if err != nil {
		return MetaData{}, fmt.Errorf("save %s: %w", key, err)
	}

	m, _, err := s.repo.Upsert(ctx, ObjectEntry{
		Key:         key,
		Size:        result.BytesWritten,
		ETag:        result.Etag,
		ContentType: contentType,
	})
	if err != nil {
		return MetaData{}, fmt.Errorf("save %s: metadata: %w", key, err)
	}

	return m, nil
}
