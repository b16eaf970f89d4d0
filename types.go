package photoapi

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// GroupsKey is the storage key of the single groups metadata document.
const GroupsKey = "metadata/groups.json"

// imagePrefix namespaces all photo blobs under the store.
const imagePrefix = "images/"

// MetaData describes a stored object.
type MetaData struct {
	ID            uuid.UUID `json:"id"`
	Key           string    `json:"key"`
	ContentType   string    `json:"content_type"`
	Etag          string    `json:"etag"`
	FileSizeBytes int64     `json:"file_size_bytes"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ObjectEntry is the write-side view of an object handed to the metadata repo.
type ObjectEntry struct {
	Key         string
	Size        int64
	ETag        string
	ContentType string
}

// SaveResult reports the outcome of a blob write.
type SaveResult struct {
	BytesWritten int64
	Etag         string
}

// Group mirrors the groups document schema produced by the web client.
// The gateway stores the document verbatim; these types exist for clients
// and tests that want to interpret it.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	City      string    `json:"city,omitempty"`
	Location  *LatLng   `json:"location,omitempty"`
	CoverURL  string    `json:"coverUrl,omitempty"`
	Photos    []Photo   `json:"photos,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// LatLng is a geographic coordinate attached to a group.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Photo is a single photo entry within a group.
type Photo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date,omitempty"`
	URL         string `json:"url,omitempty"`
}

// GroupsDocument is the top-level shape of the groups metadata object.
type GroupsDocument struct {
	Groups []Group `json:"groups"`
}

// Credential is the process-wide shared secret pair, fixed at configuration
// time and never mutated at runtime.
type Credential struct {
	// Password is the shared login password.
	Password string
	// Secret optionally pins the token signing secret. When empty the
	// signing secret is derived from the password, which means possession
	// of the password is sufficient to both authenticate and forge tokens.
	// Password and signing-secret compromise are treated as equivalent
	// trust boundaries here; do not rely on the distinction.
	Secret string
}

// SigningSecret returns the key used to sign and verify bearer tokens.
func (c Credential) SigningSecret() []byte {
	if c.Secret != "" {
		return []byte(c.Secret)
	}
	return []byte(c.Password + "-jwt-secret")
}

// ImageKey builds the storage key for a photo blob from its group and photo
// identifiers.
func ImageKey(groupID, photoID string) string {
	return imagePrefix + groupID + "/" + photoID
}

// IsValidKey validates that a string is acceptable as a storage key segment.
// It rejects empty strings, absolute or trailing-slash paths, traversal
// ("..") and empty ("//") segments, "." segments, the characters \ ? # ~,
// invalid UTF-8, and any control or whitespace rune.
func IsValidKey(k string) bool {
	if k == "" || k == "/" || k == "." {
		return false
	}

	if k[0] == '/' || strings.HasSuffix(k, "/") {
		return false
	}

	if strings.Contains(k, "..") || strings.Contains(k, "//") {
		return false
	}

	if strings.ContainsAny(k, `\?#~`) {
		return false
	}

	if !utf8.ValidString(k) {
		return false
	}

	if strings.HasPrefix(k, "./") || strings.Contains(k, "/./") || strings.HasSuffix(k, "/.") {
		return false
	}

	for _, r := range k {
		if r == 0 || r < 0x20 || r == 0x7f || unicode.IsSpace(r) {
			return false
		}
	}

	return true
}
