package clientcli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/maysssss/photoapi"
)

// DefaultTimeout is the default HTTP client timeout.
const DefaultTimeout = 30 * time.Second

// Client performs operations against a photo gateway.
type Client struct {
	endpoint   string
	password   string
	token      string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// New creates a Client for the given profile.
func New(profile *Profile, opts ...Option) (*Client, error) {
	if profile == nil {
		return nil, ErrConfigRequired
	}

	c := &Client{
		endpoint:   strings.TrimSuffix(profile.Endpoint, "/"),
		password:   profile.Password,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

type loginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	Error   string `json:"error"`
}

// Login exchanges the profile's password for a bearer token and remembers
// it for subsequent calls.
func (c *Client) Login(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{"password": c.password})
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/auth", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("login: decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || !lr.Success || lr.Token == "" {
		return fmt.Errorf("%w: %s", ErrLoginFailed, lr.Error)
	}

	c.token = lr.Token
	return nil
}

// Groups fetches and decodes the groups document.
func (c *Client) Groups(ctx context.Context) (photoapi.GroupsDocument, error) {
	resp, err := c.do(ctx, http.MethodGet, "/groups", "", nil)
	if err != nil {
		return photoapi.GroupsDocument{}, fmt.Errorf("groups: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return photoapi.GroupsDocument{}, fmt.Errorf("groups: %s", responseError(resp))
	}

	var doc photoapi.GroupsDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return photoapi.GroupsDocument{}, fmt.Errorf("groups: decode: %w", err)
	}

	return doc, nil
}

// SaveGroups replaces the groups document with the given JSON payload.
func (c *Client) SaveGroups(ctx context.Context, doc []byte) error {
	resp, err := c.do(ctx, http.MethodPost, "/groups", "application/json", bytes.NewReader(doc))
	if err != nil {
		return fmt.Errorf("save groups: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("save groups: %s", responseError(resp))
	}

	return nil
}

// UploadResult reports a completed upload.
type UploadResult struct {
	Key  string
	Size int64
}

type uploadResponse struct {
	Success bool   `json:"success"`
	Key     string `json:"key"`
}

// Upload sends a local file as the photo for groupID/photoID.
func (c *Client) Upload(ctx context.Context, groupID, photoID, localPath string) (UploadResult, error) {
	f, err := os.Open(localPath) //nolint:gosec // path comes from the user's CLI args
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload: %w", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("groupId", groupID); err != nil {
		return UploadResult{}, fmt.Errorf("upload: %w", err)
	}
	if err := mw.WriteField("photoId", photoID); err != nil {
		return UploadResult{}, fmt.Errorf("upload: %w", err)
	}

	part, err := mw.CreatePart(fileHeader(filepath.Base(localPath), detectContentType(localPath)))
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return UploadResult{}, fmt.Errorf("upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("upload: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/upload", mw.FormDataContentType(), &buf)
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return UploadResult{}, fmt.Errorf("upload: %s", responseError(resp))
	}

	var ur uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&ur); err != nil {
		return UploadResult{}, fmt.Errorf("upload: decode: %w", err)
	}

	return UploadResult{Key: ur.Key, Size: info.Size()}, nil
}

// DeleteImage removes the photo at key.
func (c *Client) DeleteImage(ctx context.Context, key string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/image/"+key, "", nil)
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("delete image: %s", responseError(resp))
	}

	return nil
}

// do performs an authenticated request, logging in first when no token is
// held yet.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	if c.token == "" {
		if err := c.Login(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	return c.httpClient.Do(req)
}

func responseError(resp *http.Response) string {
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
		return resp.Status
	}
	if e.Message != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Error)
	}
	return e.Error
}

func fileHeader(filename, contentType string) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	h.Set("Content-Type", contentType)
	return h
}

func detectContentType(path string) string {
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		return "application/octet-stream"
	}
	return contentType
}
