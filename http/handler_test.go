package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maysssss/photoapi"
	photohttp "github.com/maysssss/photoapi/http"
)

// readSeekNopCloser wraps an io.ReadSeeker to add a no-op Close method
type readSeekNopCloser struct {
	io.ReadSeeker
}

func (r readSeekNopCloser) Close() error { return nil }

// MockService is a mock implementation of http.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Groups(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockService) SaveGroups(ctx context.Context, content io.Reader) (photoapi.MetaData, error) {
	args := m.Called(ctx, content)
	return args.Get(0).(photoapi.MetaData), args.Error(1)
}

func (m *MockService) UploadPhoto(ctx context.Context, groupID, photoID, contentType string, content io.Reader) (string, photoapi.MetaData, error) {
	args := m.Called(ctx, groupID, photoID, contentType, content)
	return args.String(0), args.Get(1).(photoapi.MetaData), args.Error(2)
}

func (m *MockService) Photo(ctx context.Context, key string) (photoapi.MetaData, io.ReadSeekCloser, error) {
	args := m.Called(ctx, key)
	if args.Get(1) == nil {
		return args.Get(0).(photoapi.MetaData), nil, args.Error(2)
	}
	return args.Get(0).(photoapi.MetaData), args.Get(1).(io.ReadSeekCloser), args.Error(2)
}

func (m *MockService) DeletePhoto(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// allowAllAuth passes every token so handler tests can focus on routes.
type allowAllAuth struct{}

func (allowAllAuth) Login(password string) (string, error) {
	if password != "hunter2" {
		return "", photoapi.ErrInvalidCredentials
	}
	return "test-token", nil
}

func (allowAllAuth) Verify(string) bool { return true }

func newTestRouter(service photohttp.Service) http.Handler {
	handler := photohttp.NewHandler(&photohttp.HandlerConfig{}, allowAllAuth{}, service)
	return handler.Router()
}

func authed(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer test-token")
	return req
}

func TestHandler_HandleLogin_Success(t *testing.T) {
	router := newTestRouter(new(MockService))

	req := httptest.NewRequest("POST", "/auth", strings.NewReader(`{"password":"hunter2"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "test-token", resp.Token)
}

func TestHandler_HandleLogin_WrongPassword(t *testing.T) {
	router := newTestRouter(new(MockService))

	req := httptest.NewRequest("POST", "/auth", strings.NewReader(`{"password":"wrong"}`))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Success)
	assert.Empty(t, resp.Token)
	assert.Equal(t, "invalid password", resp.Error)
}

func TestHandler_HandleLogin_InvalidJSON(t *testing.T) {
	router := newTestRouter(new(MockService))

	req := httptest.NewRequest("POST", "/auth", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_AuthGate(t *testing.T) {
	service := new(MockService)
	router := newTestRouter(service)

	tests := []struct {
		name   string
		method string
		target string
	}{
		{name: "get groups", method: "GET", target: "/groups"},
		{name: "save groups", method: "POST", target: "/groups"},
		{name: "upload", method: "POST", target: "/upload"},
		{name: "get image", method: "GET", target: "/image/g1/p1"},
		{name: "delete image", method: "DELETE", target: "/image/g1/p1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}

	// The gate fires before any handler runs.
	service.AssertNotCalled(t, "Groups", mock.Anything)
	service.AssertNotCalled(t, "Photo", mock.Anything, mock.Anything)
}

func TestHandler_HandleGetGroups_Empty(t *testing.T) {
	service := new(MockService)
	service.On("Groups", mock.Anything).Return(nil, photoapi.ErrNotFound)

	router := newTestRouter(service)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authed(httptest.NewRequest("GET", "/groups", nil)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"groups":[]}`, rec.Body.String())
}

func TestHandler_HandleGetGroups_Verbatim(t *testing.T) {
	doc := `{"groups":[{"id":"g1","name":"Rome","photos":[{"id":"p1","title":"Colosseum"}]}]}`

	service := new(MockService)
	service.On("Groups", mock.Anything).Return([]byte(doc), nil)

	router := newTestRouter(service)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authed(httptest.NewRequest("GET", "/groups", nil)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, doc, rec.Body.String())
}

func TestHandler_HandleSaveGroups(t *testing.T) {
	doc := `{"groups":[{"id":"g1","name":"Rome"}]}`

	service := new(MockService)
	service.On("SaveGroups", mock.Anything, mock.MatchedBy(func(r io.Reader) bool {
		data, err := io.ReadAll(r)
		return err == nil && string(data) == doc
	})).Return(photoapi.MetaData{Key: photoapi.GroupsKey}, nil)

	router := newTestRouter(service)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authed(httptest.NewRequest("POST", "/groups", strings.NewReader(doc))))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	service.AssertExpectations(t)
}

func multipartUpload(t *testing.T, fields map[string]string, filename, contentType string, file []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}

	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}

	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHandler_HandleUpload(t *testing.T) {
	service := new(MockService)
	service.On("UploadPhoto", mock.Anything, "g1", "p1", "image/jpeg", mock.Anything).
		Return("g1/p1", photoapi.MetaData{Key: "images/g1/p1"}, nil)

	router := newTestRouter(service)

	body, contentType := multipartUpload(t,
		map[string]string{"groupId": "g1", "photoId": "p1"},
		"photo.jpg", "image/jpeg", []byte("jpegdata"))

	req := authed(httptest.NewRequest("POST", "/upload", body))
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"key":"g1/p1"}`, rec.Body.String())

	service.AssertExpectations(t)
}

func TestHandler_HandleUpload_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		file   []byte
	}{
		{name: "no file", fields: map[string]string{"groupId": "g1", "photoId": "p1"}, file: nil},
		{name: "no group id", fields: map[string]string{"photoId": "p1"}, file: []byte("x")},
		{name: "no photo id", fields: map[string]string{"groupId": "g1"}, file: []byte("x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockService)
			router := newTestRouter(service)

			body, contentType := multipartUpload(t, tt.fields, "photo.jpg", "image/jpeg", tt.file)

			req := authed(httptest.NewRequest("POST", "/upload", body))
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			service.AssertNotCalled(t, "UploadPhoto", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestHandler_HandleUpload_NotMultipart(t *testing.T) {
	router := newTestRouter(new(MockService))

	req := authed(httptest.NewRequest("POST", "/upload", strings.NewReader("plain body")))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_HandleUpload_InvalidIdentifiers(t *testing.T) {
	service := new(MockService)
	service.On("UploadPhoto", mock.Anything, "../etc", "p1", "image/jpeg", mock.Anything).
		Return("", photoapi.MetaData{}, photoapi.ErrInvalidInput)

	router := newTestRouter(service)

	body, contentType := multipartUpload(t,
		map[string]string{"groupId": "../etc", "photoId": "p1"},
		"photo.jpg", "image/jpeg", []byte("x"))

	req := authed(httptest.NewRequest("POST", "/upload", body))
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_HandleGetImage(t *testing.T) {
	content := []byte("jpegdata")
	meta := photoapi.MetaData{
		Key:           "images/g1/p1",
		ContentType:   "image/jpeg",
		Etag:          "abc123",
		FileSizeBytes: int64(len(content)),
		UpdatedAt:     time.Now(),
	}

	service := new(MockService)
	service.On("Photo", mock.Anything, "g1/p1").
		Return(meta, readSeekNopCloser{bytes.NewReader(content)}, nil)

	router := newTestRouter(service)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authed(httptest.NewRequest("GET", "/image/g1/p1", nil)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, `"abc123"`, rec.Header().Get("ETag"))
	assert.Equal(t, "public, max-age=31536000", rec.Header().Get("Cache-Control"))
	assert.Equal(t, content, rec.Body.Bytes())
}

func TestHandler_HandleGetImage_NotFound(t *testing.T) {
	service := new(MockService)
	service.On("Photo", mock.Anything, "g1/missing").
		Return(photoapi.MetaData{}, nil, photoapi.ErrNotFound)

	router := newTestRouter(service)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authed(httptest.NewRequest("GET", "/image/g1/missing", nil)))

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp photohttp.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "not_found", resp.Error)
}

func TestHandler_HandleDeleteImage(t *testing.T) {
	service := new(MockService)
	service.On("DeletePhoto", mock.Anything, "g1/p1").Return(nil)

	router := newTestRouter(service)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authed(httptest.NewRequest("DELETE", "/image/g1/p1", nil)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	service.AssertExpectations(t)
}

func TestHandler_UnknownRoute(t *testing.T) {
	router := newTestRouter(new(MockService))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/does-not-exist", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp photohttp.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "not_found", resp.Error)
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	router := newTestRouter(new(MockService))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authed(httptest.NewRequest("PUT", "/groups", nil)))

	// Wrong methods collapse to 404 rather than advertising the route table.
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_MaxUploadSize(t *testing.T) {
	service := new(MockService)
	handler := photohttp.NewHandler(&photohttp.HandlerConfig{MaxUploadSize: 64}, allowAllAuth{}, service)
	router := handler.Router()

	body, contentType := multipartUpload(t,
		map[string]string{"groupId": "g1", "photoId": "p1"},
		"photo.jpg", "image/jpeg", bytes.Repeat([]byte("x"), 1024))

	req := authed(httptest.NewRequest("POST", "/upload", body))
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	service.AssertNotCalled(t, "UploadPhoto", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestHandler_TokenFlow exercises the full login-then-request flow against
// real token issuance and verification.
func TestHandler_TokenFlow(t *testing.T) {
	auth := photoapi.NewAuthenticator(photoapi.Credential{Password: "hunter2"})

	service := new(MockService)
	service.On("Groups", mock.Anything).Return(nil, photoapi.ErrNotFound)

	handler := photohttp.NewHandler(&photohttp.HandlerConfig{}, auth, service)
	router := handler.Router()

	// Login.
	req := httptest.NewRequest("POST", "/auth", strings.NewReader(`{"password":"hunter2"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var login struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&login))
	require.True(t, login.Success)
	require.NotEmpty(t, login.Token)

	// The issued token opens the gate.
	req = httptest.NewRequest("GET", "/groups", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"groups":[]}`, rec.Body.String())

	// A tampered token does not.
	req = httptest.NewRequest("GET", "/groups", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token+"x")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
