package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/maysssss/photoapi"
)

// defaultMaxUploadMemory bounds the in-memory portion of multipart parsing;
// larger files spill to disk.
const defaultMaxUploadMemory = 32 << 20

// Service is the object-store surface the handlers dispatch to.
type Service interface {
	Groups(ctx context.Context) ([]byte, error)
	SaveGroups(ctx context.Context, content io.Reader) (photoapi.MetaData, error)
	UploadPhoto(ctx context.Context, groupID, photoID, contentType string, content io.Reader) (string, photoapi.MetaData, error)
	Photo(ctx context.Context, key string) (photoapi.MetaData, io.ReadSeekCloser, error)
	DeletePhoto(ctx context.Context, key string) error
}

// Authenticator is the credential gate: password login plus token
// verification.
type Authenticator interface {
	Login(password string) (string, error)
	Verify(token string) bool
}

// CORSConfig mirrors the cors middleware options carried in configuration.
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// HandlerConfig configures the router.
type HandlerConfig struct {
	CORS          CORSConfig
	MaxUploadSize int64
}

// Handler provides the HTTP handlers for the photo gateway.
type Handler struct {
	config  HandlerConfig
	auth    Authenticator
	service Service
}

// NewHandler creates a Handler from its configuration and collaborators.
func NewHandler(config *HandlerConfig, auth Authenticator, service Service) *Handler {
	return &Handler{
		config:  *config,
		auth:    auth,
		service: service,
	}
}

// Router builds the route table. POST /auth is the only route outside the
// auth gate; everything else passes through the bearer-token middleware
// first, and the recoverer guarantees a JSON response on any panic.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: h.config.CORS.AllowCredentials,
		MaxAge:           h.config.CORS.MaxAge,
	}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusNotFound, "not_found", "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusNotFound, "not_found", "Not found")
	})

	r.Post("/auth", h.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(h.auth))
		r.Get("/groups", h.handleGetGroups)
		r.Post("/groups", h.handleSaveGroups)
		r.Post("/upload", h.handleUpload)
		r.Get("/image/*", h.handleGetImage)
		r.Delete("/image/*", h.handleDeleteImage)
	})

	return r
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "Invalid JSON body")
		return
	}

	token, err := h.auth.Login(req.Password)
	if err != nil {
		if errors.Is(err, photoapi.ErrInvalidCredentials) {
			_ = WriteJSON(w, http.StatusUnauthorized, loginResponse{
				Success: false,
				Error:   "invalid password",
			})
			return
		}
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, loginResponse{Success: true, Token: token})
}

func (h *Handler) handleGetGroups(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.Groups(r.Context())
	if err != nil {
		if errors.Is(err, photoapi.ErrNotFound) {
			// No document yet is an empty collection, not an error.
			_ = WriteJSON(w, http.StatusOK, photoapi.GroupsDocument{Groups: []photoapi.Group{}})
			return
		}
		HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) handleSaveGroups(w http.ResponseWriter, r *http.Request) {
	body := r.Body
	if h.config.MaxUploadSize > 0 {
		body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadSize)
	}

	if _, err := h.service.SaveGroups(r.Context(), body); err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, successResponse{Success: true})
}

type uploadResponse struct {
	Success bool   `json:"success"`
	Key     string `json:"key"`
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if h.config.MaxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadSize)
	}

	if err := r.ParseMultipartForm(defaultMaxUploadMemory); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "Invalid multipart form")
		return
	}

	groupID := r.FormValue("groupId")
	photoID := r.FormValue("photoId")

	file, header, err := r.FormFile("file")
	if err != nil || groupID == "" || photoID == "" {
		if file != nil {
			_ = file.Close()
		}
		WriteError(w, http.StatusBadRequest, "bad_request", "Missing required fields: file, groupId, photoId")
		return
	}
	defer func() { _ = file.Close() }()

	key, _, err := h.service.UploadPhoto(r.Context(), groupID, photoID, header.Header.Get("Content-Type"), file)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, uploadResponse{Success: true, Key: key})
}

func (h *Handler) handleGetImage(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" {
		WriteError(w, http.StatusNotFound, "not_found", "Not found")
		return
	}

	m, content, err := h.service.Photo(r.Context(), key)
	if err != nil {
		if errors.Is(err, photoapi.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "not_found", "Image not found")
		} else {
			HandleError(w, err)
		}
		return
	}
	defer func() { _ = content.Close() }()

	w.Header().Set("Content-Type", m.ContentType)
	w.Header().Set("ETag", `"`+m.Etag+`"`)
	w.Header().Set("Cache-Control", "public, max-age=31536000")

	http.ServeContent(w, r, "", m.UpdatedAt, content)
}

func (h *Handler) handleDeleteImage(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" {
		WriteError(w, http.StatusNotFound, "not_found", "Not found")
		return
	}

	// Deleting an absent key succeeds; the service swallows not-found.
	if err := h.service.DeletePhoto(r.Context(), key); err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, successResponse{Success: true})
}
