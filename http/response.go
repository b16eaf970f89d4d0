package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/maysssss/photoapi"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errCode,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError writes the appropriate error response based on error kind.
// Anything unrecognized maps to a generic internal error; underlying
// messages are logged, not leaked.
func HandleError(w http.ResponseWriter, err error) {
	slog.Error("request error", "error", err)

	switch {
	case errors.Is(err, photoapi.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "Not found")
	case errors.Is(err, photoapi.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, "bad_request", "Invalid input")
	case errors.Is(err, photoapi.ErrInvalidCredentials), errors.Is(err, photoapi.ErrUnauthorized):
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
