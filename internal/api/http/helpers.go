package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/courseloop/courseloop-lms/internal/quiz"
)

// Handlers only; routes remain in main.go.

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// httpError maps the engine's error taxonomy onto status codes.
// Nothing here is retryable; the client gets the verdict synchronously.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case quiz.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, quiz.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, quiz.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, quiz.ErrInvalidState):
		http.Error(w, "invalid state", http.StatusUnprocessableEntity)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
