package storagehttp

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// requireBlobID валидирует path-параметр id и отвечает 404 на мусор.
func (a *Server) requireBlobID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := parseBlobID(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return 0, false
	}

	return id, true
}

// parseBlobID разбирает id видео: десятичное положительное число.
func parseBlobID(raw string) (int64, error) {
	if raw == "" {
		return 0, fmt.Errorf("invalid path")
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid blob id: %w", err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid blob id: must be positive")
	}

	return id, nil
}
