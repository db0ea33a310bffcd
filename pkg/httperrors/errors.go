package httperrors

import (
	"context"
	"errors"
	"net/http"

	"github.com/sir_venger/video_registry/internal/models"
)

// ErrBadRequest помечает ошибки разбора запроса на границе HTTP.
var ErrBadRequest = errors.New("bad request")

// Write переводит ошибку сервиса в HTTP-статус. NotFound проверяется раньше StorageError:
// отказ хранилища при чтении payload наружу выглядит как 404.
func Write(w http.ResponseWriter, err error) {
	var maxBytes *http.MaxBytesError

	switch {
	case errors.As(err, &maxBytes):
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, ErrBadRequest), errors.Is(err, models.ErrInvalidID):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, models.ErrNoStorage):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		http.Error(w, err.Error(), http.StatusRequestTimeout)
	case errors.Is(err, models.ErrStorage):
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
