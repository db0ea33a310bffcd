package resthttp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sir_venger/video_registry/internal/models"
	"github.com/sir_venger/video_registry/pkg/httperrors"
)

// listVideos отдаёт все зарегистрированные метаданные.
func (s *Server) listVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := s.Videos.List(r.Context(), s.baseURL(r))
	if err != nil {
		httperrors.Write(w, err)
		return
	}
	writeJSON(w, videos)
}

// registerVideo принимает метаданные и возвращает их с назначенным id и dataUrl.
func (s *Server) registerVideo(w http.ResponseWriter, r *http.Request) {
	var v models.Video
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		httperrors.Write(w, fmt.Errorf("%w: %v", httperrors.ErrBadRequest, err))
		return
	}

	saved, err := s.Videos.Register(r.Context(), s.baseURL(r), v)
	if err != nil {
		httperrors.Write(w, err)
		return
	}
	writeJSON(w, saved)
}

// getVideo отдаёт одну запись.
func (s *Server) getVideo(w http.ResponseWriter, r *http.Request) {
	id, err := videoID(r)
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	v, err := s.Videos.Get(r.Context(), s.baseURL(r), id)
	if err != nil {
		httperrors.Write(w, err)
		return
	}
	writeJSON(w, v)
}

// videoID достаёт id из path-параметра chi.
func videoID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, models.ErrInvalidID
	}
	return id, nil
}
