package storagehttp

import (
	"errors"
	"net/http"
	"strings"

	"github.com/sir_venger/video_registry/internal/blobstore"
	"github.com/sir_venger/video_registry/pkg/storageproto"
	"go.uber.org/zap"
)

var (
	errSizeMismatch     = errors.New("size mismatch")
	errChecksumMismatch = errors.New("sha256 mismatch")
)

// insertBlob принимает PUT-запросы на запись payload.
func (a *Server) insertBlob(w http.ResponseWriter, r *http.Request) {
	id, ok := a.requireBlobID(w, r)
	if !ok {
		return
	}

	// -1, если клиент прислал тело chunked
	expSize := r.ContentLength
	info, err := a.store.Write(r.Context(), id, r.Body, func(info blobstore.BlobInfo) error {
		if expSize >= 0 && info.Size != expSize {
			return errSizeMismatch
		}

		// Хеш приходит либо заголовком, либо трейлером после тела.
		expSha := r.Header.Get(storageproto.HeaderChecksum)
		if expSha == "" {
			expSha = r.Trailer.Get(storageproto.HeaderChecksum)
		}
		if expSha != "" && !strings.EqualFold(expSha, info.Sha256) {
			return errChecksumMismatch
		}
		return nil
	})

	switch {
	case err == nil:
	case errors.Is(err, errSizeMismatch):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, errChecksumMismatch):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	default:
		a.log.Error("write blob", zap.Int64("id", id), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set(storageproto.HeaderChecksum, info.Sha256)
	w.WriteHeader(http.StatusCreated)
}
