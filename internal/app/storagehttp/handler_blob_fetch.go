package storagehttp

import (
	"io"
	"net/http"
	"strconv"

	"github.com/sir_venger/video_registry/pkg/storageproto"
	"go.uber.org/zap"
)

// fetchBlob обслуживает GET-запросы, возвращая содержимое payload.
func (a *Server) fetchBlob(w http.ResponseWriter, r *http.Request) {
	id, ok := a.requireBlobID(w, r)
	if !ok {
		return
	}

	f, err := a.store.Open(id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	size := info.Size()
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.Header().Set(storageproto.HeaderBlobSize, strconv.FormatInt(size, 10))
	w.Header().Set("Content-Type", "application/octet-stream")

	// заголовки уже ушли, статус поменять нельзя
	if _, err = io.Copy(w, f); err != nil {
		a.log.Warn("stream blob", zap.Int64("id", id), zap.Error(err))
	}
}
