package storagehttp

import (
	"net/http"
	"strconv"
	"time"

	"github.com/sir_venger/video_registry/pkg/storageproto"
)

// inspectBlob отвечает на HEAD-запросы метаданными payload.
func (a *Server) inspectBlob(w http.ResponseWriter, r *http.Request) {
	id, ok := a.requireBlobID(w, r)
	if !ok {
		return
	}

	info, err := a.store.Stat(id)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set(storageproto.HeaderBlobSize, strconv.FormatInt(info.Size, 10))
	w.Header().Set(storageproto.HeaderChecksum, info.Sha256)
	w.Header().Set(storageproto.HeaderStoredAt, info.StoredAt.UTC().Format(time.RFC3339Nano))
	w.WriteHeader(http.StatusOK)
}
