package storagehttp

import (
	"net/http"
	"sync"
	"time"

	"github.com/sir_venger/video_registry/internal/blobstore"
	"github.com/sir_venger/video_registry/internal/logging"
	"go.uber.org/zap"
)

const manualGCTTL = 24 * time.Hour

// gcOnce вручную запускает удаление брошенных временных файлов.
func (a *Server) gcOnce(w http.ResponseWriter, _ *http.Request) {
	if err := a.store.Sweep(manualGCTTL); err != nil {
		a.log.Warn("manual gc", zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}

// StartGC стартует периодическую очистку каталога.
func StartGC(store *blobstore.FSStore, ttl time.Duration, every time.Duration, log *zap.Logger) func() {
	if every <= 0 || ttl <= 0 {
		return func() {}
	}
	log = logging.OrNop(log)

	ticker := time.NewTicker(every)
	stop := make(chan struct{})
	var once sync.Once
	go func() {
		for {
			select {
			case <-ticker.C:
				if err := store.Sweep(ttl); err != nil {
					log.Warn("periodic gc", zap.Error(err))
				}
			case <-stop:
				ticker.Stop()
				return
			}
		}
	}()

	return func() {
		once.Do(func() {
			close(stop)
		})
	}
}
