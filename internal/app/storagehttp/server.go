package storagehttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sir_venger/video_registry/internal/app/httpmw"
	"github.com/sir_venger/video_registry/internal/blobstore"
	"github.com/sir_venger/video_registry/internal/logging"
	"go.uber.org/zap"
)

// Server serves the storage node HTTP API on top of the local filesystem.
type Server struct {
	store *blobstore.FSStore
	log   *zap.Logger
}

// New создаёт HTTP-обработчик стоража поверх файлового хранилища.
func New(store *blobstore.FSStore, log *zap.Logger) http.Handler {
	srv := &Server{
		store: store,
		log:   logging.OrNop(log),
	}

	return srv.routes()
}

// routes регистрирует обработчики для blob'ов, здоровья и GC.
func (a *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, httpmw.Logger(a.log), middleware.Recoverer)

	r.Route("/blobs/{id}", func(br chi.Router) {
		br.Put("/", a.insertBlob)
		br.Get("/", a.fetchBlob)
		br.Head("/", a.inspectBlob)
	})

	r.Get("/health", a.health)
	r.Post("/admin/gc", a.gcOnce)

	return r
}
