package resthttp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sir_venger/video_registry/internal/app/httpmw"
	"github.com/sir_venger/video_registry/internal/blobstore"
	"github.com/sir_venger/video_registry/internal/config"
	"github.com/sir_venger/video_registry/internal/logging"
	"github.com/sir_venger/video_registry/internal/metrics"
	meta "github.com/sir_venger/video_registry/internal/repo"
	"github.com/sir_venger/video_registry/internal/usecase/videosvc"
	"go.uber.org/zap"
)

type Server struct {
	Videos  videosvc.Service
	Storage blobstore.Backend
	Cfg     *config.Config

	log     *zap.Logger
	closers []func()
}

type addStoragesRequest struct {
	Storages []string `json:"storages"`
}

// NewServer конструктор: собирает хранилища по конфигурации и регистрирует маршруты.
func NewServer(ctx context.Context, cfg *config.Config, log *zap.Logger) (http.Handler, *Server, error) {
	log = logging.OrNop(log)
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := &Server{
		Cfg: cfg,
		log: log,
	}
	if err := srv.buildVideoService(ctx, metrics.New(reg)); err != nil {
		srv.Close()
		return nil, nil, err
	}

	rtr := chi.NewRouter()
	rtr.Use(middleware.RequestID, middleware.RealIP, httpmw.Logger(log), middleware.Recoverer)

	rtr.Get("/video", srv.listVideos)
	rtr.Post("/video", srv.registerVideo)
	rtr.Get("/video/{id}", srv.getVideo)
	rtr.Post("/video/{id}/data", srv.postVideoData)
	rtr.Get("/video/{id}/data", srv.getVideoData)

	rtr.Get("/health", func(w http.ResponseWriter, r *http.Request) { writeJSON(w, map[string]bool{"ok": true}) })
	rtr.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	rtr.Get("/admin/config", func(w http.ResponseWriter, r *http.Request) { writeJSON(w, cfg.Redacted()) })
	rtr.Post("/admin/storages", srv.addStorages)

	return rtr, srv, nil
}

func (s *Server) buildVideoService(ctx context.Context, m *metrics.Metrics) error {
	metaStorage, err := s.openMetaStorage(ctx)
	if err != nil {
		return err
	}

	storage, err := blobstore.Open(ctx, s.Cfg.Storage, s.log)
	if err != nil {
		return err
	}

	s.Storage = storage
	s.Videos = videosvc.New(videosvc.Deps{
		MetaStorage: metaStorage,
		Storage:     storage,
		Logger:      s.log,
		Metrics:     m,
	})
	return nil
}

func (s *Server) openMetaStorage(ctx context.Context) (videosvc.MetaStorage, error) {
	dsn := strings.TrimSpace(s.Cfg.MetaDSN)
	switch {
	case dsn == "" || strings.HasPrefix(dsn, "memory://"):
		ms := meta.NewMemoryStore()
		ms.Allocator().SetClaimWindow(s.Cfg.IDClaimWindow)
		return ms, nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		pg, err := meta.NewPGStore(ctx, dsn)
		if err != nil {
			return nil, err
		}
		pg.Allocator().SetClaimWindow(s.Cfg.IDClaimWindow)
		s.closers = append(s.closers, pg.Close)
		return pg, nil
	default:
		return nil, fmt.Errorf("unsupported meta_dsn %q", dsn)
	}
}

// Close освобождает подключения хранилищ.
func (s *Server) Close() {
	for _, c := range s.closers {
		c()
	}
	s.closers = nil
}

// addStorages добавляет storage-ноды в бэкенд nodes.
func (s *Server) addStorages(w http.ResponseWriter, r *http.Request) {
	nm, ok := s.Storage.(blobstore.NodeManager)
	if !ok {
		http.Error(w, "storage backend does not support nodes", http.StatusConflict)
		return
	}

	var payload addStoragesRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(payload.Storages) == 0 {
		http.Error(w, "storages list is empty", http.StatusBadRequest)
		return
	}

	nm.AddNodes(payload.Storages...)
	w.WriteHeader(http.StatusNoContent)
}

// baseURL: внешний адрес сервиса: из конфигурации либо из Host запроса.
func (s *Server) baseURL(r *http.Request) string {
	if s.Cfg.BaseURL != "" {
		return strings.TrimRight(s.Cfg.BaseURL, "/")
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
