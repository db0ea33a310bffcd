package videosvc

import (
	"context"
	"io"

	"github.com/sir_venger/video_registry/internal/logging"
	"github.com/sir_venger/video_registry/internal/metrics"
	"github.com/sir_venger/video_registry/internal/models"
	"go.uber.org/zap"
)

type (
	// MetaStorage хранилище метаданных видео
	MetaStorage interface {
		List(ctx context.Context) ([]models.Video, error)
		Insert(ctx context.Context, v models.Video) (models.Video, error)
		Get(ctx context.Context, id int64) (models.Video, error)
		SetState(ctx context.Context, id int64, state models.VideoState) error
	}

	// Storage внешнее хранилище payload. Оба вызова блокирующие.
	Storage interface {
		Store(ctx context.Context, id int64, r io.Reader) error
		Retrieve(ctx context.Context, id int64, w io.Writer) error
	}

	// Service объединяет операции реестра: список, регистрация, загрузка и выдача payload.
	// base: внешний адрес сервиса, из которого строится dataUrl.
	Service interface {
		List(ctx context.Context, base string) ([]models.Video, error)
		Register(ctx context.Context, base string, v models.Video) (models.Video, error)
		Get(ctx context.Context, base string, id int64) (models.Video, error)
		Bind(ctx context.Context, id int64, r io.Reader) (models.VideoStatus, error)
		Fetch(ctx context.Context, id int64, w io.Writer) error
	}
)

type Deps struct {
	MetaStorage MetaStorage
	Storage     Storage
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
}

type Videos struct {
	Deps
	binder *Binder
}

// New конструирует сервис реестра с заданными зависимостями.
func New(deps Deps) *Videos {
	deps.Logger = logging.OrNop(deps.Logger)
	return &Videos{
		Deps:   deps,
		binder: NewBinder(deps.MetaStorage, deps.Storage, deps.Logger, deps.Metrics),
	}
}

var _ Service = (*Videos)(nil)

// List возвращает снимок всех записей с вычисленным dataUrl.
func (s *Videos) List(ctx context.Context, base string) ([]models.Video, error) {
	videos, err := s.MetaStorage.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range videos {
		videos[i] = videos[i].WithDataURL(base)
	}
	return videos, nil
}

// Register сохраняет метаданные, назначая id, и возвращает запись с dataUrl.
func (s *Videos) Register(ctx context.Context, base string, v models.Video) (models.Video, error) {
	saved, err := s.MetaStorage.Insert(ctx, v)
	if err != nil {
		return models.Video{}, err
	}
	s.Metrics.Registered()
	s.Logger.Info("video registered", zap.Int64("id", saved.ID), zap.String("title", saved.Title))

	return saved.WithDataURL(base), nil
}

// Get возвращает одну запись по id.
func (s *Videos) Get(ctx context.Context, base string, id int64) (models.Video, error) {
	v, err := s.MetaStorage.Get(ctx, id)
	if err != nil {
		return models.Video{}, err
	}
	return v.WithDataURL(base), nil
}

// Bind привязывает payload к существующей записи.
func (s *Videos) Bind(ctx context.Context, id int64, r io.Reader) (models.VideoStatus, error) {
	state, err := s.binder.Bind(ctx, id, r)
	return models.VideoStatus{State: state}, err
}

// Fetch пишет payload записи в w.
func (s *Videos) Fetch(ctx context.Context, id int64, w io.Writer) error {
	return s.binder.Fetch(ctx, id, w)
}
