package videosvc

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sir_venger/video_registry/internal/logging"
	"github.com/sir_venger/video_registry/internal/metrics"
	"github.com/sir_venger/video_registry/internal/models"
	"go.uber.org/zap"
)

// Binder связывает payload с метаданными и ведёт состояние UNBOUND → PROCESSING → READY|FAILED.
// Загрузки в один id сериализуются; загрузки в разные id и операции с метаданными
// во время передачи данных не блокируются.
type Binder struct {
	meta    MetaStorage
	storage Storage
	locks   *keyLock
	log     *zap.Logger
	metrics *metrics.Metrics
}

// NewBinder создаёт Binder поверх хранилищ метаданных и payload.
func NewBinder(meta MetaStorage, storage Storage, log *zap.Logger, m *metrics.Metrics) *Binder {
	return &Binder{
		meta:    meta,
		storage: storage,
		locks:   newKeyLock(),
		log:     logging.OrNop(log),
		metrics: m,
	}
}

// Bind полностью вычитывает r в хранилище. READY выставляется только после успешного Store;
// при любой ошибке (включая отмену ctx) запись остаётся в FAILED.
func (b *Binder) Bind(ctx context.Context, id int64, r io.Reader) (models.VideoState, error) {
	if _, err := b.meta.Get(ctx, id); err != nil {
		b.metrics.BindRejected(resultOf(err))
		return "", err
	}

	unlock, err := b.locks.Lock(ctx, id)
	if err != nil {
		return "", err
	}
	defer unlock()

	if err = b.meta.SetState(ctx, id, models.StateProcessing); err != nil {
		return "", err
	}
	b.metrics.BindStarted()

	counter := &countingReader{r: r}
	if err = b.storage.Store(ctx, id, counter); err != nil {
		// Отметка FAILED не должна теряться из-за отменённого контекста вызывающего.
		if stateErr := b.meta.SetState(context.WithoutCancel(ctx), id, models.StateFailed); stateErr != nil {
			b.log.Error("mark payload failed", zap.Int64("id", id), zap.Error(stateErr))
		}
		b.metrics.BindFinished(metrics.ResultError, 0)
		b.log.Warn("payload bind failed", zap.Int64("id", id), zap.Int64("bytes", counter.n), zap.Error(err))

		return models.StateFailed, &models.StorageError{Op: "store", ID: id, Err: err}
	}

	if err = b.meta.SetState(context.WithoutCancel(ctx), id, models.StateReady); err != nil {
		if stateErr := b.meta.SetState(context.WithoutCancel(ctx), id, models.StateFailed); stateErr != nil {
			b.log.Error("mark payload failed", zap.Int64("id", id), zap.Error(stateErr))
		}
		b.metrics.BindFinished(metrics.ResultError, 0)
		return models.StateFailed, fmt.Errorf("mark payload ready: %w", err)
	}
	b.metrics.BindFinished(metrics.ResultOK, counter.n)
	b.log.Info("payload bound", zap.Int64("id", id), zap.Int64("bytes", counter.n))

	return models.StateReady, nil
}

// Fetch пишет payload в w. Отсутствие записи, незагруженный payload и отказ хранилища
// при чтении одинаково сообщаются как models.ErrNotFound; отказ хранилища дополнительно
// доступен через errors.As(*models.StorageError).
func (b *Binder) Fetch(ctx context.Context, id int64, w io.Writer) error {
	v, err := b.meta.Get(ctx, id)
	if err != nil {
		b.metrics.Fetched(resultOf(err))
		return err
	}
	if v.State != models.StateReady {
		b.metrics.Fetched(metrics.ResultNotFound)
		return models.ErrPayloadMissing
	}

	if err = b.storage.Retrieve(ctx, id, w); err != nil {
		b.metrics.Fetched(metrics.ResultNotFound)
		b.log.Warn("payload retrieve failed", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("%w: %w", models.ErrNotFound, &models.StorageError{Op: "retrieve", ID: id, Err: err})
	}

	b.metrics.Fetched(metrics.ResultOK)
	return nil
}

func resultOf(err error) string {
	if errors.Is(err, models.ErrNotFound) {
		return metrics.ResultNotFound
	}
	return metrics.ResultError
}

// countingReader считает прочитанные байты для логов и метрик.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
