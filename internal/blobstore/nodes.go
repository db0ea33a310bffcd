package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/sir_venger/video_registry/internal/logging"
	"github.com/sir_venger/video_registry/pkg/storageclient"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// NodesStore раскладывает payload по storage-нодам: один blob целиком на одну ноду.
// Размещение запоминается в памяти; если оно неизвестно (например, после рестарта),
// Retrieve ищет blob на всех нодах через HEAD и берёт самую свежую копию:
// после повторной загрузки на другую ноду старая копия остаётся на прежней.
type NodesStore struct {
	Router *Router
	client storageclient.Client
	log    *zap.Logger

	mu        sync.RWMutex
	placement map[int64]string
}

// NewNodesStore создаёт бэкенд поверх маршрутизатора и HTTP-клиента нод.
func NewNodesStore(router *Router, client storageclient.Client, log *zap.Logger) *NodesStore {
	return &NodesStore{
		Router:    router,
		client:    client,
		log:       logging.OrNop(log),
		placement: map[int64]string{},
	}
}

// AddNodes добавляет storage-ноды без удаления существующих.
func (s *NodesStore) AddNodes(nodes ...string) {
	s.Router.Add(nodes...)
}

// Store выбирает ноду и стримит на неё payload.
func (s *NodesStore) Store(ctx context.Context, id int64, r io.Reader) error {
	node, err := s.Router.Allocate(ctx)
	if err != nil {
		return err
	}

	err = s.client.PutBlob(ctx, node, storageclient.PutBlobRequest{
		ID:     id,
		Reader: r,
		Size:   -1,
	})
	if err != nil {
		return fmt.Errorf("put blob to %s: %w", node, err)
	}

	s.mu.Lock()
	s.placement[id] = node
	s.mu.Unlock()

	s.log.Debug("blob placed", zap.Int64("id", id), zap.String("node", node))
	return nil
}

// Retrieve копирует payload с ноды, на которой он лежит, в w.
func (s *NodesStore) Retrieve(ctx context.Context, id int64, w io.Writer) error {
	node, err := s.locate(ctx, id)
	if err != nil {
		return err
	}

	rc, err := s.client.GetBlob(ctx, node, id)
	if err != nil {
		return fmt.Errorf("get blob from %s: %w", node, err)
	}
	defer rc.Close()

	_, err = io.Copy(w, rc)
	return err
}

func (s *NodesStore) locate(ctx context.Context, id int64) (string, error) {
	s.mu.RLock()
	node, ok := s.placement[id]
	s.mu.RUnlock()
	if ok {
		return node, nil
	}

	nodes := s.Router.Nodes()
	found := make([]*storageclient.BlobInfo, len(nodes))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, n := range nodes {
		eg.Go(func() error {
			info, err := s.client.HeadBlob(egCtx, n, id)
			switch {
			case err == nil:
				found[i] = &info
			case !errors.Is(err, storageclient.ErrBlobNotFound):
				s.log.Warn("probe storage node", zap.String("node", n), zap.Int64("id", id), zap.Error(err))
			}
			return nil
		})
	}
	_ = eg.Wait()

	best := -1
	for i, info := range found {
		if info == nil {
			continue
		}
		if best < 0 || info.StoredAt.After(found[best].StoredAt) {
			best = i
		}
	}
	if best < 0 {
		return "", storageclient.ErrBlobNotFound
	}

	s.mu.Lock()
	s.placement[id] = nodes[best]
	s.mu.Unlock()
	return nodes[best], nil
}
