package blobstore

import (
	"context"
	"fmt"
	"io"

	"github.com/sir_venger/video_registry/internal/blobstore/adapters"
	"github.com/sir_venger/video_registry/internal/config"
	"github.com/sir_venger/video_registry/pkg/storageclient"
	"go.uber.org/zap"
)

// Backend общий контракт бэкендов хранения payload.
type Backend interface {
	Store(ctx context.Context, id int64, r io.Reader) error
	Retrieve(ctx context.Context, id int64, w io.Writer) error
}

// NodeManager реализуют бэкенды, которым можно добавлять ноды на лету.
type NodeManager interface {
	AddNodes(nodes ...string)
}

var (
	_ Backend     = (*FSStore)(nil)
	_ Backend     = (*NodesStore)(nil)
	_ Backend     = (*S3Store)(nil)
	_ NodeManager = (*NodesStore)(nil)
)

// Open создаёт бэкенд по конфигурации.
func Open(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (Backend, error) {
	switch cfg.Kind {
	case "", config.StorageKindFS:
		return NewFSStore(cfg.Dir)
	case config.StorageKindNodes:
		router := NewRouter(adapters.NewHealthAdapter(0))
		router.Set(cfg.Nodes)
		return NewNodesStore(router, storageclient.New(log), log), nil
	case config.StorageKindS3:
		return NewS3Store(ctx, cfg.Bucket, cfg.Prefix)
	default:
		return nil, fmt.Errorf("unknown storage kind %q", cfg.Kind)
	}
}
