package meta

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
)

const videosTable = "videos"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PGStore сохраняет метаданные в Postgres. Идентификаторы по-прежнему выдаёт
// in-process Allocator, засеянный максимальным id из таблицы.
type PGStore struct {
	pool  *pgxpool.Pool
	alloc *Allocator
}

// NewPGStore создаёт подключение к Postgres и засевает аллокатор из таблицы videos.
func NewPGStore(ctx context.Context, dsn string) (*PGStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("meta dsn is empty")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}

	sqlStr, args, err := psql.Select("COALESCE(MAX(id), 0)").From(videosTable).ToSql()
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("build max id: %w", err)
	}

	var last int64
	if err = pool.QueryRow(ctx, sqlStr, args...).Scan(&last); err != nil {
		pool.Close()
		return nil, fmt.Errorf("seed allocator: %w", err)
	}

	return &PGStore{
		pool:  pool,
		alloc: NewAllocator(last),
	}, nil
}

// Allocator отдаёт аллокатор, которым хранилище назначает id.
func (s *PGStore) Allocator() *Allocator {
	return s.alloc
}

// Close освобождает подключения пула.
func (s *PGStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
