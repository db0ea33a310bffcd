package meta

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/sir_venger/video_registry/internal/models"
)

// Insert назначает записи id и сохраняет её в состоянии UNBOUND.
func (s *PGStore) Insert(ctx context.Context, v models.Video) (models.Video, error) {
	id, err := s.alloc.Resolve(v.ID)
	if err != nil {
		return models.Video{}, err
	}
	v.ID = id
	v.DataURL = ""
	v.State = models.StateUnbound

	sqlStr, args, err := psql.Insert(videosTable).
		Columns("id", "title", "duration", "location", "subject", "content_type", "state").
		Values(v.ID, v.Title, v.Duration, v.Location, v.Subject, v.ContentType, string(v.State)).
		ToSql()
	if err != nil {
		return models.Video{}, fmt.Errorf("build insert sql: %w", err)
	}

	if _, err = s.pool.Exec(ctx, sqlStr, args...); err != nil {
		return models.Video{}, fmt.Errorf("exec insert: %w", err)
	}
	return v, nil
}

// SetState обновляет состояние payload у существующей записи.
func (s *PGStore) SetState(ctx context.Context, id int64, state models.VideoState) error {
	sqlStr, args, err := psql.Update(videosTable).
		Set("state", string(state)).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update sql: %w", err)
	}

	tag, err := s.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("exec update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
