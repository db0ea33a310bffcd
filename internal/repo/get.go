package meta

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/sir_venger/video_registry/internal/models"
)

var videoColumns = []string{"id", "title", "duration", "location", "subject", "content_type", "state"}

// Get возвращает метаданные видео по его идентификатору.
func (s *PGStore) Get(ctx context.Context, id int64) (models.Video, error) {
	sqlStr, args, err := psql.Select(videoColumns...).
		From(videosTable).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return models.Video{}, fmt.Errorf("build select: %w", err)
	}

	v, err := scanVideo(s.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, models.ErrNotFound
		}
		return models.Video{}, fmt.Errorf("scan video row: %w", err)
	}
	return v, nil
}

// List возвращает все записи в порядке вставки.
func (s *PGStore) List(ctx context.Context) ([]models.Video, error) {
	sqlStr, args, err := psql.Select(videoColumns...).
		From(videosTable).
		OrderBy("seq").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	out := []models.Video{}
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video row: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanVideo(row pgx.Row) (models.Video, error) {
	var (
		v     models.Video
		state string
	)
	if err := row.Scan(&v.ID, &v.Title, &v.Duration, &v.Location, &v.Subject, &v.ContentType, &state); err != nil {
		return models.Video{}, err
	}
	v.State = models.VideoState(state)
	return v, nil
}
