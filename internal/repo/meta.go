package meta

import (
	"context"
	"sync"

	"github.com/sir_venger/video_registry/internal/models"
)

// MemoryStore хранит метаданные только в оперативной памяти.
// Порядок вставки сохраняется в отдельном слайсе для стабильного List.
type MemoryStore struct {
	alloc *Allocator

	mu     sync.RWMutex
	videos map[int64]models.Video
	order  []int64
}

// NewMemoryStore создаёт пустое in-memory хранилище со своим аллокатором.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithAllocator(NewAllocator(0))
}

// NewMemoryStoreWithAllocator создаёт хранилище поверх переданного аллокатора.
func NewMemoryStoreWithAllocator(alloc *Allocator) *MemoryStore {
	return &MemoryStore{
		alloc:  alloc,
		videos: map[int64]models.Video{},
	}
}

// Allocator отдаёт аллокатор, которым хранилище назначает id.
func (s *MemoryStore) Allocator() *Allocator {
	return s.alloc
}

// List возвращает снимок всех записей в порядке вставки.
func (s *MemoryStore) List(_ context.Context) ([]models.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Video, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.videos[id])
	}
	return out, nil
}

// Insert назначает записи id (см. Allocator.Resolve) и сохраняет её в состоянии UNBOUND.
func (s *MemoryStore) Insert(_ context.Context, v models.Video) (models.Video, error) {
	id, err := s.alloc.Resolve(v.ID)
	if err != nil {
		return models.Video{}, err
	}

	v.ID = id
	v.DataURL = ""
	v.State = models.StateUnbound

	s.mu.Lock()
	defer s.mu.Unlock()
	s.videos[id] = v
	s.order = append(s.order, id)
	return v, nil
}

// Get возвращает метаданные по id или models.ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, id int64) (models.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.videos[id]
	if !ok {
		return models.Video{}, models.ErrNotFound
	}
	return v, nil
}

// SetState обновляет состояние payload у существующей записи.
func (s *MemoryStore) SetState(_ context.Context, id int64, state models.VideoState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[id]
	if !ok {
		return models.ErrNotFound
	}
	v.State = state
	s.videos[id] = v
	return nil
}
