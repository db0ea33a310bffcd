package blobstore

import (
	"context"
	"strings"
	"sync"

	"github.com/sir_venger/video_registry/internal/models"
)

// StorageAdapter описывает источник знаний о доступности стораджей.
type StorageAdapter interface {
	Available(ctx context.Context, storages []string) []string
}

// Router отвечает за выбор storage-нод для записи payload.
type Router struct {
	mu             sync.Mutex
	configured     []string
	next           int
	StorageAdapter StorageAdapter
}

// NewRouter создаёт маршрутизатор с адаптером доступности.
func NewRouter(adapter StorageAdapter) *Router {
	return &Router{StorageAdapter: adapter}
}

// Set заменяет список стораджей на новый.
func (r *Router) Set(storages []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configured = nil
	r.next = 0
	r.addLocked(storages)
}

// Add добавляет новые стораджи, игнорируя дубликаты и пустые значения.
func (r *Router) Add(storages ...string) {
	if len(storages) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addLocked(storages)
}

func (r *Router) addLocked(storages []string) {
	known := make(map[string]struct{}, len(r.configured))
	for _, s := range r.configured {
		known[s] = struct{}{}
	}

	for _, storage := range storages {
		storage = strings.TrimRight(strings.TrimSpace(storage), "/")
		if storage == "" {
			continue
		}

		if _, exists := known[storage]; exists {
			continue
		}

		r.configured = append(r.configured, storage)
		known[storage] = struct{}{}
	}
}

// Nodes возвращает копию списка настроенных стораджей.
func (r *Router) Nodes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.configured...)
}

// Allocate выбирает сторадж для очередного blob'а по кругу среди готовых,
// упорядоченных от наименее загруженных.
func (r *Router) Allocate(ctx context.Context) (string, error) {
	snapshot := r.Nodes()
	if len(snapshot) == 0 {
		return "", models.ErrNoStorage
	}

	available := snapshot
	if r.StorageAdapter != nil {
		available = r.StorageAdapter.Available(ctx, snapshot)
	}
	if len(available) == 0 {
		// health недоступен ни у кого: пробуем настроенные как есть
		available = snapshot
	}

	r.mu.Lock()
	idx := r.next % len(available)
	r.next = (idx + 1) % len(available)
	r.mu.Unlock()

	return available[idx], nil
}
