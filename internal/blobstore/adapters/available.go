package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/sir_venger/video_registry/pkg/storageproto"
	"golang.org/x/sync/errgroup"
)

var healthHTTPClient = &http.Client{Timeout: 2 * time.Second}

// HealthAdapter определяет готовность стораджей по их health-эндпоинтам.
type HealthAdapter struct {
	MaxStorageLoadBytes int64
	client              *http.Client
}

// NewHealthAdapter инициализирует адаптер доступности.
func NewHealthAdapter(maxLoad int64) *HealthAdapter {
	return &HealthAdapter{
		MaxStorageLoadBytes: maxLoad,
		client:              healthHTTPClient,
	}
}

// Available опрашивает стораджи параллельно и возвращает готовые, отсортированные по загрузке.
func (a *HealthAdapter) Available(ctx context.Context, storages []string) []string {
	if len(storages) == 0 {
		return nil
	}

	type candidate struct {
		base  string
		load  int64
		ready bool
	}

	probes := make([]candidate, len(storages))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, base := range storages {
		eg.Go(func() error {
			info, err := a.fetchStorageHealth(egCtx, base)
			if err != nil || !info.OK || !a.loadAcceptable(info.TotalBytes) {
				// недоступная нода не отменяет опрос остальных
				return nil
			}
			probes[i] = candidate{base: base, load: info.TotalBytes, ready: true}
			return nil
		})
	}
	_ = eg.Wait()

	ready := make([]candidate, 0, len(probes))
	for _, c := range probes {
		if c.ready {
			ready = append(ready, c)
		}
	}

	sort.SliceStable(ready, func(i, j int) bool {
		return ready[i].load < ready[j].load
	})

	result := make([]string, len(ready))
	for i, c := range ready {
		result[i] = c.base
	}
	return result
}

func (a *HealthAdapter) loadAcceptable(load int64) bool {
	if a.MaxStorageLoadBytes <= 0 {
		return true
	}
	return load <= a.MaxStorageLoadBytes
}

func (a *HealthAdapter) fetchStorageHealth(ctx context.Context, base string) (payload storageproto.Health, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL(base), nil)
	if err != nil {
		return storageproto.Health{}, err
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return storageproto.Health{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return storageproto.Health{}, fmt.Errorf("health check failed: %s", resp.Status)
	}

	if err = json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return storageproto.Health{}, err
	}

	return payload, nil
}

func healthURL(base string) string {
	return strings.TrimRight(base, "/") + storageproto.HealthPath
}
