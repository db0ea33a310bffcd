package storagehttp

import (
	"encoding/json"
	"net/http"

	"github.com/sir_venger/video_registry/pkg/storageproto"
)

// health возвращает агрегированную статистику по данным стоража.
func (a *Server) health(w http.ResponseWriter, _ *http.Request) {
	total, err := a.store.Usage()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// У стораджа нет сложных метрик, поэтому отдаём только total и флаг OK.
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(storageproto.Health{
		OK:         true,
		TotalBytes: total,
	})
}
