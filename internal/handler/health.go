package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/forgo/guildhall/api/internal/model"
)

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Pinger checks a backing store
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ready returns a handler for GET /ready that fails while the store is unreachable
func Ready(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			pd := model.NewInternalError("store unavailable")
			pd.Status = http.StatusServiceUnavailable
			pd.Title = "Service Unavailable"
			WriteError(w, pd)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
