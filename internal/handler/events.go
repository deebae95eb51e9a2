package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/forgo/guildhall/api/internal/model"
	"github.com/forgo/guildhall/api/internal/service"
)

// EventsHandler handles SSE event streaming
type EventsHandler struct {
	svc      *service.RegistryService
	eventHub *service.EventHub
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(svc *service.RegistryService, eventHub *service.EventHub) *EventsHandler {
	return &EventsHandler{
		svc:      svc,
		eventHub: eventHub,
	}
}

// RegisterRoutes registers the event stream route
func (h *EventsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/events", h.Stream)
}

// Stream handles GET /v1/events. The first event is INIT with a full
// snapshot, followed by every change and periodic HEARTBEAT events.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, model.NewInternalError("streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	// The server WriteTimeout would otherwise cut the stream
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	subscriberID := uuid.New().String()
	snapshot, sub := h.svc.SnapshotAndSubscribe(h.eventHub, subscriberID)
	defer h.eventHub.Unsubscribe(subscriberID)

	initial := &service.Event{Type: service.EventInit, Data: snapshot}
	fmt.Fprint(w, initial.Format())
	flusher.Flush()

	for {
		select {
		case event, ok := <-sub.Events:
			if !ok {
				return
			}
			fmt.Fprint(w, event.Format())
			flusher.Flush()

		case <-sub.Done:
			return

		case <-r.Context().Done():
			return
		}
	}
}
