package handler

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/forgo/guildhall/api/internal/service"
)

const (
	socketWriteWait  = 10 * time.Second
	socketPongWait   = 60 * time.Second
	socketPingPeriod = (socketPongWait * 9) / 10
)

// SocketHandler broadcasts change events to websocket clients
type SocketHandler struct {
	svc      *service.RegistryService
	eventHub *service.EventHub
	upgrader websocket.Upgrader
}

// NewSocketHandler creates a websocket handler. An empty origin list or "*"
// accepts any origin.
func NewSocketHandler(svc *service.RegistryService, eventHub *service.EventHub, allowedOrigins []string) *SocketHandler {
	return &SocketHandler{
		svc:      svc,
		eventHub: eventHub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || len(allowedOrigins) == 0 {
					return true
				}
				return slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// RegisterRoutes registers the websocket route
func (h *SocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /socket", h.Serve)
}

// Serve handles GET /socket. The client receives INIT with a snapshot, then
// every change as {"event","data"}. Messages from the client are ignored.
func (h *SocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		slog.Debug("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer func() { _ = conn.Close() }()

	subscriberID := uuid.New().String()
	snapshot, sub := h.svc.SnapshotAndSubscribe(h.eventHub, subscriberID)
	defer h.eventHub.Unsubscribe(subscriberID)

	closed := make(chan struct{})
	go readUntilClosed(conn, closed)

	if err := writeEvent(conn, &service.Event{Type: service.EventInit, Data: snapshot}); err != nil {
		return
	}

	ping := time.NewTicker(socketPingPeriod)
	defer ping.Stop()

	for {
		select {
		case event, ok := <-sub.Events:
			if !ok {
				return
			}
			// Websocket clients stay alive through ping frames instead
			if event.Type == service.EventHeartbeat {
				continue
			}
			if err := writeEvent(conn, event); err != nil {
				return
			}

		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(socketWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-sub.Done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(socketWriteWait))
			return

		case <-closed:
			return
		}
	}
}

func writeEvent(conn *websocket.Conn, event *service.Event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(socketWriteWait))
	return conn.WriteJSON(event)
}

// readUntilClosed drains client frames so control messages are processed,
// and closes done once the connection fails
func readUntilClosed(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(socketPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(socketPongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
