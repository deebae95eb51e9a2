package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/forgo/guildhall/api/internal/model"
	"github.com/forgo/guildhall/api/internal/service"
)

// ============================================================================
// SSE Tests
// ============================================================================

// readSSE returns the next event name and data line from an SSE stream
func readSSE(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()

	var name, data string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && name != "":
			return name, data
		}
	}
}

func TestEvents_InitThenChanges(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	if _, err := s.svc.CreateGuild(context.Background(), &model.Guild{ID: "g0"}); err != nil {
		t.Fatalf("seed guild: %v", err)
	}

	srv := httptest.NewServer(s.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/events", nil)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected event stream, got %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	name, data := readSSE(t, reader)
	if name != string(service.EventInit) {
		t.Fatalf("expected INIT first, got %s", name)
	}
	var snapshot model.Snapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(snapshot.Guilds) != 1 || snapshot.Guilds[0].ID != "g0" {
		t.Errorf("expected snapshot with g0, got %+v", snapshot.Guilds)
	}
	if len(snapshot.Users) != 1 || snapshot.Users[0].ID != observerID {
		t.Errorf("expected snapshot with the observer, got %+v", snapshot.Users)
	}

	if _, err := s.svc.CreateGuild(context.Background(), &model.Guild{ID: "g1", Owner: "u1"}); err != nil {
		t.Fatalf("create guild: %v", err)
	}

	want := []service.EventType{service.EventGuildAdd, service.EventUserAdd}
	for _, w := range want {
		name, _ := readSSE(t, reader)
		if name != string(w) {
			t.Errorf("expected %s, got %s", w, name)
		}
	}
}

// ============================================================================
// Websocket Tests
// ============================================================================

type socketMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func dialSocket(t *testing.T, s *testServer) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(s.handler)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/socket"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readSocket(t *testing.T, conn *websocket.Conn) socketMessage {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg socketMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read websocket: %v", err)
	}
	return msg
}

func TestSocket_InitThenBroadcast(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	conn := dialSocket(t, s)

	first := readSocket(t, conn)
	if first.Event != string(service.EventInit) {
		t.Fatalf("expected INIT, got %s", first.Event)
	}

	if _, err := s.svc.CreatePartner(context.Background(), &model.Partner{ID: "p1", Name: "Acme"}); err != nil {
		t.Fatalf("create partner: %v", err)
	}

	msg := readSocket(t, conn)
	if msg.Event != string(service.EventPartnerAdd) {
		t.Fatalf("expected PARTNER_ADD, got %s", msg.Event)
	}
	var partner model.Partner
	if err := json.Unmarshal(msg.Data, &partner); err != nil {
		t.Fatalf("decode partner: %v", err)
	}
	if partner.ID != "p1" || partner.Name != "Acme" {
		t.Errorf("unexpected payload %+v", partner)
	}
}

func TestSocket_SkipsHeartbeats(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	conn := dialSocket(t, s)

	readSocket(t, conn)

	s.hub.Publish(&service.Event{Type: service.EventHeartbeat})
	if _, err := s.svc.AddUserRole(context.Background(), observerID, "scribe"); err != nil {
		t.Fatalf("add role: %v", err)
	}

	if msg := readSocket(t, conn); msg.Event != string(service.EventUserRoleAdd) {
		t.Errorf("expected USER_ROLE_ADD after skipped heartbeat, got %s", msg.Event)
	}
}

func TestSocket_ClientDisconnectUnsubscribes(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	conn := dialSocket(t, s)

	readSocket(t, conn)
	if s.hub.SubscriberCount() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", s.hub.SubscriberCount())
	}

	_ = conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for s.hub.SubscriberCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber was not removed after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
