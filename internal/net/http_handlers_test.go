package net

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"zombie-siege/internal/hub"
	"zombie-siege/internal/proto"
	"zombie-siege/logging"
)

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readUntil(t *testing.T, conn *websocket.Conn, msgType string, dst any) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var env envelope
		if err := conn.ReadJSON(&env); err != nil {
			t.Fatalf("waiting for %s: %v", msgType, err)
		}
		if env.Type != msgType {
			continue
		}
		if dst != nil {
			if err := json.Unmarshal(env.Data, dst); err != nil {
				t.Fatalf("decode %s: %v", msgType, err)
			}
		}
		return
	}
}

func writeEnvelope(t *testing.T, conn *websocket.Conn, msgType string, data any) {
	t.Helper()
	payload, err := proto.Encode(msgType, data)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

func TestWebSocketSessionLifecycle(t *testing.T) {
	h := hub.New(hub.Config{})
	defer h.Close()
	server := httptest.NewServer(NewHTTPHandler(h, HTTPHandlerConfig{QueueSize: 64}))
	defer server.Close()

	connA := dial(t, server)
	var initA proto.Initialize
	readUntil(t, connA, proto.TypeInitialize, &initA)
	if !initA.IsHost || initA.ID == "" {
		t.Fatalf("expected first connection to be host, got %+v", initA)
	}

	connB := dial(t, server)
	var initB proto.Initialize
	readUntil(t, connB, proto.TypeInitialize, &initB)
	if initB.IsHost || len(initB.Players) != 2 {
		t.Fatalf("expected second connection to see two players, got %+v", initB)
	}

	var joined proto.PlayerState
	readUntil(t, connA, proto.TypePlayerJoined, &joined)
	if joined.ID != initB.ID {
		t.Fatalf("expected playerJoined for %s, got %s", initB.ID, joined.ID)
	}

	if err := connB.WriteMessage(websocket.TextMessage, []byte("garbage")); err != nil {
		t.Fatalf("write garbage: %v", err)
	}
	writeEnvelope(t, connA, proto.TypeStartGame, nil)

	var spawned map[string]proto.ZombieState
	readUntil(t, connB, proto.TypeGameStarted, nil)
	readUntil(t, connB, proto.TypeZombiesSpawned, &spawned)
	if len(spawned) != hub.DefaultZombieBatchSize {
		t.Fatalf("expected %d zombies, got %d", hub.DefaultZombieBatchSize, len(spawned))
	}

	connA.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	connA.Close()

	var left proto.PlayerLeft
	readUntil(t, connB, proto.TypePlayerLeft, &left)
	if left.ID != initA.ID {
		t.Fatalf("expected %s to leave, got %s", initA.ID, left.ID)
	}
	readUntil(t, connB, proto.TypeGameReset, nil)
	var changed proto.HostChanged
	readUntil(t, connB, proto.TypeHostChanged, &changed)
	if changed.ID != initB.ID {
		t.Fatalf("expected %s to become host, got %s", initB.ID, changed.ID)
	}
}

func TestHealthEndpoint(t *testing.T) {
	handler := NewHTTPHandler(hub.New(hub.Config{}), HTTPHandlerConfig{})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health", nil))
	if resp.Code != http.StatusOK || resp.Body.String() != "ok" {
		t.Fatalf("expected ok, got %d %q", resp.Code, resp.Body.String())
	}
}

func TestDiagnosticsEndpoint(t *testing.T) {
	handler := NewHTTPHandler(hub.New(hub.Config{}), HTTPHandlerConfig{
		TickRate: 10,
		LoggingStats: func() logging.RouterStats {
			return logging.RouterStats{EventsTotal: 7}
		},
	})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/diagnostics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 OK, got %d", resp.Code)
	}
	if contentType := resp.Header().Get("Content-Type"); contentType != "application/json" {
		t.Fatalf("expected Content-Type application/json, got %q", contentType)
	}

	var payload struct {
		Status   string          `json:"status"`
		TickRate int             `json:"tickRate"`
		Hub      hub.Diagnostics `json:"hub"`
		Logging  struct {
			EventsTotal uint64 `json:"eventsTotal"`
		} `json:"logging"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode diagnostics: %v", err)
	}
	if payload.Status != "ok" || payload.TickRate != 10 || payload.Logging.EventsTotal != 7 {
		t.Fatalf("unexpected diagnostics payload: %s", resp.Body.String())
	}
	if payload.Hub.GameInProgress || payload.Hub.Zombies != 0 {
		t.Fatalf("expected idle hub, got %+v", payload.Hub)
	}
}
