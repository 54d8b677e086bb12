// Package ws upgrades HTTP requests and runs one reader and one writer
// goroutine per connection.
package ws

import (
	"errors"
	nethttp "net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"zombie-siege/internal/hub"
	"zombie-siege/internal/session"
	"zombie-siege/internal/telemetry"
)

// Hub is the subset of the game hub the transport drives.
type Hub interface {
	Connect(sender hub.Sender) session.Session
	Disconnect(id, reason string)
	HandleMessage(id string, payload []byte)
}

type HandlerConfig struct {
	Logger    telemetry.Logger
	QueueSize int
	WriteWait time.Duration
	PongWait  time.Duration
}

type Handler struct {
	hub       Hub
	logger    telemetry.Logger
	upgrader  websocket.Upgrader
	queueSize int
	writeWait time.Duration
	pongWait  time.Duration
}

func NewHandler(h Hub, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.DiscardLogger()
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = writeWait
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = pongWait
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	return &Handler{
		hub:       h,
		logger:    logger,
		upgrader:  upgrader,
		queueSize: cfg.QueueSize,
		writeWait: cfg.WriteWait,
		pongWait:  cfg.PongWait,
	}
}

func (h *Handler) pingPeriod() time.Duration {
	if h.pongWait < pongWait {
		return h.pongWait * 9 / 10
	}
	return pingPeriod
}

// Handle upgrades the request and serves the session until the socket
// closes. The player is always removed on return.
func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade failed from %s: %v", r.RemoteAddr, err)
		return
	}

	sess := newSession(conn, h.queueSize, h.writeWait, h.pingPeriod())
	go sess.writePump()

	id := h.hub.Connect(sess).ID
	reason := "closed"
	defer func() {
		h.hub.Disconnect(id, reason)
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(h.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pongWait))
	})

	for {
		messageType, payload, err := conn.ReadMessage()
		if err != nil {
			reason = closeReason(err)
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				h.logger.Printf("read from %s failed: %v", id, err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		h.hub.HandleMessage(id, payload)
	}
}

func closeReason(err error) string {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		switch closeErr.Code {
		case websocket.CloseNormalClosure, websocket.CloseGoingAway:
			return "closed"
		default:
			return "close_" + strconv.Itoa(closeErr.Code)
		}
	}
	return "read_error"
}
