package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultQueueSize = 64
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = 25 * time.Second
	maxMessageSize   = 1 << 20
)

// Session pairs a websocket with a bounded outbound queue drained by its own
// writer goroutine.
type Session struct {
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	writeWait time.Duration
	pingEvery time.Duration
}

func newSession(conn *websocket.Conn, queueSize int, writeTimeout, pingEvery time.Duration) *Session {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Session{
		conn:      conn,
		send:      make(chan []byte, queueSize),
		done:      make(chan struct{}),
		writeWait: writeTimeout,
		pingEvery: pingEvery,
	}
}

// Send queues payload without blocking. It returns false when the queue is
// full or the session is closed.
func (s *Session) Send(payload []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- payload:
		return true
	default:
		return false
	}
}

// Close stops the writer, which then closes the connection.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Done is closed once the session is closed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) writePump() {
	ticker := time.NewTicker(s.pingEvery)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case payload := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(s.writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				s.Close()
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(s.writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.Close()
				return
			}
		case <-s.done:
			s.flush()
			s.conn.SetWriteDeadline(time.Now().Add(s.writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// flush writes whatever is still queued so a closing session does not lose
// its last messages.
func (s *Session) flush() {
	for {
		select {
		case payload := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(s.writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		default:
			return
		}
	}
}
