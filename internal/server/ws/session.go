package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
)

// Sender is the coordinator's view of a connected session. The concrete
// session serializes and ships frames; fakes stand in for it in tests.
type Sender interface {
	Send(v any)
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendBufferSize = 32
)

// session pairs a websocket conn with a buffered outbound queue drained by
// a single writer goroutine, so broadcasts never block on a slow peer and
// per-session ordering is preserved.
type session struct {
	conn *websocket.Conn

	send chan []byte
	done chan struct{}
	once sync.Once
}

func newSession(conn *websocket.Conn) *session {
	return &session{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
}

// Send marshals v immediately so the frame captures the state at enqueue
// time, then queues it. A full queue means the peer is not draining; the
// session is dropped rather than stalling the broadcast.
func (s *session) Send(v any) {
	buf, err := json.Marshal(v)
	if err != nil {
		log.Printf("ws: marshal outbound frame: %v", err)
		return
	}

	select {
	case s.send <- buf:
	case <-s.done:
	default:
		log.Printf("ws: send queue full, dropping session")
		s.close()
	}
}

func (s *session) close() {
	s.once.Do(func() {
		close(s.done)
	})
}

// writePump is the only goroutine writing to the conn. It drains the send
// queue and keeps the peer alive with pings.
func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case buf := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, buf); err != nil {
				log.Printf("ws: write failed, dropping session: %v", err)
				s.close()
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.close()
				return
			}
		case <-s.done:
			return
		}
	}
}
