package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/offlinefirst/guidecast/pkg/notify"
)

const (
	pingInterval  = 30 * time.Second
	readDeadline  = 60 * time.Second
	writeDeadline = 10 * time.Second
	eventBuffer   = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Loopback-only server; browser clients run from file:// or localhost.
		return true
	},
}

// handleWebSocket streams bus notifications to one client. The stream is
// outbound-only: inbound frames are read solely to service pings and
// detect disconnects.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	events, cancel := s.bus.Subscribe(eventBuffer)

	go s.writePump(conn, events, cancel)
	go s.readPump(conn, cancel)
}

func (s *Server) writePump(conn *websocket.Conn, events <-chan notify.Event, cancel func()) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		cancel()
		conn.Close()
	}()

	for {
		select {
		case event, ok := <-events:
			conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				s.logger.Warn("encode event failed", "type", event.Type, "error", err)
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) readPump(conn *websocket.Conn, cancel func()) {
	defer func() {
		cancel()
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket read ended", "error", err)
			}
			return
		}
	}
}
