package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const writeWait = 10 * time.Second

// serveEvents streams engine events to a websocket client. This is the
// renderer-facing replacement for re-rendering on every mutation: the engine
// publishes, subscribers draw.
func (s *HTTPServer) serveEvents(c *gin.Context) {
	// Subscribe before the handshake completes so events published the
	// moment the client's dial returns are already captured.
	events, cancel := s.Eng.Subscribe()
	defer cancel()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	// Reader only consumes control frames; any read error tears the
	// subscription down.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				slog.Debug("websocket write failed, dropping subscriber", "err", err)
				return
			}
		}
	}
}
