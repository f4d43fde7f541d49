// Package transport bridges HTTP to protocol sessions: it upgrades websocket
// requests on /ws and runs one session per connection until the client goes
// away or the server shuts down.
package transport

import (
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/xenking/orderflow/internal/session"
)

// wsConn adapts a gorilla websocket connection to session.Conn. The protocol
// is text-only JSON; binary frames are skipped, control frames are handled
// by gorilla internally.
type wsConn struct {
	conn *websocket.Conn
}

func (c wsConn) ReadMessage() ([]byte, error) {
	for {
		typ, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if typ == websocket.TextMessage {
			return data, nil
		}
	}
}

func (c wsConn) WriteMessage(data []byte) error {
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c wsConn) Close() error {
	return c.conn.Close()
}

// Handler upgrades websocket requests and runs sessions. Each connection
// gets a fresh session: its own registry, counter starting at 1, and at most
// one streaming task.
type Handler struct {
	cfg      session.Config
	metrics  *Metrics
	upgrader websocket.Upgrader
}

// NewHandler creates a websocket handler launching sessions with cfg.
// metrics may be nil.
func NewHandler(cfg session.Config, metrics *Metrics) *Handler {
	return &Handler{
		cfg:     cfg,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The demo page is served same-origin, so the default strict
			// origin check applies.
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	lg := zctx.From(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		lg.Warn("Upgrade failed", zap.Error(err))
		return
	}

	h.metrics.sessionStarted(r.Context())
	defer h.metrics.sessionEnded(r.Context())

	lg.Info("Session started", zap.String("remote", r.RemoteAddr))
	sess := session.New(wsConn{conn: conn}, h.cfg, h.metrics.protocol())
	if err := sess.Run(r.Context()); err != nil {
		// Normal client disconnects surface as read errors; nothing to do
		// beyond dropping the session.
		lg.Info("Session ended", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}
	lg.Info("Session ended", zap.String("remote", r.RemoteAddr))
}
