package chat

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Participants are anonymous; any page may open the socket.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Handler struct {
	hub  *Hub
	opts Options
	log  zerolog.Logger
}

func NewHandler(hub *Hub, opts Options, log zerolog.Logger) *Handler {
	return &Handler{hub: hub, opts: opts, log: log}
}

// ServeWs upgrades the request and runs the connection until it closes.
func (h *Handler) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("⚠️ upgrade failed")
		return
	}
	log := h.log.With().Str("remote", r.RemoteAddr).Logger()
	client := NewClient(h.hub, conn, h.opts, log)

	// Only the connection's own disconnect ends it.
	client.Serve(context.WithoutCancel(r.Context()))
}
