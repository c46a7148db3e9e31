package intent

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MahdiBaghbani/shareintake-go/internal/components/handoff"
	"github.com/MahdiBaghbani/shareintake-go/internal/platform/appctx"
)

// EventMessage is one text frame on the event channel.
type EventMessage struct {
	Event string `json:"event"`
	Path  string `json:"path"`
}

// EventSuccess is the only event emitted today.
const EventSuccess = "success"

// HandleEvents handles GET /api/channels/intent/new. The connection becomes
// the bridge's push listener until it disconnects or a newer one replaces it.
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	log := appctx.GetLogger(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the error response.
		log.Warn("event channel upgrade failed", "error", err)
		return
	}

	sink := handoff.NewChanSink(h.settings.PushBuffer)
	cancel := h.bridge.Listen(sink)
	log.Info("event channel listener attached")

	go h.readPump(conn, cancel, log)
	h.writePump(conn, sink, log)
	cancel()
	log.Info("event channel listener detached")
}

// readPump consumes control frames until the peer goes away, then cancels
// the listener so the write pump stops.
func (h *Handler) readPump(conn *websocket.Conn, cancel func(), log *slog.Logger) {
	defer cancel()

	conn.SetReadLimit(maxInboundMessageSize)
	conn.SetReadDeadline(time.Now().Add(h.settings.PongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(h.settings.PongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseAbnormalClosure,
				websocket.CloseNoStatusReceived,
			) {
				log.Warn("event channel read error", "error", err)
			}
			return
		}
	}
}

// writePump forwards pushed paths and keeps the connection alive with pings.
// It returns when the sink is closed or a write fails, closing conn.
func (h *Handler) writePump(conn *websocket.Conn, sink *handoff.ChanSink, log *slog.Logger) {
	ticker := time.NewTicker(h.settings.PingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case path := <-sink.Paths():
			conn.SetWriteDeadline(time.Now().Add(h.settings.WriteWait))
			if err := conn.WriteJSON(EventMessage{Event: EventSuccess, Path: path}); err != nil {
				log.Warn("event channel write failed, dropping path", "path", path, "error", err)
				return
			}
		case <-sink.Done():
			conn.SetWriteDeadline(time.Now().Add(h.settings.WriteWait))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "listener closed"))
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(h.settings.WriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
