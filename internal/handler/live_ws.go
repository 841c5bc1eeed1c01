package handler

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/indias-got-voice/internal/live"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// ServeWS handles GET /v1/shows/:id/live/ws.  The connection receives a
// snapshot frame right away and then one per refresh.  Client messages are
// read only to detect disconnects.
func (h *LiveHandler) ServeWS(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	showID, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid show id")
	}
	ctx, cancel := requestCtx(c)
	_, err = h.Shows.GetByID(ctx, showID)
	cancel()
	if err != nil {
		return respondErr(c, h.Log, err)
	}

	conn, err := h.Hub.Upgrader().Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.Log.Warn("websocket upgrade failed", zap.Error(err))
		return nil
	}
	defer conn.Close()

	peer, cleanup, err := h.Hub.Subscribe(showID, uid)
	if err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		return nil
	}
	defer cleanup()

	go h.writePump(conn, peer)
	h.readPump(conn)
	return nil
}

func (h *LiveHandler) readPump(conn *websocket.Conn) {
	conn.SetReadLimit(h.Hub.ReadLimit())
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.Log.Debug("live read error", zap.Error(err))
			}
			return
		}
	}
}

func (h *LiveHandler) writePump(conn *websocket.Conn, p *live.Peer) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()
	for {
		select {
		case data, ok := <-p.Send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
