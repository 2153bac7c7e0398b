package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// WebSocket message types, server to client.
const (
	MsgTypeSnapshot = "snapshot"
	MsgTypeClosing  = "closing"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// WSMessage is the envelope of every pushed frame.
type WSMessage struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 16 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket pushes a full snapshot on connect and again after every
// change to the session. Changes are coalesced, so a slow client sees the
// latest state rather than every intermediate one.
func (h *Handlers) HandleWebSocket(done <-chan struct{}) echo.HandlerFunc {
	return func(c echo.Context) error {
		ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			h.log.Warn("websocket upgrade failed: %v", err)
			return nil
		}
		defer ws.Close()

		changes, cancel := h.session.Subscribe()
		defer cancel()

		gone := make(chan struct{})
		go h.readPump(ws, gone)

		if err := h.push(ws, MsgTypeSnapshot, h.session.Snapshot()); err != nil {
			return nil
		}

		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		for {
			select {
			case _, ok := <-changes:
				if !ok {
					_ = h.push(ws, MsgTypeClosing, nil)
					return nil
				}
				if err := h.push(ws, MsgTypeSnapshot, h.session.Snapshot()); err != nil {
					h.log.Debug("websocket write: %v", err)
					return nil
				}
			case <-ticker.C:
				_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
				if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
					return nil
				}
			case <-done:
				_ = h.push(ws, MsgTypeClosing, nil)
				return nil
			case <-gone:
				return nil
			}
		}
	}
}

func (h *Handlers) push(ws *websocket.Conn, msgType string, payload interface{}) error {
	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	return ws.WriteJSON(WSMessage{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	})
}

// readPump drains client frames so control messages are processed, and
// closes gone when the client goes away.
func (h *Handlers) readPump(ws *websocket.Conn, gone chan<- struct{}) {
	defer close(gone)
	ws.SetReadLimit(4096)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}
