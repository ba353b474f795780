package websocket

import (
	"encoding/json"
	"net/http"

	"marketplace-client/internal/domain"
	"marketplace-client/pkg/logger"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // mirror is meant for local dashboards
	},
}

// Handler upgrades mirror clients and keeps them registered until they go
// away. Clients only listen; the one inbound message honored is a ping.
type Handler struct {
	connManager domain.ConnectionManager
	log         logger.Logger
}

func NewHandler(connManager domain.ConnectionManager, log logger.Logger) *Handler {
	return &Handler{connManager: connManager, log: log}
}

// Serve upgrades the request and sends initial, if non-nil, as the first frame.
// It blocks until the client disconnects.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request, listingID domain.ID, initial interface{}) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err, "listing_id", listingID)
		return err
	}

	wsConn := NewConnection(conn, listingID, h.log)
	// registered before the initial frame so no broadcast falls in between
	if err := h.connManager.RegisterConnection(listingID, wsConn); err != nil {
		h.log.Error("Failed to register connection", "error", err)
		_ = wsConn.Close()
		return nil
	}

	if initial != nil {
		payload, err := json.Marshal(initial)
		if err == nil {
			err = wsConn.Send(payload)
		}
		if err != nil {
			h.log.Warn("Failed to send initial view", "error", err, "listing_id", listingID)
			_ = h.connManager.UnregisterConnection(listingID, wsConn.ID())
			_ = wsConn.Close()
			return nil
		}
	}

	h.readLoop(wsConn)
	return nil
}

func (h *Handler) readLoop(conn *Connection) {
	defer func() {
		_ = h.connManager.UnregisterConnection(conn.ListingID(), conn.ID())
		_ = conn.Close()
	}()

	for {
		var msg map[string]interface{}
		if err := conn.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debug("Mirror client read failed", "error", err, "conn_id", conn.ID())
			}
			return
		}
		if msgType, _ := msg["type"].(string); msgType == "ping" {
			_ = conn.Send([]byte(`{"type":"pong"}`))
		}
	}
}
