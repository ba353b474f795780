package handlers

import (
	"marketplace-client/internal/domain"
	"marketplace-client/internal/infrastructure/websocket"
	"marketplace-client/internal/services"
	"marketplace-client/pkg/logger"

	"github.com/labstack/echo/v4"
)

type WebSocketHandlers struct {
	wsHandler *websocket.Handler
	watches   *services.WatchManager
	log       logger.Logger
}

func NewWebSocketHandlers(watches *services.WatchManager, connManager domain.ConnectionManager,
	log logger.Logger) *WebSocketHandlers {
	return &WebSocketHandlers{
		wsHandler: websocket.NewHandler(connManager, log),
		watches:   watches,
		log:       log,
	}
}

// HandleConnection streams every update of a watched listing. The first
// frame is the current view.
func (h *WebSocketHandlers) HandleConnection(c echo.Context) error {
	listingID := domain.ID(c.Param("id"))
	view, err := h.watches.View(listingID)
	if err != nil {
		return c.JSON(StatusFor(err), ErrorResponse(err))
	}

	h.log.Info("Mirror client connecting", "listing_id", listingID, "remote_addr", c.RealIP())
	return h.wsHandler.Serve(c.Response(), c.Request(), listingID, services.NewViewMessage(view))
}
