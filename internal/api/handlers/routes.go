package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Register mounts the mirror routes on e.
func Register(e *echo.Echo, listings *ListingHandler, ws *WebSocketHandlers, version string) {
	api := e.Group("/api/v1")
	api.GET("/listings", listings.ListListings)
	api.POST("/listings", listings.WatchListing)
	api.GET("/listings/:id", listings.GetListing)
	api.DELETE("/listings/:id", listings.UnwatchListing)
	api.POST("/listings/:id/bids", listings.PlaceBid)
	api.POST("/listings/:id/resync", listings.Resync)
	api.GET("/listings/:id/archive", listings.Archive)

	e.GET("/ws/listings/:id", ws.HandleConnection)

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   "bidwatch",
			"watching":  len(listings.watches.List()),
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   version,
		})
	})
}
