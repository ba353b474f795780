package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"marketplace-client/internal/domain"
	"marketplace-client/internal/domain/repositories"
	"marketplace-client/internal/services"
	"marketplace-client/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type ListingHandler struct {
	watches *services.WatchManager
	archive repositories.BidArchive
	cache   domain.ViewCache
	log     logger.Logger
}

type WatchRequest struct {
	ListingID domain.ID `json:"listing_id"`
}

type PlaceBidRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type ListingsResponse struct {
	Listings []services.WatchSummary `json:"listings"`
	Count    int                     `json:"count"`
}

type ArchiveResponse struct {
	ListingID domain.ID          `json:"listing_id"`
	Bids      []domain.BidRecord `json:"bids"`
}

// NewListingHandler builds the mirror's REST handler. archive and cache may
// be nil when the matching backend is disabled.
func NewListingHandler(watches *services.WatchManager, archive repositories.BidArchive, cache domain.ViewCache,
	log logger.Logger) *ListingHandler {
	return &ListingHandler{
		watches: watches,
		archive: archive,
		cache:   cache,
		log:     log,
	}
}

func (h *ListingHandler) ListListings(c echo.Context) error {
	summaries := h.watches.List()
	return c.JSON(http.StatusOK, ListingsResponse{Listings: summaries, Count: len(summaries)})
}

func (h *ListingHandler) WatchListing(c echo.Context) error {
	var req WatchRequest
	if err := c.Bind(&req); err != nil {
		h.log.Error("Failed to bind request", "error", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	if err := h.watches.Watch(req.ListingID); err != nil {
		return h.errorResponse(c, "Failed to watch listing", err)
	}
	h.log.Info("Listing watch requested", "listing_id", req.ListingID, "remote_addr", c.RealIP())
	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"listing_id": req.ListingID,
		"message":    "Watching listing",
	})
}

func (h *ListingHandler) UnwatchListing(c echo.Context) error {
	listingID := domain.ID(c.Param("id"))
	if err := h.watches.Unwatch(listingID); err != nil {
		return h.errorResponse(c, "Failed to unwatch listing", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetListing returns the live view, or the last cached view for a listing
// this process does not watch.
func (h *ListingHandler) GetListing(c echo.Context) error {
	listingID := domain.ID(c.Param("id"))

	view, err := h.watches.View(listingID)
	if err == nil {
		c.Response().Header().Set("X-View-Source", "live")
		return c.JSON(http.StatusOK, view)
	}
	if !errors.Is(err, domain.ErrNotFound) || h.cache == nil {
		return h.errorResponse(c, "Failed to load listing", err)
	}

	cached, cacheErr := h.cache.LoadView(c.Request().Context(), listingID)
	if cacheErr != nil {
		if !errors.Is(cacheErr, domain.ErrNotFound) {
			h.log.Warn("View cache lookup failed", "listing_id", listingID, "error", cacheErr)
		}
		return h.errorResponse(c, "Failed to load listing", err)
	}
	c.Response().Header().Set("X-View-Source", "cache")
	return c.JSON(http.StatusOK, cached)
}

func (h *ListingHandler) PlaceBid(c echo.Context) error {
	listingID := domain.ID(c.Param("id"))

	var req PlaceBidRequest
	if err := c.Bind(&req); err != nil {
		h.log.Error("Failed to bind request", "error", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	rec, err := h.watches.Reconciler(listingID)
	if err != nil {
		return h.errorResponse(c, "Failed to place bid", err)
	}
	bid, err := rec.SubmitBid(c.Request().Context(), req.Amount)
	if err != nil {
		return h.errorResponse(c, "Failed to place bid", err)
	}

	h.log.Info("Bid placed through mirror", "listing_id", listingID, "amount", req.Amount)
	return c.JSON(http.StatusAccepted, bid)
}

func (h *ListingHandler) Resync(c echo.Context) error {
	listingID := domain.ID(c.Param("id"))
	if err := h.watches.ResyncListing(c.Request().Context(), listingID); err != nil {
		return h.errorResponse(c, "Failed to resync listing", err)
	}
	view, err := h.watches.View(listingID)
	if err != nil {
		return h.errorResponse(c, "Failed to resync listing", err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *ListingHandler) Archive(c echo.Context) error {
	listingID := domain.ID(c.Param("id"))
	if h.archive == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Bid archive is not enabled"})
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid limit"})
		}
		limit = n
	}

	bids, err := h.archive.ListObservedBids(c.Request().Context(), listingID, limit)
	if err != nil {
		return h.errorResponse(c, "Failed to read bid archive", err)
	}
	if bids == nil {
		bids = []domain.BidRecord{}
	}
	return c.JSON(http.StatusOK, ArchiveResponse{ListingID: listingID, Bids: bids})
}

func (h *ListingHandler) errorResponse(c echo.Context, msg string, err error) error {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error(msg, "path", c.Path(), "error", err)
	} else {
		h.log.Info(msg, "path", c.Path(), "reason", domain.Reason(err))
	}
	return c.JSON(status, ErrorResponse(err))
}
