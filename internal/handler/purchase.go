package handler

import (
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/fiberbendr/OurShopper/internal/notify"
	"github.com/fiberbendr/OurShopper/internal/schema"
	"github.com/fiberbendr/OurShopper/internal/store"
	"github.com/fiberbendr/OurShopper/internal/ws"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "api").Logger()

// PurchaseHandler serves the purchase endpoints.
type PurchaseHandler struct {
	Store    store.Store
	Hub      *ws.Hub
	Notifier *notify.Notifier
}

func NewPurchaseHandler(st store.Store, hub *ws.Hub, notifier *notify.Notifier) *PurchaseHandler {
	return &PurchaseHandler{
		Store:    st,
		Hub:      hub,
		Notifier: notifier,
	}
}

// ListPurchases returns the full collection, newest date first. No
// pagination, no filtering.
func (h *PurchaseHandler) ListPurchases(c *gin.Context) {
	purchases, err := h.Store.ListAll(c.Request.Context())
	if err != nil {
		logger.Error().Err(err).Msg("list purchases")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch purchases"})
		return
	}
	c.JSON(http.StatusOK, purchases)
}

// CreatePurchase validates the body, persists the purchase with its line
// items, then fans out the side effects: a queued email notification and
// one purchase_added event to every open session. Neither side effect
// can fail the response.
func (h *PurchaseHandler) CreatePurchase(c *gin.Context) {
	var req schema.InsertPurchase
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid purchase data",
			"details": schema.FieldErrors{{Field: "body", Message: "Malformed JSON"}},
		})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid purchase data",
			"details": errs,
		})
		return
	}

	created, err := h.Store.Create(c.Request.Context(), req.ToModel())
	if err != nil {
		logger.Error().Err(err).Msg("create purchase")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create purchase"})
		return
	}

	h.Notifier.Submit(created)
	h.Hub.Broadcast(ws.PurchaseAdded(created))

	c.JSON(http.StatusOK, created)
}

// DeletePurchase removes the purchase and its line items. Deleting an id
// that is already gone still answers success, but only an actual removal
// is broadcast, so clients never refetch over a no-op.
func (h *PurchaseHandler) DeletePurchase(c *gin.Context) {
	id := c.Param("id")

	err := h.Store.Delete(c.Request.Context(), id)
	switch {
	case err == nil:
		h.Hub.Broadcast(ws.PurchaseDeleted(id))
	case errors.Is(err, store.ErrNotFound):
		// idempotent at this layer
	default:
		logger.Error().Err(err).Str("id", id).Msg("delete purchase")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete purchase"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
