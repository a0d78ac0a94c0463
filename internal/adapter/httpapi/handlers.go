package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"faultline/internal/catalog"
	"faultline/internal/fault"
	"faultline/internal/faults"
)

type handlers struct {
	svc *catalog.Service
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) getItem(c *gin.Context) error {
	item, err := h.svc.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, item)
	return nil
}

type createItemRequest struct {
	SKU        string `json:"sku"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
}

func (h *handlers) createItem(c *gin.Context) error {
	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return faults.ErrInvalidItem.New(
			fault.F("field", "body"),
			fault.F("reason", "malformed JSON"),
		)
	}
	item, err := h.svc.CreateItem(c.Request.Context(), req.SKU, req.Name, req.PriceCents)
	if err != nil {
		return err
	}
	c.JSON(http.StatusCreated, item)
	return nil
}

func (h *handlers) deleteItem(c *gin.Context) error {
	if err := h.svc.RemoveItem(c.Request.Context(), c.Param("id")); err != nil {
		return err
	}
	c.Status(http.StatusNoContent)
	return nil
}

func (h *handlers) quoteItem(c *gin.Context) error {
	q, err := h.svc.QuoteItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, q)
	return nil
}
