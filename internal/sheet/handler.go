package sheet

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/pkg/models"
)

// ProductLister supplies the list pushed to the sheet.
type ProductLister interface {
	List(ctx context.Context) ([]models.Product, error)
}

type Handler struct {
	Client  *Client
	Catalog ProductLister
	Logger  *zap.Logger
}

func NewHandler(client *Client, catalog ProductLister, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Client: client, Catalog: catalog, Logger: logger}
}

// RegisterAdminRoutes mounts the sheet actions; rg must require admin auth.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/sheet", h.read)
	rg.POST("/sheet", h.send)
	rg.DELETE("/sheet", h.remove)
}

func (h *Handler) sheetName(c *gin.Context) string {
	if s := c.Query("sheet"); s != "" {
		return s
	}
	return h.Client.SheetName
}

func (h *Handler) read(c *gin.Context) {
	products, err := h.Client.Read(c.Request.Context(), h.sheetName(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(products), "items": products})
}

func (h *Handler) send(c *gin.Context) {
	products, err := h.Catalog.List(c.Request.Context())
	if err != nil {
		h.Logger.Error("list products for sheet", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "catalog unavailable"})
		return
	}
	msg, err := h.Client.Send(c.Request.Context(), products)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": len(products), "message": msg})
}

func (h *Handler) remove(c *gin.Context) {
	msg, err := h.Client.Delete(c.Request.Context(), h.sheetName(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNothingToSend):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		h.Logger.Warn("sheet request failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}
