package settings

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/pkg/models"
)

type Handler struct {
	Docs   *Documents
	Logger *zap.Logger
}

func NewHandler(docs *Documents, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Docs: docs, Logger: logger}
}

// RegisterRoutes exposes the effective delivery options to shoppers.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/delivery", h.publicDelivery)
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/delivery", h.get(DocDelivery))
	rg.PUT("/delivery", h.put(DocDelivery))
	rg.GET("/rules", h.get(DocRules))
	rg.PUT("/rules", h.put(DocRules))
}

func (h *Handler) publicDelivery(c *gin.Context) {
	cfg, err := h.Docs.Delivery(c.Request.Context())
	defaulted := false
	if err != nil {
		h.Logger.Warn("delivery config unavailable, serving defaults", zap.Error(err))
		cfg = models.DefaultDeliveryConfig()
		defaulted = true
	}
	c.JSON(http.StatusOK, gin.H{"delivery": cfg, "defaulted": defaulted})
}

func (h *Handler) get(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var (
			doc any
			err error
		)
		if name == DocDelivery {
			doc, err = h.Docs.Delivery(ctx)
		} else {
			doc, err = h.Docs.Rules(ctx)
		}
		if errors.Is(err, ErrMissing) {
			c.JSON(http.StatusNotFound, gin.H{"error": name + " not configured"})
			return
		}
		if err != nil {
			h.Logger.Error("load document", zap.String("name", name), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, doc)
	}
}

func (h *Handler) put(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.Docs.Remote(name) {
			c.JSON(http.StatusConflict, gin.H{"error": name + " is served from an external location"})
			return
		}
		raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
		if err != nil || !json.Valid(raw) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		if err := h.Docs.Save(c.Request.Context(), name, raw); err != nil {
			if errors.Is(err, ErrInvalid) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			h.Logger.Error("save document", zap.String("name", name), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}
