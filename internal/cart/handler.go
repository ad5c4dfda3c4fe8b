package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/pkg/models"
)

type Handler struct {
	Service *Service
	Logger  *zap.Logger
}

func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Service: svc, Logger: logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/cart", h.create)
	rg.POST("/cart/reconcile", h.reconcile)

	rg.GET("/cart/:session", h.view)
	rg.DELETE("/cart/:session", h.clear)
	rg.POST("/cart/:session/items", h.add)
	rg.PUT("/cart/:session/items/:index", h.setQuantity)
	rg.DELETE("/cart/:session/items/:index", h.remove)
	rg.POST("/cart/:session/items/:index/increment", h.increment)
	rg.POST("/cart/:session/items/:index/decrement", h.decrement)
	rg.PUT("/cart/:session/delivery", h.setDelivery)
	rg.POST("/cart/:session/checkout", h.checkout)
	rg.GET("/cart/:session/checkout", h.getCheckout)
	rg.POST("/cart/:session/notify", h.notify)
}

func (h *Handler) create(c *gin.Context) {
	c.JSON(http.StatusCreated, gin.H{"session_id": uuid.NewString()})
}

func (h *Handler) view(c *gin.Context) {
	res, err := h.Service.View(c.Request.Context(), c.Param("session"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type reconcileReq struct {
	Lines          json.RawMessage `json:"lines"`
	DeliveryChoice string          `json:"delivery_choice"`
}

// reconcile runs a pass over a cart the client holds itself.
func (h *Handler) reconcile(c *gin.Context) {
	var req reconcileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	lines, problems := DecodeLines(req.Lines)
	res := h.Service.Reconcile(c.Request.Context(), lines, req.DeliveryChoice)
	for _, p := range problems {
		res.Warnings = append(res.Warnings, p.Error())
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) add(c *gin.Context) {
	var line models.CartLine
	if err := c.ShouldBindJSON(&line); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(line.ID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id required"})
		return
	}
	res, err := h.Service.Add(c.Request.Context(), c.Param("session"), line)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) increment(c *gin.Context) {
	i, ok := lineIndex(c)
	if !ok {
		return
	}
	res, err := h.Service.Increment(c.Request.Context(), c.Param("session"), i)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) decrement(c *gin.Context) {
	i, ok := lineIndex(c)
	if !ok {
		return
	}
	res, err := h.Service.Decrement(c.Request.Context(), c.Param("session"), i)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type quantityReq struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) setQuantity(c *gin.Context) {
	i, ok := lineIndex(c)
	if !ok {
		return
	}
	var req quantityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	res, err := h.Service.SetQuantity(c.Request.Context(), c.Param("session"), i, req.Quantity)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) remove(c *gin.Context) {
	i, ok := lineIndex(c)
	if !ok {
		return
	}
	res, err := h.Service.Remove(c.Request.Context(), c.Param("session"), i)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type deliveryReq struct {
	Choice string `json:"choice"`
}

func (h *Handler) setDelivery(c *gin.Context) {
	var req deliveryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	res, err := h.Service.SetDeliveryChoice(c.Request.Context(), c.Param("session"), req.Choice)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) checkout(c *gin.Context) {
	var extra map[string]any
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&extra); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
	}
	data, err := h.Service.Checkout(c.Request.Context(), c.Param("session"), extra)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (h *Handler) getCheckout(c *gin.Context) {
	data, err := h.Service.CheckoutData(c.Request.Context(), c.Param("session"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if data == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no checkout"})
		return
	}
	c.JSON(http.StatusOK, data)
}

func (h *Handler) clear(c *gin.Context) {
	if err := h.Service.Clear(c.Request.Context(), c.Param("session")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

// notify re-broadcasts the cart after a change made outside this API.
func (h *Handler) notify(c *gin.Context) {
	if err := h.Service.Notify(c.Request.Context(), c.Param("session")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

func lineIndex(c *gin.Context) (int, bool) {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil || i < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index must be a non-negative integer"})
		return 0, false
	}
	return i, true
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrLineNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrOutOfStock), errors.Is(err, ErrEmptyCart):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ErrInvalidChoice), errors.Is(err, ErrMalformedLine):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.Logger.Error("cart request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cart unavailable"})
	}
}
