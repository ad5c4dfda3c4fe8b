package catalog

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/sync"
	"storefront/pkg/models"
)

// MediaFinder reports whether a filename exists in the media folders and
// as which kind.
type MediaFinder interface {
	FindType(filename, prefer string) (string, bool)
}

// Publisher receives catalog events; *sync.Hub satisfies it.
type Publisher interface {
	BroadcastJSON(v any)
}

type Handler struct {
	Repo      *Repo
	Sources   *Aggregator
	Media     MediaFinder
	Publisher Publisher
	Logger    *zap.Logger
}

func NewHandler(repo *Repo, sources *Aggregator, media MediaFinder, pub Publisher, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Repo: repo, Sources: sources, Media: media, Publisher: pub, Logger: logger}
}

// RegisterRoutes mounts the public catalog.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/products", h.list)
	rg.GET("/products/:id", h.getByID)
	rg.GET("/search", h.search)
}

// RegisterAdminRoutes mounts the CMS editor. rg is expected to carry the
// admin auth middleware.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/products", h.list)
	rg.PUT("/products", h.replaceAll)
	rg.POST("/products", h.create)
	rg.POST("/products/move", h.move)
	rg.POST("/products/import", h.importJSON)
	rg.GET("/products/export", h.export)
	rg.POST("/products/reload", h.reload)

	rg.PATCH("/products/:id", h.editFields)
	rg.DELETE("/products/:id", h.remove)
	rg.POST("/products/:id/duplicate", h.duplicate)
	rg.GET("/products/:id/export", h.exportOne)

	rg.POST("/products/:id/chips/:kind", h.addChip)
	rg.DELETE("/products/:id/chips/:kind/:index", h.removeChip)

	rg.POST("/products/:id/variants", h.addVariant)
	rg.PATCH("/products/:id/variants/:vi", h.editVariant)
	rg.DELETE("/products/:id/variants/:vi", h.removeVariant)
	rg.POST("/products/:id/variants/:vi/sizes", h.addSize)
	rg.PATCH("/products/:id/variants/:vi/sizes/:si", h.editSize)
	rg.DELETE("/products/:id/variants/:vi/sizes/:si", h.removeSize)

	rg.POST("/products/:id/images/move", h.moveImage)
	rg.DELETE("/products/:id/images/:index", h.removeImage)
	rg.POST("/products/:id/media/move", h.moveMedia)
	rg.DELETE("/products/:id/media/:index", h.removeMedia)
	rg.POST("/products/:id/attach", h.attach)
}

func (h *Handler) list(c *gin.Context) {
	products, err := h.Repo.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	q := ListQuery{
		Category: c.Query("category"),
		Query:    c.Query("q"),
		Limit:    parseInt(c.Query("limit"), 0),
		Offset:   parseInt(c.Query("offset"), 0),
	}
	items, total := q.Apply(products)

	c.JSON(http.StatusOK, gin.H{
		"total":  total,
		"limit":  q.Limit,
		"offset": q.Offset,
		"items":  items,
	})
}

func (h *Handler) getByID(c *gin.Context) {
	p, err := h.Repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) search(c *gin.Context) {
	products, err := h.Repo.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	q := c.Query("q")
	hits := Search(products, q)
	c.JSON(http.StatusOK, gin.H{
		"query":   q,
		"total":   len(products),
		"visible": len(hits),
		"items":   hits,
	})
}

// mutate loads the list, applies fn, stores the result and announces it.
func (h *Handler) mutate(c *gin.Context, status int, fn func([]models.Product) ([]models.Product, any, error)) {
	ctx := c.Request.Context()
	products, err := h.Repo.List(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	next, resp, err := fn(products)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.save(ctx, next, "cms"); err != nil {
		h.fail(c, err)
		return
	}
	if resp == nil {
		resp = gin.H{"items": next, "total": len(next)}
	}
	c.JSON(status, resp)
}

func (h *Handler) save(ctx context.Context, products []models.Product, source string) error {
	if err := h.Repo.ReplaceAll(ctx, products); err != nil {
		return err
	}
	h.Logger.Info("catalog saved", zap.String("source", source), zap.Int("products", len(products)))
	if h.Publisher != nil {
		h.Publisher.BroadcastJSON(sync.CatalogEvent{
			Type:     sync.EventCatalogUpdated,
			Products: len(products),
			Source:   source,
			At:       time.Now().UTC(),
		})
	}
	return nil
}

// edit runs a single-product editor operation.
func (h *Handler) edit(c *gin.Context, op func(*models.Product) error) {
	id := c.Param("id")
	h.mutate(c, http.StatusOK, func(products []models.Product) ([]models.Product, any, error) {
		next, err := Edit(products, id, op)
		if err != nil {
			return nil, nil, err
		}
		return next, next[indexOf(next, id)], nil
	})
}

func (h *Handler) replaceAll(c *gin.Context) {
	var products []models.Product
	if err := c.ShouldBindJSON(&products); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	h.mutate(c, http.StatusOK, func([]models.Product) ([]models.Product, any, error) {
		for i := range products {
			FillDefaults(&products[i])
		}
		RenumberIDs(products)
		return products, nil, nil
	})
}

func (h *Handler) create(c *gin.Context) {
	h.mutate(c, http.StatusCreated, func(products []models.Product) ([]models.Product, any, error) {
		next, id := Append(products)
		return next, next[indexOf(next, id)], nil
	})
}

func (h *Handler) duplicate(c *gin.Context) {
	h.mutate(c, http.StatusCreated, func(products []models.Product) ([]models.Product, any, error) {
		next, id, err := Duplicate(products, c.Param("id"))
		if err != nil {
			return nil, nil, err
		}
		return next, next[indexOf(next, id)], nil
	})
}

func (h *Handler) remove(c *gin.Context) {
	h.mutate(c, http.StatusOK, func(products []models.Product) ([]models.Product, any, error) {
		next, err := Delete(products, c.Param("id"))
		return next, nil, err
	})
}

type moveReq struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (h *Handler) move(c *gin.Context) {
	var req moveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	h.mutate(c, http.StatusOK, func(products []models.Product) ([]models.Product, any, error) {
		next, err := Move(products, req.From, req.To)
		return next, nil, err
	})
}

func (h *Handler) editFields(c *gin.Context) {
	var f Fields
	if err := c.ShouldBindJSON(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	h.edit(c, f.Apply)
}

type chipReq struct {
	Text string `json:"text"`
}

func (h *Handler) addChip(c *gin.Context) {
	var req chipReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text required"})
		return
	}
	h.edit(c, AddChip(c.Param("kind"), req.Text))
}

func (h *Handler) removeChip(c *gin.Context) {
	i, ok := intParam(c, "index")
	if !ok {
		return
	}
	h.edit(c, RemoveChip(c.Param("kind"), i))
}

func (h *Handler) addVariant(c *gin.Context) {
	h.edit(c, AddVariant())
}

func (h *Handler) editVariant(c *gin.Context) {
	vi, ok := intParam(c, "vi")
	if !ok {
		return
	}
	var f VariantFields
	if err := c.ShouldBindJSON(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	h.edit(c, EditVariant(vi, f))
}

func (h *Handler) removeVariant(c *gin.Context) {
	vi, ok := intParam(c, "vi")
	if !ok {
		return
	}
	h.edit(c, RemoveVariant(vi))
}

func (h *Handler) addSize(c *gin.Context) {
	vi, ok := intParam(c, "vi")
	if !ok {
		return
	}
	h.edit(c, AddSize(vi))
}

func (h *Handler) editSize(c *gin.Context) {
	vi, ok := intParam(c, "vi")
	if !ok {
		return
	}
	si, ok := intParam(c, "si")
	if !ok {
		return
	}
	var f SizeFields
	if err := c.ShouldBindJSON(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	h.edit(c, EditSize(vi, si, f))
}

func (h *Handler) removeSize(c *gin.Context) {
	vi, ok := intParam(c, "vi")
	if !ok {
		return
	}
	si, ok := intParam(c, "si")
	if !ok {
		return
	}
	h.edit(c, RemoveSize(vi, si))
}

func (h *Handler) moveImage(c *gin.Context) {
	var req moveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	h.edit(c, MoveImage(req.From, req.To))
}

func (h *Handler) removeImage(c *gin.Context) {
	i, ok := intParam(c, "index")
	if !ok {
		return
	}
	h.edit(c, RemoveImage(i))
}

func (h *Handler) moveMedia(c *gin.Context) {
	var req moveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	h.edit(c, MoveMedia(req.From, req.To))
}

func (h *Handler) removeMedia(c *gin.Context) {
	i, ok := intParam(c, "index")
	if !ok {
		return
	}
	h.edit(c, RemoveMedia(i))
}

type attachReq struct {
	Target   string `json:"target"` // main, images or media
	Filename string `json:"filename"`
	Prefer   string `json:"prefer"`
}

// attach adds a file that already exists in the media folders.
func (h *Handler) attach(c *gin.Context) {
	var req attachReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Filename) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "filename required"})
		return
	}
	if h.Media == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "media library not configured"})
		return
	}

	prefer := req.Prefer
	if req.Target == AttachMain || req.Target == AttachImages {
		prefer = models.MediaImage
	}
	found, ok := h.Media.FindType(req.Filename, prefer)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found in project: " + req.Filename})
		return
	}
	h.edit(c, Attach(req.Target, req.Filename, found))
}

func (h *Handler) importJSON(c *gin.Context) {
	products, err := Import(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.save(c.Request.Context(), products, "import"); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": products, "total": len(products)})
}

func (h *Handler) export(c *gin.Context) {
	products, err := h.Repo.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="products.json"`)
	c.Header("Content-Type", "application/json")
	c.Status(http.StatusOK)
	if err := Export(c.Writer, products); err != nil {
		h.Logger.Warn("export write", zap.Error(err))
	}
}

func (h *Handler) exportOne(c *gin.Context) {
	p, err := h.Repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+p.ID+`.json"`)
	c.Header("Content-Type", "application/json")
	c.Status(http.StatusOK)
	if err := Export(c.Writer, p); err != nil {
		h.Logger.Warn("export write", zap.Error(err))
	}
}

type reloadReq struct {
	Source string `json:"source"` // file or sheet; empty tries all
}

// reload replaces the stored list from an external source.
func (h *Handler) reload(c *gin.Context) {
	var req reloadReq
	_ = c.ShouldBindJSON(&req)
	if h.Sources == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no catalog sources configured"})
		return
	}

	ctx := c.Request.Context()
	var (
		products []models.Product
		name     string
		err      error
	)
	if req.Source == "" {
		products, name, err = h.Sources.FetchFirst(ctx)
	} else {
		src, ok := h.Sources.Named(req.Source)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown source " + req.Source})
			return
		}
		name = src.Name()
		products, err = src.FetchAll(ctx)
	}
	if err != nil {
		h.Logger.Warn("catalog reload failed", zap.String("source", req.Source), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	products = Clone(products)
	RenumberIDs(products)
	if err := h.save(ctx, products, name); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"source": name, "total": len(products)})
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrIndexOutOfRange), errors.Is(err, ErrNotImage), errors.Is(err, ErrBadImport):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.Logger.Error("catalog request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "catalog unavailable"})
	}
}

func intParam(c *gin.Context, name string) (int, bool) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be an integer"})
		return 0, false
	}
	return n, true
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
