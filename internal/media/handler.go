package media

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront/pkg/models"
)

type Handler struct {
	Library *Library
}

func NewHandler(lib *Library) *Handler {
	return &Handler{Library: lib}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/media", h.list)
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/media/find", h.find)
	rg.POST("/media/refresh", h.refresh)
}

// GET /media?scan=1&images=N&videos=M
func (h *Handler) list(c *gin.Context) {
	counts, ok := parseCounts(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "images and videos must be non-negative integers"})
		return
	}
	scan := c.Query("scan") == "1" || c.Query("scan") == "true"

	files := h.Library.Files(c.Request.Context(), scan, counts)
	images, videos := 0, 0
	for _, f := range files {
		if f.Type == models.MediaVideo {
			videos++
		} else {
			images++
		}
	}
	c.JSON(http.StatusOK, gin.H{"images": images, "videos": videos, "items": files})
}

func (h *Handler) find(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	f, ok := h.Library.Find(name, c.Query("prefer"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found in project: " + name})
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *Handler) refresh(c *gin.Context) {
	h.Library.Refresh()
	files := h.Library.Files(c.Request.Context(), true, Counts{})
	c.JSON(http.StatusOK, gin.H{"total": len(files)})
}

func parseCounts(c *gin.Context) (Counts, bool) {
	var counts Counts
	for key, dst := range map[string]**int{"images": &counts.Images, "videos": &counts.Videos} {
		v := c.Query(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Counts{}, false
		}
		*dst = &n
	}
	return counts, true
}
