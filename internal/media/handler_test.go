package media

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/pkg/models"
)

func TestHandler_Routes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	lib := newTestLibrary(t, `{"images":2,"videos":1}`)
	lib.ImageFolder = "image/"
	require.NoError(t, os.MkdirAll(filepath.Join(lib.Root, "image"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(lib.Root, "image", "hero.jpg"), []byte("x"), 0o600))

	r := gin.New()
	h := NewHandler(lib)
	h.RegisterRoutes(r.Group("/api"))
	h.RegisterAdminRoutes(r.Group("/api/admin"))

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	w := get("/api/media?scan=1")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Images int                `json:"images"`
		Videos int                `json:"videos"`
		Items  []models.MediaFile `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Images)
	assert.Equal(t, 1, list.Videos)
	assert.Equal(t, "image/image1.jpg", list.Items[0].URL)

	w = get("/api/media?images=4&videos=0")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 4, list.Images)
	assert.Zero(t, list.Videos)

	assert.Equal(t, http.StatusBadRequest, get("/api/media?images=-1").Code)

	w = get("/api/admin/media/find?name=hero.jpg&prefer=video")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"type":"image"`)

	assert.Equal(t, http.StatusNotFound, get("/api/admin/media/find?name=nope.jpg").Code)
	assert.Equal(t, http.StatusBadRequest, get("/api/admin/media/find").Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/admin/media/refresh", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total":3}`, w.Body.String())
}
