package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/cart"
	"storefront/pkg/utils"
)

func newTestApp(t *testing.T) (*App, http.Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := utils.DefaultConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), "storefront.db")
	cfg.Media.ManifestPath = filepath.Join(t.TempDir(), "missing-manifest.json")

	a, err := New(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a, a.Router()
}

type client struct {
	t     *testing.T
	h     http.Handler
	token string
}

func (c *client) do(method, path, body string) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	c.h.ServeHTTP(w, req)
	return w
}

func TestRouter_HealthAndReady(t *testing.T) {
	_, h := newTestApp(t)
	c := &client{t: t, h: h}

	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/health", "").Code)
	w := c.do(http.MethodGet, "/ready", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ready"`)
}

func TestRouter_AdminRoutesNeedToken(t *testing.T) {
	_, h := newTestApp(t)
	c := &client{t: t, h: h}

	for _, path := range []string{"/api/admin/products", "/api/admin/rules", "/api/admin/media/find?name=x", "/api/admin/sheet"} {
		assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, path, "").Code, path)
	}
	// public surface stays open
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/products", "").Code)
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/media", "").Code)
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/delivery", "").Code)
}

func TestRouter_CMSEditsReachTheCart(t *testing.T) {
	_, h := newTestApp(t)
	c := &client{t: t, h: h}

	w := c.do(http.MethodPost, "/api/admin/auth/setup", `{"username":"owner","email":"owner@shop.test","password":"password1"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	admin := &client{t: t, h: h, token: login.Token}

	w = admin.do(http.MethodPut, "/api/admin/products",
		`[{"title":"Runner","price":20,"variants":[{"colorName":"Red","sizes":[{"size":"M","stock":2}]}]}]`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = c.do(http.MethodPost, "/api/cart", "")
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	base := "/api/cart/" + created.SessionID

	w = c.do(http.MethodPost, base+"/items", `{"id":"product1","title":"Runner","price":20,"quantity":5,"color":"Red","size":"M","stock":9}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res cart.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 2, res.Lines[0].Quantity)
	assert.Equal(t, 2, res.Lines[0].Stock)
	assert.Equal(t, 50.0, res.Total)
	assert.Len(t, res.Warnings, 2, "delivery and rules documents are not configured yet")

	require.Equal(t, http.StatusNoContent, admin.do(http.MethodPut, "/api/admin/rules", `{"freeDeliveryThreshold":2}`).Code)
	require.Equal(t, http.StatusNoContent, admin.do(http.MethodPut, "/api/admin/delivery",
		`{"baseFee":7,"options":{"inside":{"extra":0},"outside":{"extra":3}}}`).Code)

	w = c.do(http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, w.Code)
	res = cart.Result{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.FreeDelivery.Free)
	assert.Equal(t, cart.ReasonGlobal, res.FreeDelivery.Reason)
	assert.Equal(t, 40.0, res.Total)
	assert.Empty(t, res.Warnings)
}

func TestNew_MemoryCartStore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := utils.DefaultConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), "storefront.db")
	cfg.Media.ManifestPath = filepath.Join(t.TempDir(), "missing-manifest.json")
	cfg.CartStore = "Memory"

	a, err := New(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	c := &client{t: t, h: a.Router()}

	w := c.do(http.MethodPost, "/api/cart/s1/items", `{"id":"sticker","title":"Sticker","price":1,"quantity":2,"stock":5}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = c.do(http.MethodGet, "/api/cart/s1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var res cart.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Len(t, res.Lines, 1)
	assert.Equal(t, 2, res.Lines[0].Quantity)

	var rows int
	require.NoError(t, a.DB.QueryRow(`SELECT COUNT(*) FROM carts`).Scan(&rows))
	assert.Zero(t, rows, "memory carts never reach sqlite")
}

func TestNew_UnknownCartStore(t *testing.T) {
	cfg := utils.DefaultConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), "storefront.db")
	cfg.CartStore = "redis"

	_, err := New(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown cart store "redis"`)
}
