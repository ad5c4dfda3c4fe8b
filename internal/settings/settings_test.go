package settings

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/cart"
	"storefront/pkg/database"
	"storefront/pkg/models"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenMigrated(database.Config{Path: filepath.Join(t.TempDir(), "settings.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// Documents feeds the cart loader directly.
var (
	_ cart.DeliverySource = (*Documents)(nil)
	_ cart.RulesSource    = (*Documents)(nil)
)

const deliveryJSON = `{"baseFee":12,"options":{"inside":{"extra":0,"waitDays":1},"outside":{"extra":8,"waitDays":4}}}`

func TestRepo_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewRepo(openTestDB(t))

	got, err := repo.Get(ctx, DocDelivery)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, repo.Put(ctx, DocDelivery, []byte(`{"baseFee":1}`)))
	require.NoError(t, repo.Put(ctx, DocDelivery, []byte(deliveryJSON)))
	got, err = repo.Get(ctx, DocDelivery)
	require.NoError(t, err)
	assert.JSONEq(t, deliveryJSON, string(got))

	require.NoError(t, repo.Delete(ctx, DocDelivery))
	got, err = repo.Get(ctx, DocDelivery)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDocuments_DatabaseCopy(t *testing.T) {
	ctx := context.Background()
	docs := NewDocuments(NewRepo(openTestDB(t)), nil, "", "", nil)

	_, err := docs.Delivery(ctx)
	assert.True(t, errors.Is(err, ErrMissing))

	require.NoError(t, docs.Save(ctx, DocDelivery, []byte(deliveryJSON)))
	cfg, err := docs.Delivery(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12.0, cfg.BaseFee)
	assert.Equal(t, 8.0, cfg.Extra(models.DeliveryOutside))

	require.NoError(t, docs.Save(ctx, DocRules, []byte(`{"freeDeliveryThreshold":3}`)))
	rules, err := docs.Rules(ctx)
	require.NoError(t, err)
	require.NotNil(t, rules.FreeDeliveryThreshold)
	assert.Equal(t, 3.0, *rules.FreeDeliveryThreshold)
	assert.NotNil(t, rules.ProductRules)
}

func TestDocuments_SaveRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	docs := NewDocuments(NewRepo(openTestDB(t)), nil, "", "", nil)

	assert.True(t, errors.Is(docs.Save(ctx, DocDelivery, []byte(`{"baseFee":-1}`)), ErrInvalid))
	assert.True(t, errors.Is(docs.Save(ctx, DocRules, []byte(`{"productRules":[]}`)), ErrInvalid))
	assert.True(t, errors.Is(docs.Save(ctx, "other", []byte(`{}`)), ErrInvalid))
}

func TestDocuments_ExternalLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/delivery.json" {
			_, _ = w.Write([]byte(deliveryJSON))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	rulesPath := filepath.Join(t.TempDir(), "cart-rules.json")
	require.NoError(t, os.WriteFile(rulesPath, []byte(`{"productRules":{"product2":{"freeDelivery":true}}}`), 0o600))

	docs := NewDocuments(nil, nil, srv.URL+"/delivery.json", rulesPath, nil)
	ctx := context.Background()

	cfg, err := docs.Delivery(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12.0, cfg.BaseFee)

	rules, err := docs.Rules(ctx)
	require.NoError(t, err)
	rule, ok := rules.Rule("product2")
	assert.True(t, ok)
	assert.True(t, rule.FreeDelivery)
	assert.True(t, docs.Remote(DocRules))

	docs.DeliveryLocation = srv.URL + "/missing.json"
	_, err = docs.Delivery(ctx)
	assert.Error(t, err)
}

func TestLoaderFallsBackWhenDocumentsMissing(t *testing.T) {
	docs := NewDocuments(NewRepo(openTestDB(t)), nil, "", "", nil)
	in := cart.NewLoader(nil, docs, docs, nil).Load(context.Background())

	assert.Equal(t, models.DefaultDeliveryConfig(), in.Delivery)
	assert.Equal(t, models.DefaultCartRules(), in.Rules)
	assert.Len(t, in.Warnings, 3)
}

func TestLoaderKeepsRulesBesideMalformedRule(t *testing.T) {
	ctx := context.Background()
	docs := NewDocuments(NewRepo(openTestDB(t)), nil, "", "", nil)
	require.NoError(t, docs.Save(ctx, DocRules, []byte(`{"productRules":{"secret":{"hidePrice":true},"bulk":{"minQuantityForFree":"3"}}}`)))

	in := cart.NewLoader(nil, docs, docs, nil).Load(ctx)

	assert.True(t, in.Rules.ProductRules["secret"].HidePrice)
	assert.Nil(t, in.Rules.ProductRules["bulk"].MinQuantityForFree)
	assert.Nil(t, in.Rules.FreeDeliveryThreshold)
	// catalog and delivery are missing, the rules document is not
	assert.Len(t, in.Warnings, 2)
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	docs := NewDocuments(NewRepo(openTestDB(t)), nil, "", "", nil)
	h := NewHandler(docs, nil)

	r := gin.New()
	h.RegisterRoutes(r.Group("/api"))
	h.RegisterAdminRoutes(r.Group("/api/admin"))

	do := func(method, path, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(method, path, bytes.NewBufferString(body)))
		return w
	}

	w := do(http.MethodGet, "/api/delivery", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"defaulted":true`)
	assert.Contains(t, w.Body.String(), `"baseFee":10`)

	assert.Equal(t, http.StatusNotFound, do(http.MethodGet, "/api/admin/delivery", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(http.MethodPut, "/api/admin/delivery", "{").Code)
	assert.Equal(t, http.StatusBadRequest, do(http.MethodPut, "/api/admin/delivery", `{"baseFee":-3}`).Code)
	assert.Equal(t, http.StatusNoContent, do(http.MethodPut, "/api/admin/delivery", deliveryJSON).Code)

	w = do(http.MethodGet, "/api/delivery", "")
	assert.Contains(t, w.Body.String(), `"defaulted":false`)
	assert.Contains(t, w.Body.String(), `"baseFee":12`)

	assert.Equal(t, http.StatusNoContent, do(http.MethodPut, "/api/admin/rules", `{"freeDeliveryThreshold":50}`).Code)
	w = do(http.MethodGet, "/api/admin/rules", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"freeDeliveryThreshold":50`)

	docs.RulesLocation = "https://example.test/cart-rules.json"
	assert.Equal(t, http.StatusConflict, do(http.MethodPut, "/api/admin/rules", `{}`).Code)
}
