package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/cart"
	"storefront/pkg/models"
)

func runCLI(t *testing.T, api, tokenPath string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--api", api, "--token", tokenPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestCartShowRendersReconciledCart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/cart/s1", r.URL.Path)
		_ = json.NewEncoder(w).Encode(cart.Result{
			Lines: []models.CartLine{
				{ID: "p1", Title: "Shirt", Price: 20, Quantity: 2, Color: "Red", Size: "M", Stock: 2},
			},
			ItemCount: 2,
			Dirty:     true,
			Warnings:  []string{"Only 2 left of Shirt"},
			Quote: cart.Quote{
				Subtotal:       40,
				ShippingFee:    10,
				Total:          50,
				DeliveryChoice: models.DeliveryInside,
			},
		})
	}))
	defer srv.Close()

	out, err := runCLI(t, srv.URL, filepath.Join(t.TempDir(), "token.json"), "cart", "show", "s1")
	require.NoError(t, err)
	assert.Contains(t, out, "Shirt")
	assert.Contains(t, out, "Red / M")
	assert.Contains(t, out, "Total: "+cart.FormatMoney(50))
	assert.Contains(t, out, "warning: Only 2 left of Shirt")
}

func TestAuthLoginStoresToken(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/admin/auth/login", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok-123"})
	}))
	defer srv.Close()

	tokenPath := filepath.Join(t.TempDir(), "nested", "token.json")
	_, err := runCLI(t, srv.URL, tokenPath, "auth", "login", "--login", "ana", "--password", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "ana", got["login"])

	data, err := os.ReadFile(tokenPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "tok-123")

	tok, err := newAPIClient(srv.URL, tokenPath).token()
	require.NoError(t, err)
	assert.Equal(t, "tok-123", tok)
}

func TestAdminRequestWithoutTokenFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	}))
	defer srv.Close()

	_, err := runCLI(t, srv.URL, filepath.Join(t.TempDir(), "missing.json"), "sheet", "read")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "please login")
}

func TestServerErrorIsReported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"index out of range"}`))
	}))
	defer srv.Close()

	_, err := runCLI(t, srv.URL, filepath.Join(t.TempDir(), "token.json"), "cart", "rm", "s1", "9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index out of range")
}

func TestRenderCartHidesPricesAndShowsFreeDelivery(t *testing.T) {
	var out bytes.Buffer
	res := cart.Result{
		Lines:        []models.CartLine{{ID: "p1", Title: "Mystery box", Price: 99, Quantity: 1, Stock: 5}},
		ItemCount:    1,
		FreeDelivery: cart.FreeDelivery{Free: true, Reason: cart.ReasonGlobal},
		Quote:        cart.Quote{HiddenPriceProducts: []string{"p1"}},
	}
	renderCart(&out, res)

	assert.NotContains(t, out.String(), cart.FormatMoney(99))
	assert.Contains(t, out.String(), "Delivery: Free (global)")

	out.Reset()
	renderCart(&out, cart.Result{})
	assert.Equal(t, "Cart is empty\n", out.String())
}

func TestWebsocketURL(t *testing.T) {
	u, err := newAPIClient("https://shop.example/", "").websocketURL("/ws")
	require.NoError(t, err)
	assert.Equal(t, "wss://shop.example/ws", u)
}
