package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcher_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "delivery.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"baseFee":7}`), 0o600))

	var doc struct {
		BaseFee float64 `json:"baseFee"`
	}
	require.NoError(t, New(time.Second).JSON(context.Background(), path, &doc))
	assert.Equal(t, 7.0, doc.BaseFee)

	_, err := New(time.Second).Get(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFetcher_Remote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.json":
			_, _ = w.Write([]byte(`[1,2,3]`))
		case "/broken.json":
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := New(time.Second)
	var nums []int
	require.NoError(t, f.JSON(context.Background(), srv.URL+"/ok.json", &nums))
	assert.Equal(t, []int{1, 2, 3}, nums)

	_, err := f.Get(context.Background(), srv.URL+"/nope.json")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = f.Get(context.Background(), srv.URL+"/broken.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")

	assert.Error(t, f.JSON(context.Background(), srv.URL+"/ok.json", &struct{}{}))
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("HTTPS://example.test/a.json"))
	assert.False(t, IsRemote("../products.json"))
}
