package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "Sheet1", cfg.Sheet.Name)
	assert.Equal(t, 24*time.Hour, cfg.Auth.JWTDuration)
	assert.Equal(t, "../image/", cfg.Media.ImageFolder)
}

func TestLoadConfig_MissingFileIsOptional(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "storefront", cfg.Auth.JWTIssuer)
}

func TestLoadConfig_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storefront.yaml")
	body := `
http_addr: ":9999"
sheet:
  script_url: "https://example.test/exec"
documents:
  delivery_url: "data/delivery.json"
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	t.Setenv("STOREFRONT_HTTP_ADDR", ":7000")
	t.Setenv("STOREFRONT_JWT_TTL_HOURS", "2")
	t.Setenv("STOREFRONT_CART_STORE", CartStoreMemory)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.HTTPAddr, "env wins over file")
	assert.Equal(t, "https://example.test/exec", cfg.Sheet.ScriptURL)
	assert.Equal(t, "data/delivery.json", cfg.Documents.DeliveryURL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 2*time.Hour, cfg.Auth.JWTDuration)
	assert.Equal(t, CartStoreMemory, cfg.CartStore)
	// untouched sections keep defaults
	assert.Equal(t, 15*time.Second, cfg.Sheet.Timeout)
}

func TestLoadConfig_BadTTLKeepsDefault(t *testing.T) {
	t.Setenv("STOREFRONT_JWT_TTL_HOURS", "soon")
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, cfg.Auth.JWTDuration)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http_addr: [unclosed"), 0o600))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}
