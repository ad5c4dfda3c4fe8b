package utils

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all storefront settings. Values come from an optional YAML
// file, then STOREFRONT_* environment variables, then defaults.
type Config struct {
	HTTPAddr string `yaml:"http_addr"`
	SyncAddr string `yaml:"sync_addr"`
	GrpcAddr string `yaml:"grpc_addr"`
	DBPath   string `yaml:"db_path"`

	// CartStore is "sqlite" or "memory"; memory carts are lost on restart.
	CartStore string `yaml:"cart_store"`

	Auth      AuthConfig      `yaml:"auth"`
	Sheet     SheetConfig     `yaml:"sheet"`
	Documents DocumentsConfig `yaml:"documents"`
	Media     MediaConfig     `yaml:"media"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type AuthConfig struct {
	JWTSecret   string        `yaml:"jwt_secret"`
	JWTIssuer   string        `yaml:"jwt_issuer"`
	JWTDuration time.Duration `yaml:"jwt_duration"`
}

// SheetConfig points at the spreadsheet script endpoint.
type SheetConfig struct {
	ScriptURL string        `yaml:"script_url"`
	Name      string        `yaml:"name"`
	Timeout   time.Duration `yaml:"timeout"`
}

// DocumentsConfig locates the JSON documents the cart depends on. Each
// entry is either an http(s) URL or a local file path; empty means the
// database copy is used.
type DocumentsConfig struct {
	ProductsURL string        `yaml:"products_url"`
	DeliveryURL string        `yaml:"delivery_url"`
	RulesURL    string        `yaml:"rules_url"`
	Timeout     time.Duration `yaml:"timeout"`
}

type MediaConfig struct {
	ManifestPath string `yaml:"manifest_path"`
	ImageFolder  string `yaml:"image_folder"`
	VideoFolder  string `yaml:"video_folder"`
	PosterFolder string `yaml:"poster_folder"`
	ThumbFolder  string `yaml:"thumb_folder"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

const (
	CartStoreSQLite = "sqlite"
	CartStoreMemory = "memory"
)

func DefaultConfig() Config {
	return Config{
		HTTPAddr:  ":8080",
		SyncAddr:  ":7070",
		GrpcAddr:  ":9090",
		CartStore: CartStoreSQLite,
		Auth: AuthConfig{
			// dev default (change for production)
			JWTSecret:   "dev-secret-change-me",
			JWTIssuer:   "storefront",
			JWTDuration: 24 * time.Hour,
		},
		Sheet: SheetConfig{
			Name:    "Sheet1",
			Timeout: 15 * time.Second,
		},
		Documents: DocumentsConfig{
			Timeout: 10 * time.Second,
		},
		Media: MediaConfig{
			ManifestPath: "./media-manifest.json",
			ImageFolder:  "../image/",
			VideoFolder:  "../video/",
			PosterFolder: "../video/posters/",
			ThumbFolder:  "../image/thumbs/",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// LoadConfig reads path (if non-empty and present) over the defaults and
// applies environment overrides.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
			// optional file
		default:
			return cfg, fmt.Errorf("read %s: %w", path, err)
		}
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	setString(&c.HTTPAddr, "STOREFRONT_HTTP_ADDR")
	setString(&c.SyncAddr, "STOREFRONT_SYNC_ADDR")
	setString(&c.GrpcAddr, "STOREFRONT_GRPC_ADDR")
	setString(&c.DBPath, "STOREFRONT_DB_PATH")
	setString(&c.CartStore, "STOREFRONT_CART_STORE")

	setString(&c.Auth.JWTSecret, "STOREFRONT_JWT_SECRET")
	setString(&c.Auth.JWTIssuer, "STOREFRONT_JWT_ISSUER")
	if v := os.Getenv("STOREFRONT_JWT_TTL_HOURS"); v != "" {
		// if parse fails, keep the current duration
		if h, err := strconv.Atoi(v); err == nil && h > 0 {
			c.Auth.JWTDuration = time.Duration(h) * time.Hour
		}
	}

	setString(&c.Sheet.ScriptURL, "STOREFRONT_SHEET_URL")
	setString(&c.Sheet.Name, "STOREFRONT_SHEET_NAME")

	setString(&c.Documents.ProductsURL, "STOREFRONT_PRODUCTS_URL")
	setString(&c.Documents.DeliveryURL, "STOREFRONT_DELIVERY_URL")
	setString(&c.Documents.RulesURL, "STOREFRONT_RULES_URL")

	setString(&c.Media.ManifestPath, "STOREFRONT_MEDIA_MANIFEST")
	setString(&c.Media.ImageFolder, "STOREFRONT_IMAGE_FOLDER")
	setString(&c.Media.VideoFolder, "STOREFRONT_VIDEO_FOLDER")

	setString(&c.Logging.Level, "STOREFRONT_LOG_LEVEL")
	if v := os.Getenv("STOREFRONT_LOG_DEV"); v != "" {
		c.Logging.Development, _ = strconv.ParseBool(v)
	}
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}
