// Package app wires the storefront components from a Config. Every binary
// builds the same graph; they differ only in what they expose.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/media"
	"storefront/internal/settings"
	"storefront/internal/sheet"
	synchub "storefront/internal/sync"
	"storefront/pkg/database"
	"storefront/pkg/fetch"
	"storefront/pkg/logging"
	"storefront/pkg/utils"
)

type App struct {
	Config utils.Config
	Logger *zap.Logger
	DB     *sql.DB
	DBPath string
	Hub    *synchub.Hub

	Fetcher   *fetch.Fetcher
	Products  *catalog.Repo
	Sources   *catalog.Aggregator
	Sheet     *sheet.Client
	Documents *settings.Documents
	Media     *media.Library
	Carts     *cart.Service
	Admins    *auth.Repo
	Tokens    auth.TokenService
}

// New opens the database and builds every component.
func New(cfg utils.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dbCfg := database.DefaultConfig()
	if cfg.DBPath != "" {
		dbCfg.Path = cfg.DBPath
	}
	db, err := database.OpenMigrated(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	a := &App{
		Config:  cfg,
		Logger:  logger,
		DB:      db,
		DBPath:  dbCfg.Path,
		Hub:     synchub.NewHub(logger.Named("sync")),
		Fetcher: fetch.New(cfg.Documents.Timeout),
	}

	a.Products = catalog.NewRepo(db)
	a.Sheet = sheet.NewClient(cfg.Sheet.ScriptURL, cfg.Sheet.Name, cfg.Sheet.Timeout, logger.Named("sheet"))

	// An explicitly configured products document wins over the database
	// copy; the sheet is the last resort.
	var sources []catalog.Source
	if strings.TrimSpace(cfg.Documents.ProductsURL) != "" {
		sources = append(sources, catalog.NewFileSource(cfg.Documents.ProductsURL, a.Fetcher))
	}
	sources = append(sources, a.Products)
	if strings.TrimSpace(cfg.Sheet.ScriptURL) != "" {
		sources = append(sources, a.Sheet)
	}
	a.Sources = catalog.NewAggregator(logger.Named("catalog"), sources...)

	a.Documents = settings.NewDocuments(settings.NewRepo(db), a.Fetcher,
		cfg.Documents.DeliveryURL, cfg.Documents.RulesURL, logger.Named("settings"))
	a.Media = media.NewLibrary(cfg.Media, a.Fetcher, logger.Named("media"))

	base, err := newCartStore(cfg.CartStore, db, logger.Named("cart"))
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	store := cart.NewNotifyingStore(base, a.Hub)
	loader := cart.NewLoader(a.Sources, a.Documents, a.Documents, logger.Named("cart"))
	a.Carts = cart.NewService(store, loader, logger.Named("cart"))

	a.Admins = auth.NewRepo(db)
	a.Tokens = auth.NewTokenService(cfg.Auth)
	return a, nil
}

func newCartStore(kind string, db *sql.DB, logger *zap.Logger) (cart.Store, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", utils.CartStoreSQLite:
		return cart.NewSQLStore(db, logger), nil
	case utils.CartStoreMemory:
		logger.Warn("carts are kept in memory and lost on restart")
		return cart.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown cart store %q", kind)
}

func (a *App) Close() error {
	a.Hub.Close()
	return a.DB.Close()
}

// Router mounts the public API under /api and the CMS under /api/admin.
func (a *App) Router() *gin.Engine {
	r := gin.New()
	r.Use(logging.GinLogger(a.Logger.Named("http")), gin.Recovery())
	_ = r.SetTrustedProxies([]string{"127.0.0.1"})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": a.DBPath})
	})
	r.GET("/ready", a.ready)
	r.GET("/ws", synchub.WSHandler(a.Hub))

	api := r.Group("/api")
	admin := api.Group("/admin")

	authHandler := auth.NewHandler(a.Admins, a.Tokens, a.Logger.Named("auth"))
	authHandler.RegisterRoutes(admin.Group("/auth"))
	admin.Use(authHandler.Middleware())

	cart.NewHandler(a.Carts, a.Logger.Named("cart")).RegisterRoutes(api)

	catalogHandler := catalog.NewHandler(a.Products, a.Sources, a.Media, a.Hub, a.Logger.Named("catalog"))
	catalogHandler.RegisterRoutes(api)
	catalogHandler.RegisterAdminRoutes(admin)

	settingsHandler := settings.NewHandler(a.Documents, a.Logger.Named("settings"))
	settingsHandler.RegisterRoutes(api)
	settingsHandler.RegisterAdminRoutes(admin)

	mediaHandler := media.NewHandler(a.Media)
	mediaHandler.RegisterRoutes(api)
	mediaHandler.RegisterAdminRoutes(admin)

	sheet.NewHandler(a.Sheet, a.Products, a.Logger.Named("sheet")).RegisterAdminRoutes(admin)
	return r
}

func (a *App) ready(c *gin.Context) {
	stats := a.Hub.Stats()
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := a.DB.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":      "not_ready",
			"db_error":    err.Error(),
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "ready",
		"db":          "ok",
		"tcp_clients": stats.TCPClients,
		"ws_clients":  stats.WSClients,
	})
}
