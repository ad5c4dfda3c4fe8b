package main

import (
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"storefront/pkg/logging"
)

// documents the storefront pages fetch by name.
var documents = map[string]bool{
	"products.json":       true,
	"delivery.json":       true,
	"cart-rules.json":     true,
	"media-manifest.json": true,
}

func main() {
	addr := flag.String("addr", ":9000", "listen address")
	dir := flag.String("dir", "data", "directory holding the JSON documents")
	flag.Parse()

	logger := logging.Must(os.Getenv("STOREFRONT_LOG_LEVEL"), false)
	defer func() { _ = logger.Sync() }()

	srv := &http.Server{
		Addr:              *addr,
		Handler:           newMux(*dir, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("mirror-server listening", zap.String("addr", *addr), zap.String("dir", *dir))
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal("mirror-server stopped", zap.Error(err))
	}
}

func newMux(dir string, logger *zap.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{name}", func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		if !documents[name] {
			http.NotFound(w, r)
			return
		}
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			if os.IsNotExist(err) {
				http.NotFound(w, r)
				return
			}
			logger.Error("read document", zap.String("name", name), zap.Error(err))
			http.Error(w, "cannot read "+name, http.StatusInternalServerError)
			return
		}
		// a broken file must not reach the shop pages
		if !json.Valid(b) {
			logger.Warn("invalid json document", zap.String("name", name))
			http.Error(w, name+" is not valid JSON", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write(b)
	})
	return mux
}
