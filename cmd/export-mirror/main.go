package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"storefront/internal/catalog"
	"storefront/internal/settings"
	"storefront/pkg/database"
	"storefront/pkg/logging"
)

// mirrorDocs maps stored settings documents to the file mirror-server serves.
var mirrorDocs = []struct {
	name string
	file string
}{
	{settings.DocDelivery, "delivery.json"},
	{settings.DocRules, "cart-rules.json"},
}

func main() {
	var (
		dbPath = flag.String("db", "", "sqlite path (default STOREFRONT_DB_PATH or ~/.storefront/data.db)")
		outDir = flag.String("out", "data", "directory to write the JSON documents into")
	)
	flag.Parse()

	logger := logging.Must(os.Getenv("STOREFRONT_LOG_LEVEL"), false)
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg := database.DefaultConfig()
	if *dbPath != "" {
		cfg.Path = *dbPath
	}
	db, err := database.OpenMigrated(cfg)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close()

	written, err := export(ctx, db, *outDir, logger)
	if err != nil {
		logger.Fatal("export failed", zap.Error(err))
	}
	logger.Info("mirror exported", zap.Strings("files", written), zap.String("dir", *outDir))
}

// export writes products.json plus every stored settings document into dir.
// Documents that were never saved are skipped.
func export(ctx context.Context, db *sql.DB, dir string, logger *zap.Logger) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}

	products, err := catalog.NewRepo(db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	b, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := writeDoc(dir, "products.json", b); err != nil {
		return nil, err
	}
	written := []string{"products.json"}

	docs := settings.NewRepo(db)
	for _, d := range mirrorDocs {
		raw, err := docs.Get(ctx, d.name)
		if err != nil {
			return written, fmt.Errorf("read %s: %w", d.name, err)
		}
		if raw == nil {
			logger.Warn("document not stored, skipping", zap.String("name", d.name))
			continue
		}
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, raw, "", "  "); err != nil {
			return written, fmt.Errorf("%s is not valid JSON: %w", d.name, err)
		}
		if err := writeDoc(dir, d.file, pretty.Bytes()); err != nil {
			return written, err
		}
		written = append(written, d.file)
	}
	return written, nil
}

// writeDoc replaces the file atomically so mirror-server never serves half a document.
func writeDoc(dir, name string, b []byte) error {
	tmp, err := os.CreateTemp(dir, name+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(append(b, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(dir, name))
}
