package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const memoryPath = ":memory:"

// Config locates the sqlite file shared by the catalog, carts, settings
// documents and admin accounts.
type Config struct {
	Path         string
	BusyTimeout  time.Duration // writer wait for a lock held by another connection
	MaxOpenConns int
}

func DefaultConfig() Config {
	cfg := Config{BusyTimeout: 5 * time.Second}
	if p := os.Getenv("STOREFRONT_DB_PATH"); p != "" {
		cfg.Path = p
		return cfg
	}

	// local default: ~/.storefront/data.db
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	cfg.Path = filepath.Join(home, ".storefront", "data.db")
	return cfg
}

func (c Config) inMemory() bool {
	return c.Path == memoryPath || strings.HasPrefix(c.Path, "file::memory:")
}

// dsn builds the go-sqlite3 connection string. Pragmas go through the DSN so
// every pooled connection gets them, not only the first.
func (c Config) dsn() string {
	q := url.Values{}
	q.Set("_foreign_keys", "on")
	busy := c.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	q.Set("_busy_timeout", fmt.Sprint(busy.Milliseconds()))
	if c.inMemory() {
		return "file::memory:?" + q.Encode()
	}
	q.Set("_journal_mode", "WAL")
	return "file:" + c.Path + "?" + q.Encode()
}

func EnsureDataDir(cfg Config) error {
	if cfg.inMemory() {
		return nil
	}
	return os.MkdirAll(filepath.Dir(cfg.Path), 0o755)
}

func Open(cfg Config) (*sql.DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is empty")
	}
	if err := EnsureDataDir(cfg); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	switch {
	case cfg.inMemory():
		// every connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	case cfg.MaxOpenConns > 0:
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

// OpenMigrated opens the database and applies the embedded schema.
func OpenMigrated(cfg Config) (*sql.DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
