// Package settings keeps the delivery and cart-rules documents.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const (
	DocDelivery = "delivery"
	DocRules    = "cart-rules"
)

// Repo stores named JSON documents.
type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Get returns nil, nil when the document has never been stored.
func (r *Repo) Get(ctx context.Context, name string) ([]byte, error) {
	var body string
	err := r.DB.QueryRowContext(ctx, `
		SELECT body FROM documents WHERE name = ?
	`, name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", name, err)
	}
	return []byte(body), nil
}

func (r *Repo) Put(ctx context.Context, name string, body []byte) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO documents (name, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`, name, string(body), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("put document %s: %w", name, err)
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, name string) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM documents WHERE name = ?`, name); err != nil {
		return fmt.Errorf("delete document %s: %w", name, err)
	}
	return nil
}
