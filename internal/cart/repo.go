package cart

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"storefront/pkg/models"
)

// SQLStore keeps carts in the carts table, one row per session.
type SQLStore struct {
	DB     *sql.DB
	Logger *zap.Logger
}

func NewSQLStore(db *sql.DB, logger *zap.Logger) *SQLStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLStore{DB: db, Logger: logger}
}

// Cart returns the stored lines for sessionID, or an empty cart. Malformed
// entries are logged and kept with zero quantity.
func (s *SQLStore) Cart(ctx context.Context, sessionID string) ([]models.CartLine, error) {
	var raw sql.NullString
	err := s.DB.QueryRowContext(ctx, `
		SELECT lines FROM carts WHERE session_id = ?
	`, sessionID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []models.CartLine{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	lines, problems := DecodeLines([]byte(raw.String))
	for _, p := range problems {
		s.Logger.Warn("stored cart line", zap.String("session", sessionID), zap.Error(p))
	}
	return lines, nil
}

func (s *SQLStore) SaveCart(ctx context.Context, sessionID string, lines []models.CartLine) error {
	if lines == nil {
		lines = []models.CartLine{}
	}
	b, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO carts (session_id, lines, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(session_id) DO UPDATE SET
			lines = excluded.lines,
			updated_at = CURRENT_TIMESTAMP
	`, sessionID, string(b))
	if err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *SQLStore) DeliveryChoice(ctx context.Context, sessionID string) (string, error) {
	var choice sql.NullString
	err := s.DB.QueryRowContext(ctx, `
		SELECT delivery_choice FROM carts WHERE session_id = ?
	`, sessionID).Scan(&choice)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get delivery choice: %w", err)
	}
	return choice.String, nil
}

func (s *SQLStore) SaveDeliveryChoice(ctx context.Context, sessionID, choice string) error {
	var v any
	if choice != "" {
		v = choice
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO carts (session_id, delivery_choice, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(session_id) DO UPDATE SET
			delivery_choice = excluded.delivery_choice,
			updated_at = CURRENT_TIMESTAMP
	`, sessionID, v)
	if err != nil {
		return fmt.Errorf("save delivery choice: %w", err)
	}
	return nil
}

func (s *SQLStore) Checkout(ctx context.Context, sessionID string) (*models.CheckoutData, error) {
	var raw sql.NullString
	err := s.DB.QueryRowContext(ctx, `
		SELECT checkout FROM carts WHERE session_id = ?
	`, sessionID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !raw.Valid) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get checkout: %w", err)
	}

	var data models.CheckoutData
	if err := json.Unmarshal([]byte(raw.String), &data); err != nil {
		// unreadable snapshot is treated as absent
		s.Logger.Warn("stored checkout unreadable", zap.String("session", sessionID), zap.Error(err))
		return nil, nil
	}
	return &data, nil
}

func (s *SQLStore) SaveCheckout(ctx context.Context, sessionID string, data *models.CheckoutData) error {
	var v any
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("encode checkout: %w", err)
		}
		v = string(b)
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO carts (session_id, checkout, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(session_id) DO UPDATE SET
			checkout = excluded.checkout,
			updated_at = CURRENT_TIMESTAMP
	`, sessionID, v)
	if err != nil {
		return fmt.Errorf("save checkout: %w", err)
	}
	return nil
}

func (s *SQLStore) Clear(ctx context.Context, sessionID string) error {
	_, err := s.DB.ExecContext(ctx, `
		DELETE FROM carts WHERE session_id = ?
	`, sessionID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
