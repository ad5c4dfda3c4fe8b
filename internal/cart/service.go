package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"storefront/pkg/models"
)

// InputLoader supplies catalog, delivery config and rules for a pass.
// *Loader satisfies it.
type InputLoader interface {
	Load(ctx context.Context) Inputs
}

// Service runs cart operations against a Store: every read reconciles the
// stored lines and writes back what changed.
type Service struct {
	Store  Store
	Loader InputLoader
	Logger *zap.Logger
	Now    func() time.Time
}

func NewService(store Store, loader InputLoader, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{Store: store, Loader: loader, Logger: logger, Now: time.Now}
}

// View reconciles the stored cart and returns what to render. Corrected
// lines are persisted when the pass changed them, and the delivery choice
// is reset to inside when free delivery applies.
func (s *Service) View(ctx context.Context, sessionID string) (Result, error) {
	lines, err := s.Store.Cart(ctx, sessionID)
	if err != nil {
		return Result{}, err
	}
	choice, err := s.Store.DeliveryChoice(ctx, sessionID)
	if err != nil {
		return Result{}, err
	}
	if len(lines) == 0 {
		return EmptyResult(choice), nil
	}

	res := Run(lines, s.Loader.Load(ctx), choice)

	if res.Dirty {
		if err := s.Store.SaveCart(ctx, sessionID, res.Lines); err != nil {
			return res, fmt.Errorf("persist reconciled cart: %w", err)
		}
		s.Logger.Info("cart reconciled",
			zap.String("session", sessionID),
			zap.Int("lines", len(res.Lines)),
			zap.Int("items", res.ItemCount),
		)
	}
	if res.ChoiceReset {
		if err := s.Store.SaveDeliveryChoice(ctx, sessionID, models.DeliveryInside); err != nil {
			return res, fmt.Errorf("persist delivery choice: %w", err)
		}
	}
	return res, nil
}

// Reconcile runs a pass over lines that are not stored anywhere.
func (s *Service) Reconcile(ctx context.Context, lines []models.CartLine, choice string) Result {
	if len(lines) == 0 {
		return EmptyResult(choice)
	}
	return Run(lines, s.Loader.Load(ctx), choice)
}

func (s *Service) Add(ctx context.Context, sessionID string, line models.CartLine) (Result, error) {
	if strings.TrimSpace(line.ID) == "" {
		return Result{}, fmt.Errorf("%w: id required", ErrMalformedLine)
	}
	return s.mutate(ctx, sessionID, func(lines []models.CartLine) ([]models.CartLine, error) {
		return Add(lines, line), nil
	})
}

func (s *Service) Increment(ctx context.Context, sessionID string, index int) (Result, error) {
	return s.mutate(ctx, sessionID, func(lines []models.CartLine) ([]models.CartLine, error) {
		return Increment(lines, index)
	})
}

func (s *Service) Decrement(ctx context.Context, sessionID string, index int) (Result, error) {
	return s.mutate(ctx, sessionID, func(lines []models.CartLine) ([]models.CartLine, error) {
		return Decrement(lines, index)
	})
}

func (s *Service) SetQuantity(ctx context.Context, sessionID string, index, quantity int) (Result, error) {
	return s.mutate(ctx, sessionID, func(lines []models.CartLine) ([]models.CartLine, error) {
		out, clamped, err := SetQuantity(lines, index, quantity)
		if clamped {
			s.Logger.Debug("quantity limited to stock",
				zap.String("session", sessionID),
				zap.Int("requested", quantity),
				zap.Int("stock", out[index].Stock),
			)
		}
		return out, err
	})
}

func (s *Service) Remove(ctx context.Context, sessionID string, index int) (Result, error) {
	return s.mutate(ctx, sessionID, func(lines []models.CartLine) ([]models.CartLine, error) {
		return Remove(lines, index)
	})
}

func (s *Service) mutate(ctx context.Context, sessionID string, fn func([]models.CartLine) ([]models.CartLine, error)) (Result, error) {
	lines, err := s.Store.Cart(ctx, sessionID)
	if err != nil {
		return Result{}, err
	}
	next, err := fn(lines)
	if err != nil {
		return Result{}, err
	}
	if err := s.Store.SaveCart(ctx, sessionID, next); err != nil {
		return Result{}, err
	}
	return s.View(ctx, sessionID)
}

// SetDeliveryChoice stores inside or outside. While free delivery applies
// the next View puts it back to inside.
func (s *Service) SetDeliveryChoice(ctx context.Context, sessionID, choice string) (Result, error) {
	choice = strings.ToLower(strings.TrimSpace(choice))
	if choice != models.DeliveryInside && choice != models.DeliveryOutside {
		return Result{}, ErrInvalidChoice
	}
	if err := s.Store.SaveDeliveryChoice(ctx, sessionID, choice); err != nil {
		return Result{}, err
	}
	return s.View(ctx, sessionID)
}

// Checkout snapshots the reconciled cart for the order backend. extra
// carries customer fields and is merged over the stored snapshot.
func (s *Service) Checkout(ctx context.Context, sessionID string, extra map[string]any) (models.CheckoutData, error) {
	res, err := s.View(ctx, sessionID)
	if err != nil {
		return models.CheckoutData{}, err
	}
	if len(res.Lines) == 0 {
		return models.CheckoutData{}, ErrEmptyCart
	}

	existing, err := s.Store.Checkout(ctx, sessionID)
	if err != nil {
		return models.CheckoutData{}, err
	}
	if len(extra) > 0 {
		if existing == nil {
			existing = &models.CheckoutData{}
		}
		if existing.Extra == nil {
			existing.Extra = map[string]any{}
		}
		for k, v := range extra {
			existing.Extra[k] = v
		}
	}

	data := BuildCheckout(existing, res, s.now())
	if err := s.Store.SaveCheckout(ctx, sessionID, &data); err != nil {
		return models.CheckoutData{}, err
	}
	return data, nil
}

func (s *Service) CheckoutData(ctx context.Context, sessionID string) (*models.CheckoutData, error) {
	return s.Store.Checkout(ctx, sessionID)
}

func (s *Service) Clear(ctx context.Context, sessionID string) error {
	return s.Store.Clear(ctx, sessionID)
}

// Notify re-announces a cart to listeners when the store supports it.
func (s *Service) Notify(ctx context.Context, sessionID string) error {
	n, ok := s.Store.(interface {
		Notify(ctx context.Context, sessionID string) error
	})
	if !ok {
		return nil
	}
	return n.Notify(ctx, sessionID)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
