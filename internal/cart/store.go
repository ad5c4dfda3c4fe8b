package cart

import (
	"context"
	"time"

	"storefront/internal/sync"
	"storefront/pkg/models"
)

// Store persists per-session cart state: lines, delivery choice and the
// checkout snapshot.
type Store interface {
	Cart(ctx context.Context, sessionID string) ([]models.CartLine, error)
	SaveCart(ctx context.Context, sessionID string, lines []models.CartLine) error
	DeliveryChoice(ctx context.Context, sessionID string) (string, error)
	// SaveDeliveryChoice with an empty choice clears it.
	SaveDeliveryChoice(ctx context.Context, sessionID, choice string) error
	Checkout(ctx context.Context, sessionID string) (*models.CheckoutData, error)
	// SaveCheckout with nil clears the snapshot.
	SaveCheckout(ctx context.Context, sessionID string, data *models.CheckoutData) error
	// Clear drops lines, delivery choice and checkout snapshot.
	Clear(ctx context.Context, sessionID string) error
}

// Publisher receives cart events; *sync.Hub satisfies it.
type Publisher interface {
	BroadcastJSON(v any)
}

// PublisherFunc adapts a plain callback to Publisher.
type PublisherFunc func(v any)

func (f PublisherFunc) BroadcastJSON(v any) { f(v) }

// NotifyingStore wraps a Store and publishes a CartEvent after every
// cart write.
type NotifyingStore struct {
	Store
	Publisher Publisher
	Now       func() time.Time
}

func NewNotifyingStore(s Store, pub Publisher) *NotifyingStore {
	return &NotifyingStore{Store: s, Publisher: pub, Now: time.Now}
}

func (n *NotifyingStore) SaveCart(ctx context.Context, sessionID string, lines []models.CartLine) error {
	prev, err := n.Store.Cart(ctx, sessionID)
	if err != nil {
		prev = nil
	}
	if err := n.Store.SaveCart(ctx, sessionID, lines); err != nil {
		return err
	}
	n.publish(sessionID, DetectAction(prev, lines), lines)
	return nil
}

func (n *NotifyingStore) Clear(ctx context.Context, sessionID string) error {
	prev, err := n.Store.Cart(ctx, sessionID)
	if err != nil {
		prev = nil
	}
	if err := n.Store.Clear(ctx, sessionID); err != nil {
		return err
	}
	if len(prev) > 0 {
		n.publish(sessionID, sync.CartActionCleared, nil)
	}
	return nil
}

// Notify re-announces the current cart without changing it.
func (n *NotifyingStore) Notify(ctx context.Context, sessionID string) error {
	lines, err := n.Store.Cart(ctx, sessionID)
	if err != nil {
		return err
	}
	n.publish(sessionID, sync.CartActionProgrammatic, lines)
	return nil
}

func (n *NotifyingStore) publish(sessionID, action string, lines []models.CartLine) {
	if n.Publisher == nil {
		return
	}
	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	n.Publisher.BroadcastJSON(sync.CartEvent{
		Type:      sync.EventCartUpdated,
		SessionID: sessionID,
		Action:    action,
		ItemCount: ItemCount(lines),
		Lines:     len(lines),
		At:        now().UTC(),
	})
}

// DetectAction classifies a cart write for listeners.
func DetectAction(prev, next []models.CartLine) string {
	prevTotal, nextTotal := ItemCount(prev), ItemCount(next)
	switch {
	case len(prev) == 0 && len(next) > 0:
		return sync.CartActionAdded
	case len(next) == 0 && len(prev) > 0:
		return sync.CartActionCleared
	case nextTotal > prevTotal:
		return sync.CartActionAdded
	case nextTotal < prevTotal:
		return sync.CartActionRemoved
	default:
		return sync.CartActionUpdated
	}
}
