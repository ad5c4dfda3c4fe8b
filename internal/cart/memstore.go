package cart

import (
	"context"
	"sync"

	"storefront/pkg/models"
)

// MemoryStore is a Store backed by a map. Carts are lost on restart.
type MemoryStore struct {
	mu    sync.Mutex
	carts map[string]*memoryCart
}

type memoryCart struct {
	lines    []models.CartLine
	choice   string
	checkout *models.CheckoutData
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string]*memoryCart)}
}

func (m *MemoryStore) get(sessionID string) *memoryCart {
	c, ok := m.carts[sessionID]
	if !ok {
		c = &memoryCart{}
		m.carts[sessionID] = c
	}
	return c
}

func (m *MemoryStore) Cart(_ context.Context, sessionID string) ([]models.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[sessionID]
	if !ok {
		return []models.CartLine{}, nil
	}
	return cloneLines(c.lines), nil
}

func (m *MemoryStore) SaveCart(_ context.Context, sessionID string, lines []models.CartLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.get(sessionID).lines = cloneLines(lines)
	return nil
}

func (m *MemoryStore) DeliveryChoice(_ context.Context, sessionID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.carts[sessionID]; ok {
		return c.choice, nil
	}
	return "", nil
}

func (m *MemoryStore) SaveDeliveryChoice(_ context.Context, sessionID, choice string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.get(sessionID).choice = choice
	return nil
}

func (m *MemoryStore) Checkout(_ context.Context, sessionID string) (*models.CheckoutData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[sessionID]
	if !ok || c.checkout == nil {
		return nil, nil
	}
	cp := *c.checkout
	return &cp, nil
}

func (m *MemoryStore) SaveCheckout(_ context.Context, sessionID string, data *models.CheckoutData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if data == nil {
		m.get(sessionID).checkout = nil
		return nil
	}
	cp := *data
	m.get(sessionID).checkout = &cp
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, sessionID)
	return nil
}
