package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"storefront/pkg/models"
)

type fakeCatalog struct {
	products []models.Product
	err      error
}

func (f fakeCatalog) Products(context.Context) ([]models.Product, error) { return f.products, f.err }

type fakeDelivery struct {
	cfg models.DeliveryConfig
	err error
}

func (f fakeDelivery) Delivery(context.Context) (models.DeliveryConfig, error) { return f.cfg, f.err }

type fakeRules struct {
	rules models.CartRules
	err   error
}

func (f fakeRules) Rules(context.Context) (models.CartRules, error) { return f.rules, f.err }

func TestLoader_AllSourcesOK(t *testing.T) {
	cfg := models.DeliveryConfig{BaseFee: 3}
	rules := models.CartRules{FreeDeliveryThreshold: ptr(2)}
	l := NewLoader(
		fakeCatalog{products: []models.Product{{ID: "a"}}},
		fakeDelivery{cfg: cfg},
		fakeRules{rules: rules},
		nil,
	)

	in := l.Load(context.Background())

	require.NotNil(t, in.Catalog)
	assert.Equal(t, 1, in.Catalog.Len())
	assert.Equal(t, cfg, in.Delivery)
	assert.Equal(t, rules, in.Rules)
	assert.Empty(t, in.Warnings)
}

func TestLoader_FailuresFallBack(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	boom := errors.New("boom")
	l := NewLoader(fakeCatalog{err: boom}, fakeDelivery{err: boom}, fakeRules{err: boom}, zap.New(core))

	in := l.Load(context.Background())

	assert.Nil(t, in.Catalog)
	assert.Equal(t, models.DefaultDeliveryConfig(), in.Delivery)
	assert.Equal(t, models.DefaultCartRules(), in.Rules)
	require.Len(t, in.Warnings, 3)

	var catalogWarn, configWarn int
	for _, w := range in.Warnings {
		if errors.Is(w, ErrCatalogUnavailable) {
			catalogWarn++
		}
		if errors.Is(w, ErrConfigUnavailable) {
			configWarn++
		}
	}
	assert.Equal(t, 1, catalogWarn)
	assert.Equal(t, 2, configWarn)
	assert.Equal(t, 3, logs.Len())
}

func TestRun_CatalogUnavailableKeepsCachedStock(t *testing.T) {
	in := NewLoader(nil, nil, nil, nil).Load(context.Background())
	res := Run([]models.CartLine{line("runner", "Red", "M", 10, 12)}, in, "")

	assert.Equal(t, 10, res.Lines[0].Quantity)
	assert.Equal(t, 12, res.Lines[0].Stock)
	assert.False(t, res.Dirty)
	assert.Equal(t, 10.0, res.ShippingFee)
	assert.Len(t, res.Warnings, 3)
}
