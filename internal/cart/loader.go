package cart

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storefront/pkg/models"
)

type CatalogSource interface {
	Products(ctx context.Context) ([]models.Product, error)
}

type DeliverySource interface {
	Delivery(ctx context.Context) (models.DeliveryConfig, error)
}

type RulesSource interface {
	Rules(ctx context.Context) (models.CartRules, error)
}

// Loader fetches the three input documents concurrently. It never fails:
// an unavailable catalog yields a nil Catalog, unavailable delivery or
// rules documents fall back to the defaults. Every fallback is reported in
// Inputs.Warnings.
type Loader struct {
	Catalog  CatalogSource
	Delivery DeliverySource
	Rules    RulesSource
	Logger   *zap.Logger
}

func NewLoader(catalog CatalogSource, delivery DeliverySource, rules RulesSource, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{Catalog: catalog, Delivery: delivery, Rules: rules, Logger: logger}
}

func (l *Loader) Load(ctx context.Context) Inputs {
	var (
		g        errgroup.Group
		products []models.Product
		delivery models.DeliveryConfig
		rules    models.CartRules
		catErr   error
		delErr   error
		rulesErr error
	)

	g.Go(func() error {
		if l.Catalog == nil {
			catErr = fmt.Errorf("%w: no catalog source", ErrCatalogUnavailable)
			return nil
		}
		p, err := l.Catalog.Products(ctx)
		if err != nil {
			catErr = fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
			return nil
		}
		products = p
		return nil
	})

	g.Go(func() error {
		if l.Delivery == nil {
			delErr = fmt.Errorf("%w: no delivery source", ErrConfigUnavailable)
			return nil
		}
		d, err := l.Delivery.Delivery(ctx)
		if err != nil {
			delErr = fmt.Errorf("%w: delivery: %v", ErrConfigUnavailable, err)
			return nil
		}
		delivery = d
		return nil
	})

	g.Go(func() error {
		if l.Rules == nil {
			rulesErr = fmt.Errorf("%w: no rules source", ErrConfigUnavailable)
			return nil
		}
		r, err := l.Rules.Rules(ctx)
		if err != nil {
			rulesErr = fmt.Errorf("%w: rules: %v", ErrConfigUnavailable, err)
			return nil
		}
		rules = r
		return nil
	})

	_ = g.Wait()

	in := Inputs{Delivery: delivery, Rules: rules}
	if catErr != nil {
		l.Logger.Warn("catalog unavailable, keeping cached stock", zap.Error(catErr))
		in.Warnings = append(in.Warnings, catErr)
	} else {
		in.Catalog = NewCatalog(products)
	}
	if delErr != nil {
		l.Logger.Warn("delivery config unavailable, using defaults", zap.Error(delErr))
		in.Warnings = append(in.Warnings, delErr)
		in.Delivery = models.DefaultDeliveryConfig()
	}
	if rulesErr != nil {
		l.Logger.Warn("cart rules unavailable, using defaults", zap.Error(rulesErr))
		in.Warnings = append(in.Warnings, rulesErr)
		in.Rules = models.DefaultCartRules()
	}
	return in
}
