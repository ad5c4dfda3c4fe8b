package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"storefront/pkg/fetch"
	"storefront/pkg/models"
)

// Source is one place the product list can come from: the database, a
// products.json document, or the remote sheet.
type Source interface {
	Name() string
	FetchAll(ctx context.Context) ([]models.Product, error)
}

// Aggregator tries sources in order and returns the first non-empty list.
// A failing source is logged and skipped.
type Aggregator struct {
	Sources []Source
	Logger  *zap.Logger
}

func NewAggregator(logger *zap.Logger, sources ...Source) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{Sources: sources, Logger: logger}
}

// FetchFirst returns the products and the name of the source they came from.
func (a *Aggregator) FetchFirst(ctx context.Context) ([]models.Product, string, error) {
	var lastErr error
	for _, src := range a.Sources {
		products, err := src.FetchAll(ctx)
		if err != nil {
			a.Logger.Warn("catalog source failed", zap.String("source", src.Name()), zap.Error(err))
			lastErr = err
			continue
		}
		if len(products) == 0 {
			a.Logger.Debug("catalog source empty", zap.String("source", src.Name()))
			continue
		}
		a.Logger.Debug("catalog loaded", zap.String("source", src.Name()), zap.Int("products", len(products)))
		return products, src.Name(), nil
	}
	if lastErr != nil {
		return nil, "", fmt.Errorf("%w: last error: %v", ErrNoProducts, lastErr)
	}
	return nil, "", ErrNoProducts
}

// Products satisfies the cart's catalog source.
func (a *Aggregator) Products(ctx context.Context) ([]models.Product, error) {
	products, _, err := a.FetchFirst(ctx)
	return products, err
}

// Named finds a source by name.
func (a *Aggregator) Named(name string) (Source, bool) {
	for _, s := range a.Sources {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

// FileSource reads a products.json document from a path or URL.
type FileSource struct {
	Location string
	Fetcher  *fetch.Fetcher
}

func NewFileSource(location string, f *fetch.Fetcher) *FileSource {
	if f == nil {
		f = fetch.New(0)
	}
	return &FileSource{Location: location, Fetcher: f}
}

func (s *FileSource) Name() string { return "file" }

func (s *FileSource) FetchAll(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := s.Fetcher.JSON(ctx, s.Location, &products); err != nil {
		return nil, err
	}
	for i := range products {
		FillDefaults(&products[i])
	}
	return products, nil
}
