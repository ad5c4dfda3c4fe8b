package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"storefront/pkg/models"
)

// Import reads a product array or a single product object. Missing list
// fields become empty lists and ids are renumbered.
func Import(r io.Reader) ([]models.Product, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read import: %w", err)
	}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, ErrBadImport
	}

	var products []models.Product
	switch b[0] {
	case '[':
		if err := json.Unmarshal(b, &products); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadImport, err)
		}
	case '{':
		var p models.Product
		if err := json.Unmarshal(b, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadImport, err)
		}
		products = []models.Product{p}
	default:
		return nil, ErrBadImport
	}

	for i := range products {
		FillDefaults(&products[i])
	}
	RenumberIDs(products)
	return products, nil
}

// Export writes v (a list or a single product) as indented JSON.
func Export(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

// FillDefaults replaces absent list fields with empty ones so the
// document always has the full shape.
func FillDefaults(p *models.Product) {
	if p.Categories == nil {
		p.Categories = []string{}
	}
	if p.Features == nil {
		p.Features = []string{}
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.MediaGallery == nil {
		p.MediaGallery = []models.MediaItem{}
	}
	if p.Variants == nil {
		p.Variants = []models.Variant{}
	}
}
