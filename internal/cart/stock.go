package cart

import (
	"strings"

	"storefront/pkg/models"
)

// StockSource records which fallback produced a line's stock figure.
type StockSource string

const (
	StockFromSize    StockSource = "size"    // exact variant + size entry
	StockFromVariant StockSource = "variant" // variant total (no/unknown size)
	StockFromProduct StockSource = "product" // colour unknown: all variants summed
	StockCached      StockSource = "cached"  // product has no variants
	StockUnresolved  StockSource = "unresolved"
)

// Catalog is a read-only lookup over the product list. The first product
// with a given trimmed id wins.
type Catalog struct {
	byID map[string]*models.Product
}

func NewCatalog(products []models.Product) *Catalog {
	c := &Catalog{byID: make(map[string]*models.Product, len(products))}
	for i := range products {
		id := strings.TrimSpace(products[i].ID)
		if _, seen := c.byID[id]; seen {
			continue
		}
		c.byID[id] = &products[i]
	}
	return c
}

func (c *Catalog) Product(id string) (*models.Product, bool) {
	if c == nil {
		return nil, false
	}
	p, ok := c.byID[strings.TrimSpace(id)]
	return p, ok
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.byID)
}

// ResolveStock computes the authoritative stock for one line. A nil
// catalog, or a product missing from it, leaves the cached value.
func ResolveStock(line models.CartLine, catalog *Catalog) (int, StockSource) {
	p, ok := catalog.Product(line.ID)
	if !ok {
		return nonNegative(line.Stock), StockUnresolved
	}
	if p.Variants == nil {
		return nonNegative(line.Stock), StockCached
	}

	v := matchVariant(p.Variants, line.Color)
	if v == nil {
		return nonNegative(productTotal(p.Variants)), StockFromProduct
	}

	size := strings.TrimSpace(line.Size)
	if size != "" && v.Sizes != nil {
		for _, s := range v.Sizes {
			if strings.TrimSpace(s.Size) == size {
				return nonNegative(int(s.Stock)), StockFromSize
			}
		}
		return nonNegative(sumSizes(v.Sizes)), StockFromVariant
	}

	if v.Sizes != nil {
		return nonNegative(sumSizes(v.Sizes)), StockFromVariant
	}
	if v.Stock != nil {
		return nonNegative(int(*v.Stock)), StockFromVariant
	}
	return nonNegative(line.Stock), StockFromVariant
}

func matchVariant(variants []models.Variant, color string) *models.Variant {
	want := strings.ToLower(strings.TrimSpace(color))
	if want == "" {
		return nil
	}
	for i := range variants {
		name := variants[i].ColorName
		if strings.TrimSpace(name) == "" {
			name = variants[i].Color
		}
		if strings.ToLower(strings.TrimSpace(name)) == want {
			return &variants[i]
		}
	}
	return nil
}

func sumSizes(sizes []models.SizeStock) int {
	total := 0
	for _, s := range sizes {
		total += int(s.Stock)
	}
	return total
}

func productTotal(variants []models.Variant) int {
	total := 0
	for _, v := range variants {
		switch {
		case v.Sizes != nil:
			total += sumSizes(v.Sizes)
		case v.Stock != nil:
			total += int(*v.Stock)
		}
	}
	return total
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
