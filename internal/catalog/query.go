package catalog

import (
	"strings"

	"storefront/pkg/models"
)

// ListQuery narrows the catalog for listing. Limit <= 0 means everything.
type ListQuery struct {
	Category string
	Query    string
	Limit    int
	Offset   int
}

// Apply filters and pages products, keeping catalog order. total counts the
// matches before paging.
func (q ListQuery) Apply(products []models.Product) (items []models.Product, total int) {
	out := make([]models.Product, 0, len(products))
	cat := strings.TrimSpace(q.Category)
	for _, p := range products {
		if cat != "" && !hasCategory(p, cat) {
			continue
		}
		if strings.TrimSpace(q.Query) != "" && !Matches(p.Title, q.Query) {
			continue
		}
		out = append(out, p)
	}
	return page(out, q.Limit, q.Offset), len(out)
}

func hasCategory(p models.Product, cat string) bool {
	for _, c := range p.Categories {
		if strings.EqualFold(strings.TrimSpace(c), cat) {
			return true
		}
	}
	return false
}

func page(products []models.Product, limit, offset int) []models.Product {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(products) {
		return []models.Product{}
	}
	products = products[offset:]
	if limit > 0 && limit < len(products) {
		products = products[:limit]
	}
	return products
}
