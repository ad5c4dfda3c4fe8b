package cart

import (
	"context"

	"storefront/pkg/models"
)

func flexInt(n int) *models.FlexInt {
	v := models.FlexInt(n)
	return &v
}

func ptr(f float64) *float64 { return &f }

// runner is a catalog with one sized product, one variant-stock product
// and one product without variants.
func testCatalog() *Catalog {
	return NewCatalog([]models.Product{
		{
			ID:    "runner",
			Title: "Runner",
			Price: 50,
			Variants: []models.Variant{
				{ColorName: "Red", Sizes: []models.SizeStock{{Size: "M", Stock: 3}, {Size: "L", Stock: 5}}},
				{ColorName: "", Color: "Blue", Sizes: []models.SizeStock{{Size: "M", Stock: 1}}},
			},
		},
		{
			ID:       "cap",
			Title:    "Cap",
			Price:    12,
			Variants: []models.Variant{{ColorName: "Black", Stock: flexInt(4)}},
		},
		{ID: "sticker", Title: "Sticker", Price: 1},
	})
}

func line(id, color, size string, qty, stock int) models.CartLine {
	return models.CartLine{ID: id, Title: id, Price: 10, Color: color, Size: size, Quantity: qty, Stock: stock}
}

type staticLoader struct{ in Inputs }

func (s staticLoader) Load(ctx context.Context) Inputs { return s.in }

func defaultInputs() Inputs {
	return Inputs{
		Catalog:  testCatalog(),
		Delivery: models.DefaultDeliveryConfig(),
		Rules:    models.DefaultCartRules(),
	}
}
