package cart

import "storefront/pkg/models"

// LineReport describes what reconciliation did to one line.
type LineReport struct {
	Key       string      `json:"key"`
	Source    StockSource `json:"source"`
	PrevStock int         `json:"prevStock"`
	Stock     int         `json:"stock"`
	PrevQty   int         `json:"prevQuantity"`
	Quantity  int         `json:"quantity"`
	Clamped   bool        `json:"clamped"`
}

// Reconciliation is the outcome of re-deriving stock for a cart.
type Reconciliation struct {
	Lines   []models.CartLine
	Reports []LineReport
	// Dirty is set when any line's stock or quantity changed.
	Dirty bool
}

// Reconcile resolves every line independently against the catalog and
// clamps quantities to the resolved stock. The input slice is not modified.
// Lines whose product is unknown keep their cached stock and quantity.
func Reconcile(lines []models.CartLine, catalog *Catalog) Reconciliation {
	out := Reconciliation{
		Lines:   make([]models.CartLine, len(lines)),
		Reports: make([]LineReport, len(lines)),
	}

	for i, line := range lines {
		stock, src := ResolveStock(line, catalog)

		rep := LineReport{
			Key:       line.Key(),
			Source:    src,
			PrevStock: line.Stock,
			PrevQty:   line.Quantity,
		}

		next := line
		next.Stock = stock

		if next.Quantity < 0 {
			next.Quantity = 0
		}
		if src != StockUnresolved && next.Quantity > stock {
			next.Quantity = stock
			rep.Clamped = true
		}

		rep.Stock = next.Stock
		rep.Quantity = next.Quantity

		if next.Stock != line.Stock || next.Quantity != line.Quantity {
			out.Dirty = true
		}
		out.Lines[i] = next
		out.Reports[i] = rep
	}
	return out
}
