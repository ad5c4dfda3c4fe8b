package cart

import "storefront/pkg/models"

// Inputs are the documents a reconciliation pass needs. A nil Catalog
// means the catalog could not be loaded.
type Inputs struct {
	Catalog  *Catalog
	Delivery models.DeliveryConfig
	Rules    models.CartRules
	Warnings []error
}

// Result is what the storefront renders for a cart.
type Result struct {
	Lines        []models.CartLine `json:"lines"`
	ItemCount    int               `json:"itemCount"`
	Dirty        bool              `json:"dirty"`
	FreeDelivery FreeDelivery      `json:"freeDelivery"`
	Reports      []LineReport      `json:"reports,omitempty"`
	Warnings     []string          `json:"warnings,omitempty"`
	Quote
}

// Run reconciles lines against in and prices the result. It has no side
// effects; persisting Lines (when Dirty) and DeliveryChoice (when
// ChoiceReset) is up to the caller.
func Run(lines []models.CartLine, in Inputs, deliveryChoice string) Result {
	rec := Reconcile(lines, in.Catalog)
	free := EvaluateFreeDelivery(rec.Lines, in.Rules)
	quote := Price(rec.Lines, in.Delivery, in.Rules, free, deliveryChoice)

	res := Result{
		Lines:        rec.Lines,
		ItemCount:    ItemCount(rec.Lines),
		Dirty:        rec.Dirty,
		FreeDelivery: free,
		Reports:      rec.Reports,
		Quote:        quote,
	}
	for _, w := range in.Warnings {
		res.Warnings = append(res.Warnings, w.Error())
	}
	return res
}

// EmptyResult is returned for a cart with no lines; nothing is loaded.
func EmptyResult(deliveryChoice string) Result {
	return Result{
		Lines: []models.CartLine{},
		Quote: Quote{
			DeliveryType:      DeliveryTypePayment,
			DeliveryChoice:    NormalizeChoice(deliveryChoice),
			OutsideSelectable: true,
		},
	}
}
