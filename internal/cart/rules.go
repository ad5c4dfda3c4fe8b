package cart

import (
	"encoding/json"

	"storefront/pkg/models"
)

// FreeReason names the rule that waived the delivery fee.
type FreeReason string

const (
	ReasonNone              FreeReason = ""
	ReasonGlobal            FreeReason = "global"
	ReasonProductNoDelivery FreeReason = "product-no-delivery"
	ReasonQuantity          FreeReason = "quantity"
	ReasonSingleProduct     FreeReason = "single-product"
)

func (r FreeReason) MarshalJSON() ([]byte, error) {
	if r == ReasonNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(r))
}

func (r *FreeReason) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*r = ReasonNone
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*r = FreeReason(s)
	return nil
}

type FreeDelivery struct {
	Free      bool       `json:"free"`
	Reason    FreeReason `json:"reason"`
	ProductID string     `json:"productId,omitempty"`
}

// ItemCount is the sum of quantities across all lines.
func ItemCount(lines []models.CartLine) int {
	n := 0
	for _, l := range lines {
		if l.Quantity > 0 {
			n += l.Quantity
		}
	}
	return n
}

// EvaluateFreeDelivery applies the free-delivery rules in priority order and
// stops at the first one that matches.
func EvaluateFreeDelivery(lines []models.CartLine, rules models.CartRules) FreeDelivery {
	total := ItemCount(lines)

	if t := rules.FreeDeliveryThreshold; t != nil && float64(total) >= *t {
		return FreeDelivery{Free: true, Reason: ReasonGlobal}
	}

	for _, l := range lines {
		rule, _ := rules.Rule(l.ID)
		if rule.FreeDelivery || l.NoDeliveryCharge || l.DeliveryFee.IsZero() {
			return FreeDelivery{Free: true, Reason: ReasonProductNoDelivery, ProductID: l.ID}
		}
	}

	for _, l := range lines {
		rule, ok := rules.Rule(l.ID)
		if ok && rule.MinQuantityForFree != nil && float64(l.Quantity) >= *rule.MinQuantityForFree {
			return FreeDelivery{Free: true, Reason: ReasonQuantity, ProductID: l.ID}
		}
	}

	// Shadowed by the product rule above while freeDelivery is a plain bool.
	if len(lines) == 1 {
		if rule, ok := rules.Rule(lines[0].ID); ok && rule.FreeDelivery {
			return FreeDelivery{Free: true, Reason: ReasonSingleProduct, ProductID: lines[0].ID}
		}
	}

	return FreeDelivery{}
}
