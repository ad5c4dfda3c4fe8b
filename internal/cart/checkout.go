package cart

import (
	"time"

	"storefront/pkg/models"
)

// BuildCheckout refreshes the delivery-related fields of a checkout
// snapshot. Customer fields already present in existing are kept.
func BuildCheckout(existing *models.CheckoutData, res Result, now time.Time) models.CheckoutData {
	out := models.CheckoutData{Extra: map[string]any{}}
	if existing != nil {
		for k, v := range existing.Extra {
			out.Extra[k] = v
		}
	}
	out.Cart = res.Lines
	out.DeliveryFee = FormatFee(res.ShippingFee)
	out.Total = FormatMoney(res.Total)
	out.DeliveryType = res.DeliveryType
	out.Timestamp = now.UTC()
	return out
}
