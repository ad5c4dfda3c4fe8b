package cart

import (
	"github.com/shopspring/decimal"

	"storefront/pkg/models"
)

const (
	DeliveryTypeFree    = "Free"
	DeliveryTypePayment = "Payment"
)

// Quote is the money side of a cart.
type Quote struct {
	Subtotal            float64  `json:"subtotal"`
	ShippingFee         float64  `json:"shippingFee"`
	Total               float64  `json:"total"`
	DeliveryType        string   `json:"deliveryType"`
	DeliveryChoice      string   `json:"deliveryChoice"`
	OutsideSelectable   bool     `json:"outsideSelectable"`
	ChoiceReset         bool     `json:"choiceReset"` // caller must persist DeliveryChoice
	HiddenPriceProducts []string `json:"hiddenPriceProducts,omitempty"`
}

// NormalizeChoice maps a stored delivery choice onto inside/outside; anything
// unset defaults to inside.
func NormalizeChoice(choice string) string {
	if choice == models.DeliveryOutside {
		return models.DeliveryOutside
	}
	return models.DeliveryInside
}

// Price computes subtotal, delivery fee and total. Lines whose rule hides
// the price add nothing to the subtotal. Free delivery forces the choice
// back to inside and disables the outside option.
func Price(lines []models.CartLine, delivery models.DeliveryConfig, rules models.CartRules, free FreeDelivery, storedChoice string) Quote {
	subtotal := decimal.Zero
	var hidden []string
	for _, l := range lines {
		rule, _ := rules.Rule(l.ID)
		if rule.HidePrice {
			hidden = append(hidden, l.ID)
			continue
		}
		line := decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity)))
		subtotal = subtotal.Add(line)
	}

	q := Quote{
		DeliveryChoice:      NormalizeChoice(storedChoice),
		OutsideSelectable:   true,
		HiddenPriceProducts: hidden,
	}

	fee := decimal.Zero
	if free.Free {
		q.DeliveryType = DeliveryTypeFree
		q.OutsideSelectable = false
		q.ChoiceReset = storedChoice != models.DeliveryInside
		q.DeliveryChoice = models.DeliveryInside
	} else {
		q.DeliveryType = DeliveryTypePayment
		fee = decimal.NewFromFloat(delivery.BaseFee).Add(decimal.NewFromFloat(delivery.Extra(q.DeliveryChoice)))
	}

	q.Subtotal = subtotal.InexactFloat64()
	q.ShippingFee = fee.InexactFloat64()
	q.Total = subtotal.Add(fee).InexactFloat64()
	return q
}

// FormatFee renders a fee the way the order sheet expects: "000" for a
// waived fee, two decimals otherwise.
func FormatFee(fee float64) string {
	if fee == 0 {
		return "000"
	}
	return FormatMoney(fee)
}

func FormatMoney(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
