package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// CartLine is one row of a shopper's cart. Stock is a cached copy of the
// catalog figure and is rewritten on every reconciliation pass.
type CartLine struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Price            float64   `json:"price"`
	Quantity         int       `json:"quantity"`
	Color            string    `json:"color,omitempty"`
	Size             string    `json:"size,omitempty"`
	Stock            int       `json:"stock"`
	Image            string    `json:"image,omitempty"`
	NoDeliveryCharge bool      `json:"noDeliveryCharge,omitempty"`
	DeliveryFee      *FeeValue `json:"deliveryFee,omitempty"`
}

// Key is the identity a caller uses to find the matching catalog entry.
func (l CartLine) Key() string {
	return strings.TrimSpace(l.ID) + "|" + strings.ToLower(strings.TrimSpace(l.Color)) + "|" + strings.TrimSpace(l.Size)
}

// FeeValue keeps a per-product delivery fee exactly as it was written,
// since both numeric and string spellings carry meaning ("000").
type FeeValue struct {
	Raw      string
	IsString bool
}

func NumberFee(v float64) *FeeValue {
	return &FeeValue{Raw: strconv.FormatFloat(v, 'f', -1, 64)}
}

func StringFee(s string) *FeeValue {
	return &FeeValue{Raw: s, IsString: true}
}

// IsZero reports whether the fee is one of the accepted "no charge" forms:
// numeric 0, "0" or "000".
func (f *FeeValue) IsZero() bool {
	if f == nil {
		return false
	}
	if f.IsString {
		return f.Raw == "0" || f.Raw == "000"
	}
	v, err := strconv.ParseFloat(f.Raw, 64)
	return err == nil && v == 0
}

func (f FeeValue) MarshalJSON() ([]byte, error) {
	if f.IsString {
		return json.Marshal(f.Raw)
	}
	if f.Raw == "" {
		return []byte("null"), nil
	}
	return []byte(f.Raw), nil
}

func (f *FeeValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FeeValue{Raw: s, IsString: true}
		return nil
	}
	*f = FeeValue{Raw: string(b)}
	return nil
}

// CheckoutData is the snapshot handed to the order backend. Extra holds
// customer fields written by other pages; they survive every update.
type CheckoutData struct {
	Cart         []CartLine     `json:"cart"`
	DeliveryFee  string         `json:"deliveryFee"`
	Total        string         `json:"total"`
	DeliveryType string         `json:"deliveryType"`
	Timestamp    time.Time      `json:"timestamp"`
	Extra        map[string]any `json:"-"`
}

func (c CheckoutData) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Extra)+5)
	for k, v := range c.Extra {
		out[k] = v
	}
	out["cart"] = c.Cart
	out["deliveryFee"] = c.DeliveryFee
	out["total"] = c.Total
	out["deliveryType"] = c.DeliveryType
	out["timestamp"] = c.Timestamp.UTC().Format(time.RFC3339)
	return json.Marshal(out)
}

func (c *CheckoutData) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*c = CheckoutData{Extra: map[string]any{}}
	for k, v := range raw {
		switch k {
		case "cart":
			_ = json.Unmarshal(v, &c.Cart)
		case "deliveryFee":
			_ = json.Unmarshal(v, &c.DeliveryFee)
		case "total":
			_ = json.Unmarshal(v, &c.Total)
		case "deliveryType":
			_ = json.Unmarshal(v, &c.DeliveryType)
		case "timestamp":
			var s string
			if err := json.Unmarshal(v, &s); err == nil {
				c.Timestamp, _ = time.Parse(time.RFC3339, s)
			}
		default:
			var x any
			if err := json.Unmarshal(v, &x); err == nil {
				c.Extra[k] = x
			}
		}
	}
	return nil
}
