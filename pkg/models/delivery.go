package models

import (
	"encoding/json"
	"fmt"
)

const (
	DeliveryInside  = "inside"
	DeliveryOutside = "outside"
)

type DeliveryOption struct {
	Extra    float64 `json:"extra"`
	WaitDays int     `json:"waitDays,omitempty"`
}

type DeliveryOptions struct {
	Inside  DeliveryOption `json:"inside"`
	Outside DeliveryOption `json:"outside"`
}

// DeliveryConfig is the delivery.json document.
type DeliveryConfig struct {
	BaseFee float64         `json:"baseFee"`
	Options DeliveryOptions `json:"options"`
}

// Extra returns the surcharge for a delivery choice; unknown choices cost nothing extra.
func (d DeliveryConfig) Extra(choice string) float64 {
	switch choice {
	case DeliveryInside:
		return d.Options.Inside.Extra
	case DeliveryOutside:
		return d.Options.Outside.Extra
	default:
		return 0
	}
}

// DefaultDeliveryConfig is used whenever delivery.json cannot be loaded.
func DefaultDeliveryConfig() DeliveryConfig {
	return DeliveryConfig{
		BaseFee: 10,
		Options: DeliveryOptions{
			Inside:  DeliveryOption{Extra: 0, WaitDays: 2},
			Outside: DeliveryOption{Extra: 5, WaitDays: 5},
		},
	}
}

// ProductRule is one productRules entry. Fields with an unusable value count
// as absent instead of failing the document.
type ProductRule struct {
	FreeDelivery       bool     `json:"freeDelivery,omitempty"`
	MinQuantityForFree *float64 `json:"minQuantityForFree,omitempty"`
	HidePrice          bool     `json:"hidePrice,omitempty"`
}

// CartRules is the cart-rules.json document. A nil threshold disables the
// global free-delivery rule.
type CartRules struct {
	FreeDeliveryThreshold *float64               `json:"freeDeliveryThreshold,omitempty"`
	ProductRules          map[string]ProductRule `json:"productRules"`
}

func (p *ProductRule) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*p = ProductRule{
		FreeDelivery:       isTrue(raw["freeDelivery"]),
		MinQuantityForFree: finiteNumber(raw["minQuantityForFree"]),
		HidePrice:          truthy(raw["hidePrice"]),
	}
	return nil
}

// UnmarshalJSON keeps every readable rule. A threshold that is not a number
// disables the global rule; an entry that is not an object is skipped. Only
// a document or productRules value of the wrong shape is an error.
func (r *CartRules) UnmarshalJSON(b []byte) error {
	var raw struct {
		FreeDeliveryThreshold json.RawMessage `json:"freeDeliveryThreshold"`
		ProductRules          json.RawMessage `json:"productRules"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*r = CartRules{
		FreeDeliveryThreshold: finiteNumber(raw.FreeDeliveryThreshold),
		ProductRules:          map[string]ProductRule{},
	}
	if len(raw.ProductRules) == 0 || string(raw.ProductRules) == "null" {
		return nil
	}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw.ProductRules, &entries); err != nil {
		return fmt.Errorf("productRules must be an object: %w", err)
	}
	for id, v := range entries {
		var rule ProductRule
		if json.Unmarshal(v, &rule) != nil {
			continue
		}
		r.ProductRules[id] = rule
	}
	return nil
}

// finiteNumber returns the value only when it is a JSON number; strings,
// booleans and null count as absent.
func finiteNumber(b json.RawMessage) *float64 {
	var v any
	if len(b) == 0 || json.Unmarshal(b, &v) != nil {
		return nil
	}
	f, ok := v.(float64)
	if !ok {
		return nil
	}
	return &f
}

func isTrue(b json.RawMessage) bool {
	var v bool
	return len(b) > 0 && json.Unmarshal(b, &v) == nil && v
}

// truthy follows loose flag semantics: true, non-zero numbers and non-empty
// strings are set.
func truthy(b json.RawMessage) bool {
	var v any
	if len(b) == 0 || json.Unmarshal(b, &v) != nil {
		return false
	}
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	case nil:
		return false
	default:
		return true
	}
}

func (r CartRules) Rule(productID string) (ProductRule, bool) {
	if r.ProductRules == nil {
		return ProductRule{}, false
	}
	rule, ok := r.ProductRules[productID]
	return rule, ok
}

// DefaultFreeDeliveryThreshold is high enough that the global rule never fires.
const DefaultFreeDeliveryThreshold = 9999

func DefaultCartRules() CartRules {
	t := float64(DefaultFreeDeliveryThreshold)
	return CartRules{
		FreeDeliveryThreshold: &t,
		ProductRules:          map[string]ProductRule{},
	}
}
