package cartrpc

import "storefront/pkg/models"

type ReconcileRequest struct {
	Lines          []models.CartLine `json:"lines"`
	DeliveryChoice string            `json:"delivery_choice,omitempty"`
}

type GetCartRequest struct {
	SessionID string `json:"session_id"`
}

func (r *GetCartRequest) GetSessionID() string {
	if r == nil {
		return ""
	}
	return r.SessionID
}

// Cart is a priced, reconciled cart.
type Cart struct {
	Lines               []models.CartLine `json:"lines"`
	ItemCount           int32             `json:"item_count"`
	Subtotal            float64           `json:"subtotal"`
	ShippingFee         float64           `json:"shipping_fee"`
	Total               float64           `json:"total"`
	DeliveryType        string            `json:"delivery_type"`
	DeliveryChoice      string            `json:"delivery_choice"`
	OutsideSelectable   bool              `json:"outside_selectable"`
	FreeDelivery        bool              `json:"free_delivery"`
	FreeReason          string            `json:"free_reason,omitempty"`
	FreeProductID       string            `json:"free_product_id,omitempty"`
	HiddenPriceProducts []string          `json:"hidden_price_products,omitempty"`
	Dirty               bool              `json:"dirty"`
	Warnings            []string          `json:"warnings,omitempty"`
}

type ReconcileResponse struct {
	Cart Cart `json:"cart"`
}

type GetCartResponse struct {
	SessionID string `json:"session_id"`
	Cart      Cart   `json:"cart"`
}

type ListProductsRequest struct {
	Category string `json:"category,omitempty"`
	Query    string `json:"query,omitempty"`
	Limit    int32  `json:"limit,omitempty"`
	Offset   int32  `json:"offset,omitempty"`
}

type ListProductsResponse struct {
	Total  int32            `json:"total"`
	Limit  int32            `json:"limit"`
	Offset int32            `json:"offset"`
	Items  []models.Product `json:"items"`
}
