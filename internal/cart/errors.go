package cart

import "errors"

var (
	// ErrCatalogUnavailable means the product catalog could not be loaded;
	// lines keep their cached stock and are not clamped.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrConfigUnavailable means delivery.json or cart-rules.json could not
	// be loaded and the built-in defaults were used.
	ErrConfigUnavailable = errors.New("config unavailable")
	// ErrMalformedLine marks a stored cart entry with missing or unreadable
	// fields. The entry is kept with zero quantity/stock.
	ErrMalformedLine = errors.New("malformed cart line")

	ErrOutOfStock   = errors.New("not enough stock")
	ErrEmptyCart    = errors.New("cart is empty")
	ErrLineNotFound = errors.New("cart line not found")
)

var ErrInvalidChoice = errors.New("delivery choice must be inside or outside")
