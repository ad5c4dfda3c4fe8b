package catalog

import "errors"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrNotImage is returned when a video is attached as the main image.
	ErrNotImage   = errors.New("main image must be an image")
	ErrNoProducts = errors.New("no products from any source")
	ErrBadImport  = errors.New("import must be a product object or array")
)
