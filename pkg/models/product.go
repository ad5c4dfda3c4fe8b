package models

// Product is a catalog entry as edited in the CMS and read by the storefront.
type Product struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	PageURL       string      `json:"pageUrl,omitempty"`
	Price         FlexFloat   `json:"price"`
	OriginalPrice FlexFloat   `json:"originalPrice"`
	Description   string      `json:"description"`
	Categories    []string    `json:"categories"`
	Features      []string    `json:"features"`
	Image         string      `json:"image,omitempty"`
	Images        []string    `json:"images"`
	MediaGallery  []MediaItem `json:"mediaGallery"`
	Rating        FlexFloat   `json:"rating"`
	Reviews       FlexInt     `json:"reviews"`
	Variants      []Variant   `json:"variants"`
}

// Variant groups a product's stock by colour. Sizes is nil when the
// variant tracks a single stock figure instead of per-size stock.
type Variant struct {
	ColorName string      `json:"colorName"`
	Color     string      `json:"color,omitempty"`
	Sizes     []SizeStock `json:"sizes"`
	Stock     *FlexInt    `json:"stock,omitempty"`
}

type SizeStock struct {
	Size  string  `json:"size"`
	Stock FlexInt `json:"stock"`
}

type MediaItem struct {
	Type   string `json:"type"` // "image" or "video"
	Src    string `json:"src"`
	Thumb  string `json:"thumb,omitempty"`
	Poster string `json:"poster,omitempty"`
}
