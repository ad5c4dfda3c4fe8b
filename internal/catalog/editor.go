package catalog

import (
	"fmt"
	"strings"

	"storefront/pkg/models"
)

const DefaultPageURL = "running-shoes.html"

// Chip lists on a product.
const (
	ChipCategories = "categories"
	ChipFeatures   = "features"
)

// Media attachment targets.
const (
	AttachMain   = "main"
	AttachImages = "images"
	AttachMedia  = "media"
)

// NewProduct is the blank product the editor starts from. Its id is set
// by RenumberIDs.
func NewProduct() models.Product {
	return models.Product{
		Title:        "New product",
		PageURL:      DefaultPageURL,
		Categories:   []string{},
		Features:     []string{},
		Images:       []string{},
		MediaGallery: []models.MediaItem{},
		Variants:     []models.Variant{},
	}
}

// RenumberIDs rewrites ids to product1..N in list order.
func RenumberIDs(products []models.Product) {
	for i := range products {
		products[i].ID = fmt.Sprintf("product%d", i+1)
	}
}

// Clone deep-copies a product list.
func Clone(products []models.Product) []models.Product {
	out := make([]models.Product, len(products))
	for i := range products {
		out[i] = cloneProduct(products[i])
	}
	return out
}

func cloneProduct(p models.Product) models.Product {
	p.Categories = cloneStrings(p.Categories)
	p.Features = cloneStrings(p.Features)
	p.Images = cloneStrings(p.Images)
	if p.MediaGallery != nil {
		p.MediaGallery = append([]models.MediaItem{}, p.MediaGallery...)
	}
	if p.Variants != nil {
		vs := make([]models.Variant, len(p.Variants))
		for i, v := range p.Variants {
			if v.Sizes != nil {
				v.Sizes = append([]models.SizeStock{}, v.Sizes...)
			}
			if v.Stock != nil {
				s := *v.Stock
				v.Stock = &s
			}
			vs[i] = v
		}
		p.Variants = vs
	}
	return p
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string{}, s...)
}

func indexOf(products []models.Product, id string) int {
	id = strings.TrimSpace(id)
	for i := range products {
		if products[i].ID == id {
			return i
		}
	}
	return -1
}

// Append adds a blank product at the end and returns the new list and id.
func Append(products []models.Product) ([]models.Product, string) {
	out := append(Clone(products), NewProduct())
	RenumberIDs(out)
	return out, out[len(out)-1].ID
}

// Duplicate inserts a copy of id right after it.
func Duplicate(products []models.Product, id string) ([]models.Product, string, error) {
	i := indexOf(products, id)
	if i < 0 {
		return products, "", fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	out := make([]models.Product, 0, len(products)+1)
	out = append(out, Clone(products[:i+1])...)
	out = append(out, cloneProduct(products[i]))
	out = append(out, Clone(products[i+1:])...)
	RenumberIDs(out)
	return out, out[i+1].ID, nil
}

func Delete(products []models.Product, id string) ([]models.Product, error) {
	i := indexOf(products, id)
	if i < 0 {
		return products, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	out := make([]models.Product, 0, len(products)-1)
	out = append(out, Clone(products[:i])...)
	out = append(out, Clone(products[i+1:])...)
	RenumberIDs(out)
	return out, nil
}

// Move drags the product at from to position to, then renumbers.
func Move(products []models.Product, from, to int) ([]models.Product, error) {
	out, err := moveItem(Clone(products), from, to)
	if err != nil {
		return products, err
	}
	RenumberIDs(out)
	return out, nil
}

func moveItem[T any](s []T, from, to int) ([]T, error) {
	if from < 0 || from >= len(s) || to < 0 || to >= len(s) {
		return s, fmt.Errorf("%w: move %d -> %d of %d", ErrIndexOutOfRange, from, to, len(s))
	}
	item := s[from]
	s = append(s[:from], s[from+1:]...)
	s = append(s[:to], append([]T{item}, s[to:]...)...)
	return s, nil
}

func removeAt[T any](s []T, i int) ([]T, error) {
	if i < 0 || i >= len(s) {
		return s, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(s))
	}
	return append(s[:i], s[i+1:]...), nil
}

// Edit applies fn to a copy of product id and returns the new list. The
// input list is left untouched when fn fails.
func Edit(products []models.Product, id string, fn func(p *models.Product) error) ([]models.Product, error) {
	i := indexOf(products, id)
	if i < 0 {
		return products, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	out := Clone(products)
	if err := fn(&out[i]); err != nil {
		return products, err
	}
	return out, nil
}

// Fields are the scalar product fields set from the editor form. Nil
// fields are left alone.
type Fields struct {
	Title         *string  `json:"title"`
	PageURL       *string  `json:"pageUrl"`
	Price         *float64 `json:"price"`
	OriginalPrice *float64 `json:"originalPrice"`
	Description   *string  `json:"description"`
	Rating        *float64 `json:"rating"`
	Reviews       *int     `json:"reviews"`
	Image         *string  `json:"image"`
}

func (f Fields) Apply(p *models.Product) error {
	if f.Title != nil {
		p.Title = *f.Title
	}
	if f.PageURL != nil {
		p.PageURL = *f.PageURL
	}
	if f.Price != nil {
		p.Price = models.FlexFloat(*f.Price)
	}
	if f.OriginalPrice != nil {
		p.OriginalPrice = models.FlexFloat(*f.OriginalPrice)
	}
	if f.Description != nil {
		p.Description = *f.Description
	}
	if f.Rating != nil {
		p.Rating = models.FlexFloat(*f.Rating)
	}
	if f.Reviews != nil {
		p.Reviews = models.FlexInt(*f.Reviews)
	}
	if f.Image != nil {
		p.Image = *f.Image
	}
	return nil
}

func chipList(p *models.Product, kind string) (*[]string, error) {
	switch kind {
	case ChipCategories:
		return &p.Categories, nil
	case ChipFeatures:
		return &p.Features, nil
	default:
		return nil, fmt.Errorf("unknown chip list %q", kind)
	}
}

// AddChip appends a trimmed, non-empty entry to categories or features.
func AddChip(kind, text string) func(*models.Product) error {
	return func(p *models.Product) error {
		text = strings.TrimSpace(text)
		if text == "" {
			return fmt.Errorf("empty %s entry", kind)
		}
		list, err := chipList(p, kind)
		if err != nil {
			return err
		}
		*list = append(*list, text)
		return nil
	}
}

func RemoveChip(kind string, i int) func(*models.Product) error {
	return func(p *models.Product) error {
		list, err := chipList(p, kind)
		if err != nil {
			return err
		}
		*list, err = removeAt(*list, i)
		return err
	}
}

func AddVariant() func(*models.Product) error {
	return func(p *models.Product) error {
		p.Variants = append(p.Variants, models.Variant{
			ColorName: "",
			Color:     "#000000",
			Sizes:     []models.SizeStock{},
		})
		return nil
	}
}

func RemoveVariant(vi int) func(*models.Product) error {
	return func(p *models.Product) error {
		var err error
		p.Variants, err = removeAt(p.Variants, vi)
		return err
	}
}

func variantAt(p *models.Product, vi int) (*models.Variant, error) {
	if vi < 0 || vi >= len(p.Variants) {
		return nil, fmt.Errorf("%w: variant %d of %d", ErrIndexOutOfRange, vi, len(p.Variants))
	}
	return &p.Variants[vi], nil
}

// VariantFields edits a variant's name and colour; Color goes through
// NormalizeHex.
type VariantFields struct {
	ColorName *string `json:"colorName"`
	Color     *string `json:"color"`
}

func EditVariant(vi int, f VariantFields) func(*models.Product) error {
	return func(p *models.Product) error {
		v, err := variantAt(p, vi)
		if err != nil {
			return err
		}
		if f.ColorName != nil {
			v.ColorName = *f.ColorName
		}
		if f.Color != nil {
			v.Color = NormalizeHex(*f.Color)
		}
		return nil
	}
}

func AddSize(vi int) func(*models.Product) error {
	return func(p *models.Product) error {
		v, err := variantAt(p, vi)
		if err != nil {
			return err
		}
		v.Sizes = append(v.Sizes, models.SizeStock{Size: "M", Stock: 0})
		return nil
	}
}

func RemoveSize(vi, si int) func(*models.Product) error {
	return func(p *models.Product) error {
		v, err := variantAt(p, vi)
		if err != nil {
			return err
		}
		v.Sizes, err = removeAt(v.Sizes, si)
		return err
	}
}

type SizeFields struct {
	Size  *string `json:"size"`
	Stock *int    `json:"stock"`
}

func EditSize(vi, si int, f SizeFields) func(*models.Product) error {
	return func(p *models.Product) error {
		v, err := variantAt(p, vi)
		if err != nil {
			return err
		}
		if si < 0 || si >= len(v.Sizes) {
			return fmt.Errorf("%w: size %d of %d", ErrIndexOutOfRange, si, len(v.Sizes))
		}
		if f.Size != nil {
			v.Sizes[si].Size = *f.Size
		}
		if f.Stock != nil {
			v.Sizes[si].Stock = models.FlexInt(*f.Stock)
		}
		return nil
	}
}

func MoveImage(from, to int) func(*models.Product) error {
	return func(p *models.Product) error {
		var err error
		p.Images, err = moveItem(p.Images, from, to)
		return err
	}
}

func MoveMedia(from, to int) func(*models.Product) error {
	return func(p *models.Product) error {
		var err error
		p.MediaGallery, err = moveItem(p.MediaGallery, from, to)
		return err
	}
}

func RemoveImage(i int) func(*models.Product) error {
	return func(p *models.Product) error {
		var err error
		p.Images, err = removeAt(p.Images, i)
		return err
	}
}

func RemoveMedia(i int) func(*models.Product) error {
	return func(p *models.Product) error {
		var err error
		p.MediaGallery, err = removeAt(p.MediaGallery, i)
		return err
	}
}

// Attach adds a file that exists in the media folders. foundType is the
// kind it was found as (image or video); the main slot only takes images.
func Attach(target, filename, foundType string) func(*models.Product) error {
	return func(p *models.Product) error {
		switch target {
		case AttachMedia:
			typ := models.MediaImage
			if foundType == models.MediaVideo {
				typ = models.MediaVideo
			}
			p.MediaGallery = append(p.MediaGallery, models.MediaItem{Type: typ, Src: filename})
		case AttachImages:
			p.Images = append(p.Images, filename)
		case AttachMain:
			if foundType != models.MediaImage {
				return fmt.Errorf("%w: %q was found as %s", ErrNotImage, filename, foundType)
			}
			p.Image = filename
		default:
			return fmt.Errorf("unknown attach target %q", target)
		}
		return nil
	}
}

// NormalizeHex lowercases a colour, adds the leading # and expands the
// three-digit form. Empty input is black.
func NormalizeHex(val string) string {
	val = strings.TrimSpace(val)
	if val == "" {
		return "#000000"
	}
	if !strings.HasPrefix(val, "#") {
		val = "#" + val
	}
	if len(val) == 4 {
		val = string([]byte{'#', val[1], val[1], val[2], val[2], val[3], val[3]})
	}
	return strings.ToLower(val)
}
