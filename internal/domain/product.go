package domain

import "time"

const (
	// DefaultCategory is assigned to products created without a category.
	DefaultCategory = "Others"
	// MaxProductImages is the number of images a product may carry.
	MaxProductImages = 5
)

// ProductImage is one entry of a product's ordered image list.
// URL is either a hosted image URL or a base64 data URI.
type ProductImage struct {
	URL string `json:"url"`
}

// Product represents a product in the catalog.
// The json tags match the document shape served to the storefront.
type Product struct {
	ID            string         `json:"_id"`
	Name          string         `json:"name"`
	SellingPrice  float64        `json:"sellingPrice"`
	OriginalPrice float64        `json:"originalPrice"`
	Description   string         `json:"description"`
	Category      string         `json:"category"`
	Images        []ProductImage `json:"images"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// OnOffer reports whether the product is sold below its original price.
func (p Product) OnOffer() bool {
	return p.OriginalPrice > p.SellingPrice
}

// ProductUpdate carries a partial product update. Nil fields are left untouched;
// a nil Images slice keeps the existing images.
type ProductUpdate struct {
	Name          *string
	SellingPrice  *float64
	OriginalPrice *float64
	Description   *string
	Category      *string
	Images        []ProductImage
}

// Apply writes the non-nil fields of u onto p.
func (u ProductUpdate) Apply(p *Product) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.SellingPrice != nil {
		p.SellingPrice = *u.SellingPrice
	}
	if u.OriginalPrice != nil {
		p.OriginalPrice = *u.OriginalPrice
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Images != nil {
		p.Images = u.Images
	}
}
