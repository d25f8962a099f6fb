package model

import "time"

// Product represents a catalogue entry. Price is authoritative for totals
// until purchase; fulfilled orders carry their own snapshot.
type Product struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Description string    `json:"description" db:"description"`
	Price       float64   `json:"price" db:"price"`
	Stock       int       `json:"stock" db:"stock"`
	CategoryID  int64     `json:"categoryId" db:"category_id"`
	IsAvailable bool      `json:"isAvailable" db:"is_available"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// Category groups products and carries the slug used in catalogue URLs.
type Category struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	Slug string `json:"slug" db:"slug"`
}

// Variation is a selectable product option, e.g. (size, "M") or (color, "red").
type Variation struct {
	ID       int64  `json:"id" db:"id"`
	ProductID int64 `json:"productId" db:"product_id"`
	Category string `json:"category" db:"variation_category"`
	Value    string `json:"value" db:"variation_value"`
}

// Review is a per-owner product rating. One row per (owner, product);
// resubmission updates in place.
type Review struct {
	ID        int64     `json:"id" db:"id"`
	ProductID int64     `json:"productId" db:"product_id"`
	OwnerID   int64     `json:"ownerId" db:"owner_id"`
	Subject   string    `json:"subject" db:"subject"`
	Rating    float64   `json:"rating" db:"rating"`
	Review    string    `json:"review" db:"review"`
	IP        string    `json:"-" db:"ip"`
	Status    bool      `json:"-" db:"status"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// DefaultPageSize is the catalogue page size applied when a filter carries
// no limit.
const DefaultPageSize = 12

// ProductFilter narrows catalogue listings. Zero values mean "no constraint".
type ProductFilter struct {
	CategoryIDs  []int64
	CategorySlug string
	Sizes        []string
	MinPrice     *float64
	MaxPrice     *float64
	Keyword      string
	Limit        int
	Offset       int
}

// ProductListing is the paginated catalogue response.
type ProductListing struct {
	Products []Product `json:"products"`
	Count    int       `json:"count"`
}

// ProductDetail is the single-product view with its reviews and variations.
type ProductDetail struct {
	Product    Product     `json:"product"`
	Variations []Variation `json:"variations"`
	Reviews    []Review    `json:"reviews"`
}

// ReviewRequest is the review submission payload.
type ReviewRequest struct {
	Subject string  `json:"subject"`
	Rating  float64 `json:"rating"`
	Review  string  `json:"review"`
}
