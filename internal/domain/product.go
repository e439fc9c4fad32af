package domain

import (
	"time"
)

// Product represents a product in the marketplace catalog.
type Product struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Price       int64          `json:"price"`
	Category    string         `json:"category"`
	Seller      string         `json:"seller,omitempty"`
	Images      []string       `json:"images"`
	Attributes  map[string]any `json:"attributes,omitempty"`
	// AvgRating is the mean of this product's reviews' ratings, 0 when it has
	// none. It is recomputed in the same transaction as every review mutation.
	AvgRating float64   `json:"avg_rating"`
	Featured  bool      `json:"featured"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
