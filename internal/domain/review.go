package domain

import (
	"time"
)

// Rating bounds. Ratings are integers on a 1-10 scale.
const (
	MinRating = 1
	MaxRating = 10
)

// ValidRating reports whether the given rating is within [MinRating, MaxRating].
func ValidRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}

// Review represents a product review submitted by a user. A user can hold at
// most one review per product; resubmitting overwrites the existing review
// and refreshes CreatedAt.
type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AverageRating returns the arithmetic mean of the given reviews' ratings,
// or 0 when there are none. Both stored aggregates (products.avg_rating and
// users.average_rating) are defined in terms of this function.
func AverageRating(reviews []Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews))
}

// ReviewWithAuthor is a review joined with its author's public name, as
// returned when listing a product's reviews.
type ReviewWithAuthor struct {
	Review
	AuthorFirstName string `json:"author_first_name"`
	AuthorLastName  string `json:"author_last_name"`
}

// UserReview is a review joined with its product's name, as returned when
// listing every review a user has authored.
type UserReview struct {
	ReviewID    string    `json:"review_id"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
