package repository

import (
	"context"
	"time"

	"github.com/playnest/marketplace/internal/domain"
)

// ProductFilter narrows product listings.
type ProductFilter struct {
	Category string
	Search   string
	Featured *bool
	// IncludeInactive widens the listing to deactivated products. Only admin
	// paths set it.
	IncludeInactive bool
}

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// List returns a page of users ordered by creation time.
	List(ctx context.Context, limit, offset int) ([]domain.User, int, error)

	// Update modifies an existing user in the store.
	Update(ctx context.Context, user *domain.User) error

	// DeleteWithReviewCascade removes the user, deletes every review they
	// authored, and recomputes the average rating of each affected product,
	// all within a single transaction. It returns the IDs of the products
	// whose aggregates changed.
	DeleteWithReviewCascade(ctx context.Context, id string) ([]string, error)
}

// ProductRepository defines the interface for product persistence operations.
type ProductRepository interface {
	// Create inserts a new product into the store.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID retrieves a product by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// List returns a page of products matching the filter plus the total count.
	List(ctx context.Context, filter ProductFilter, limit, offset int) ([]domain.Product, int, error)

	// ListFeatured returns active featured products.
	ListFeatured(ctx context.Context, limit int) ([]domain.Product, error)

	// Update modifies an existing product in the store.
	Update(ctx context.Context, product *domain.Product) error

	// Delete removes a product and, via cascade, its reviews. It returns the
	// distinct IDs of users who had reviewed the product so their average
	// ratings can be recomputed.
	Delete(ctx context.Context, id string) ([]string, error)
}

// ReviewRepository defines the interface for review persistence operations.
// Upsert and Delete run the review write and the product average update in a
// single transaction so the stored aggregate can never drift from the rows.
type ReviewRepository interface {
	// Upsert inserts the review or overwrites the author's existing review of
	// the same product, recomputing the product's average rating in the same
	// transaction. The review's ID and CreatedAt are filled in.
	Upsert(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// GetByProductAndUser retrieves a user's review of a product, if any.
	GetByProductAndUser(ctx context.Context, productID, userID string) (*domain.Review, error)

	// ListByProduct returns a product's reviews with author names in insertion
	// order (oldest first).
	ListByProduct(ctx context.Context, productID string) ([]domain.ReviewWithAuthor, error)

	// ListByUser returns every review a user has authored with product names,
	// newest first.
	ListByUser(ctx context.Context, userID string) ([]domain.UserReview, error)

	// Delete removes a review and recomputes the product's average rating in
	// the same transaction.
	Delete(ctx context.Context, id string) error

	// RecomputeUserAverage rescans every rating the user has given and stores
	// the resulting mean on the user row, 0 when they have none.
	RecomputeUserAverage(ctx context.Context, userID string) error
}

// RefreshTokenRepository defines the interface for refresh token persistence operations.
type RefreshTokenRepository interface {
	// Create stores a new refresh token hash.
	Create(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error

	// GetByHash retrieves a refresh token record by its hash.
	GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)

	// RevokeByUserID revokes all refresh tokens for the given user.
	RevokeByUserID(ctx context.Context, userID string) error

	// Revoke revokes a specific refresh token by its hash.
	Revoke(ctx context.Context, tokenHash string) error
}
