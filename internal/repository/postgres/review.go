package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/playnest/marketplace/internal/domain"
	"github.com/playnest/marketplace/pkg/database"
	apperrors "github.com/playnest/marketplace/pkg/errors"
)

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	db database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(db database.DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Upsert inserts the review or overwrites the author's existing review of the
// same product, then recomputes the product's average rating. Both writes
// happen in one transaction: a stored average that disagrees with the review
// rows is never observable.
func (r *ReviewRepository) Upsert(ctx context.Context, review *domain.Review) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// A resubmission keeps the row's identity but refreshes created_at.
	query := `
		INSERT INTO product_reviews (id, product_id, user_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (product_id, user_id)
		DO UPDATE SET rating = EXCLUDED.rating, comment = EXCLUDED.comment, created_at = EXCLUDED.created_at
		RETURNING id, created_at`

	err = tx.QueryRow(ctx, query,
		review.ID,
		review.ProductID,
		review.UserID,
		review.Rating,
		review.Comment,
		review.CreatedAt,
	).Scan(&review.ID, &review.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert review: %w", err)
	}

	if err := recomputeProductAverage(ctx, tx, review.ProductID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a review by its ID.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	query := `
		SELECT id, product_id, user_id, rating, comment, created_at
		FROM product_reviews
		WHERE id = $1`

	return r.scanReview(ctx, query, id)
}

// GetByProductAndUser retrieves a user's review of a product, if any.
func (r *ReviewRepository) GetByProductAndUser(ctx context.Context, productID, userID string) (*domain.Review, error) {
	query := `
		SELECT id, product_id, user_id, rating, comment, created_at
		FROM product_reviews
		WHERE product_id = $1 AND user_id = $2`

	return r.scanReview(ctx, query, productID, userID)
}

// ListByProduct returns a product's reviews with author names, oldest first
// (insertion order; an edited review keeps its place only until its refreshed
// created_at reorders it, which is acceptable).
func (r *ReviewRepository) ListByProduct(ctx context.Context, productID string) ([]domain.ReviewWithAuthor, error) {
	query := `
		SELECT r.id, r.product_id, r.user_id, r.rating, r.comment, r.created_at,
		       u.first_name, u.last_name
		FROM product_reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.product_id = $1
		ORDER BY r.created_at ASC`

	rows, err := r.db.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list product reviews: %w", err)
	}
	defer rows.Close()

	reviews := []domain.ReviewWithAuthor{}
	for rows.Next() {
		var rv domain.ReviewWithAuthor
		if err := rows.Scan(
			&rv.ID,
			&rv.ProductID,
			&rv.UserID,
			&rv.Rating,
			&rv.Comment,
			&rv.CreatedAt,
			&rv.AuthorFirstName,
			&rv.AuthorLastName,
		); err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}

	return reviews, nil
}

// ListByUser returns every review a user has authored with product names,
// newest first.
func (r *ReviewRepository) ListByUser(ctx context.Context, userID string) ([]domain.UserReview, error) {
	query := `
		SELECT r.id, r.product_id, p.name, r.rating, r.comment, r.created_at
		FROM product_reviews r
		JOIN products p ON p.id = r.product_id
		WHERE r.user_id = $1
		ORDER BY r.created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list user reviews: %w", err)
	}
	defer rows.Close()

	reviews := []domain.UserReview{}
	for rows.Next() {
		var rv domain.UserReview
		if err := rows.Scan(
			&rv.ReviewID,
			&rv.ProductID,
			&rv.ProductName,
			&rv.Rating,
			&rv.Comment,
			&rv.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan user review row: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user review rows: %w", err)
	}

	return reviews, nil
}

// Delete removes a review and recomputes the product's average rating in the
// same transaction.
func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var productID string
	err = tx.QueryRow(ctx,
		`DELETE FROM product_reviews WHERE id = $1 RETURNING product_id`, id,
	).Scan(&productID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("review", id)
		}
		return fmt.Errorf("delete review: %w", err)
	}

	if err := recomputeProductAverage(ctx, tx, productID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// RecomputeUserAverage rescans every rating the user has given and stores the
// resulting mean on the user row.
func (r *ReviewRepository) RecomputeUserAverage(ctx context.Context, userID string) error {
	return recomputeUserAverage(ctx, r.db, userID)
}

// scanReview is a helper that executes a query expected to return a single review row.
func (r *ReviewRepository) scanReview(ctx context.Context, query string, args ...any) (*domain.Review, error) {
	var rv domain.Review

	err := r.db.QueryRow(ctx, query, args...).Scan(
		&rv.ID,
		&rv.ProductID,
		&rv.UserID,
		&rv.Rating,
		&rv.Comment,
		&rv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan review: %w", err)
	}

	return &rv, nil
}
