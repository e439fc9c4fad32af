package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/playnest/marketplace/internal/cache"
	"github.com/playnest/marketplace/internal/domain"
	"github.com/playnest/marketplace/internal/event"
	"github.com/playnest/marketplace/internal/repository"
	apperrors "github.com/playnest/marketplace/pkg/errors"
)

// ReviewService implements the business logic for product reviews.
type ReviewService struct {
	reviewRepo  repository.ReviewRepository
	productRepo repository.ProductRepository
	rating      *RatingService
	cache       *cache.ProductCache
	producer    *event.Producer
	logger      *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	reviewRepo repository.ReviewRepository,
	productRepo repository.ProductRepository,
	rating *RatingService,
	productCache *cache.ProductCache,
	producer *event.Producer,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
		rating:      rating,
		cache:       productCache,
		producer:    producer,
		logger:      logger,
	}
}

// AddReviewInput holds the parameters for submitting or editing a review.
// Nil fields mean "not provided": a provided field overwrites, an omitted one
// keeps the stored value. The rating may only be omitted when the author
// already has a review of the product.
type AddReviewInput struct {
	Rating  *int
	Comment *string
}

// AddOrUpdate submits the user's review of a product, overwriting their
// previous review of the same product if one exists. The review write and the
// product's average rating update commit atomically; the author's own average
// is repaired best-effort afterwards.
func (s *ReviewService) AddOrUpdate(ctx context.Context, productID, userID string, input AddReviewInput) (*domain.Review, error) {
	if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("product", productID)
		}
		return nil, fmt.Errorf("get product for review: %w", err)
	}

	existing, err := s.reviewRepo.GetByProductAndUser(ctx, productID, userID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("get existing review: %w", err)
	}

	var rating int
	switch {
	case input.Rating != nil:
		rating = *input.Rating
	case existing != nil:
		rating = existing.Rating
	default:
		return nil, apperrors.InvalidInput("rating is required")
	}
	if !domain.ValidRating(rating) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("rating must be between %d and %d", domain.MinRating, domain.MaxRating))
	}

	comment := ""
	switch {
	case input.Comment != nil:
		comment = *input.Comment
	case existing != nil:
		comment = existing.Comment
	}

	review := &domain.Review{
		ID:        uuid.New().String(),
		ProductID: productID,
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.reviewRepo.Upsert(ctx, review); err != nil {
		return nil, fmt.Errorf("upsert review: %w", err)
	}

	s.cache.Invalidate(ctx, productID)
	s.rating.RecomputeUserAverages(ctx, userID)

	// Publish review upserted event (non-blocking on failure).
	if err := s.producer.PublishReviewUpserted(ctx, review, s.currentAverage(ctx, productID)); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.upserted event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review upserted",
		slog.String("review_id", review.ID),
		slog.String("product_id", productID),
		slog.String("user_id", userID),
		slog.Int("rating", rating),
	)

	return review, nil
}

// Delete removes a review. Only the review's author or an admin may delete
// it. The product's average rating updates in the same transaction as the
// delete; the author's average is repaired best-effort afterwards.
func (s *ReviewService) Delete(ctx context.Context, reviewID, actorID, actorRole string) error {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("review", reviewID)
		}
		return fmt.Errorf("get review for delete: %w", err)
	}

	if review.UserID != actorID && actorRole != domain.RoleAdmin {
		return apperrors.Forbidden("only the review author or an admin can delete a review")
	}

	if err := s.reviewRepo.Delete(ctx, reviewID); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	s.cache.Invalidate(ctx, review.ProductID)
	s.rating.RecomputeUserAverages(ctx, review.UserID)

	// Publish review deleted event (non-blocking on failure).
	if err := s.producer.PublishReviewDeleted(ctx, review, s.currentAverage(ctx, review.ProductID)); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.deleted event",
			slog.String("review_id", reviewID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review deleted",
		slog.String("review_id", reviewID),
		slog.String("product_id", review.ProductID),
		slog.String("actor_id", actorID),
	)

	return nil
}

// ListByProduct returns a product's reviews with author names, newest first.
func (s *ReviewService) ListByProduct(ctx context.Context, productID string) ([]domain.ReviewWithAuthor, error) {
	if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("product", productID)
		}
		return nil, fmt.Errorf("get product for review listing: %w", err)
	}

	reviews, err := s.reviewRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list product reviews: %w", err)
	}

	return reviews, nil
}

// ListByUser returns every review the user has authored, newest first.
func (s *ReviewService) ListByUser(ctx context.Context, userID string) ([]domain.UserReview, error) {
	reviews, err := s.reviewRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user reviews: %w", err)
	}

	return reviews, nil
}

// currentAverage reads the product's stored average for event payloads; a
// failed read degrades to 0 rather than failing the mutation.
func (s *ReviewService) currentAverage(ctx context.Context, productID string) float64 {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return 0
	}
	return product.AvgRating
}
