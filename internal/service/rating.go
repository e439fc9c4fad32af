package service

import (
	"context"
	"log/slog"

	"github.com/playnest/marketplace/internal/repository"
)

// RatingService maintains the per-user rating aggregate. Product averages are
// kept consistent transactionally by the review repository; user averages are
// repaired here on a best-effort basis: a failed recompute is logged and the
// triggering operation still succeeds, since the next recompute for the same
// user restores the correct value from the review rows.
type RatingService struct {
	reviewRepo repository.ReviewRepository
	logger     *slog.Logger
}

// NewRatingService creates a new rating service.
func NewRatingService(reviewRepo repository.ReviewRepository, logger *slog.Logger) *RatingService {
	return &RatingService{
		reviewRepo: reviewRepo,
		logger:     logger,
	}
}

// RecomputeUserAverages rescans and stores the average rating for each of the
// given users. Failures are logged per user and never propagated.
func (s *RatingService) RecomputeUserAverages(ctx context.Context, userIDs ...string) {
	for _, userID := range userIDs {
		if err := s.reviewRepo.RecomputeUserAverage(ctx, userID); err != nil {
			s.logger.ErrorContext(ctx, "failed to recompute user average rating",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
	}
}
