package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/playnest/marketplace/internal/domain"
)

// querier is the query surface shared by the pool and an open transaction, so
// the recompute helpers can run inside whichever the caller holds.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// recomputeProductAverage reloads the product's review ratings, averages them,
// and stores the result on the product row. Callers run it in the same
// transaction as the review write so the aggregate cannot drift.
func recomputeProductAverage(ctx context.Context, q querier, productID string) error {
	rows, err := q.Query(ctx, `SELECT rating FROM product_reviews WHERE product_id = $1`, productID)
	if err != nil {
		return fmt.Errorf("load ratings for product %s: %w", productID, err)
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		var r domain.Review
		if err := rows.Scan(&r.Rating); err != nil {
			return fmt.Errorf("scan rating: %w", err)
		}
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate ratings: %w", err)
	}

	avg := domain.AverageRating(reviews)

	_, err = q.Exec(ctx,
		`UPDATE products SET avg_rating = $1, updated_at = $2 WHERE id = $3`,
		avg, time.Now().UTC(), productID,
	)
	if err != nil {
		return fmt.Errorf("store product average: %w", err)
	}

	return nil
}

// recomputeUserAverage rescans every rating the user has given across all
// products and stores the mean on the user row, 0 when they have none.
func recomputeUserAverage(ctx context.Context, q querier, userID string) error {
	_, err := q.Exec(ctx, `
		UPDATE users
		SET average_rating = COALESCE((SELECT AVG(rating)::float8 FROM product_reviews WHERE user_id = $1), 0),
		    updated_at = $2
		WHERE id = $1`,
		userID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("store user average: %w", err)
	}

	return nil
}
