package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/playnest/marketplace/internal/domain"
	pkgkafka "github.com/playnest/marketplace/pkg/kafka"
)

// Kafka topics for marketplace domain events.
var (
	TopicUserRegistered = pkgkafka.Topic("user", "registered")
	TopicUserDeleted    = pkgkafka.Topic("user", "deleted")
	TopicProductCreated = pkgkafka.Topic("product", "created")
	TopicProductUpdated = pkgkafka.Topic("product", "updated")
	TopicProductDeleted = pkgkafka.Topic("product", "deleted")
	TopicReviewUpserted = pkgkafka.Topic("review", "upserted")
	TopicReviewDeleted  = pkgkafka.Topic("review", "deleted")
)

// Aggregate type constants.
const (
	AggregateTypeUser    = "user"
	AggregateTypeProduct = "product"
	AggregateTypeReview  = "review"
)

// Source identifier for events originating from this server.
const Source = "marketplace"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

// UserDeletedData is the payload for a user.deleted event.
type UserDeletedData struct {
	ID string `json:"id"`
	// AffectedProductIDs lists the products whose average ratings changed when
	// the user's reviews were cascaded away.
	AffectedProductIDs []string `json:"affected_product_ids,omitempty"`
}

// ProductData is the payload for product.created and product.updated events.
type ProductData struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Category string `json:"category"`
	Featured bool   `json:"featured"`
	IsActive bool   `json:"is_active"`
}

// ProductDeletedData is the payload for a product.deleted event.
type ProductDeletedData struct {
	ID string `json:"id"`
	// AffectedUserIDs lists the reviewers whose average ratings changed when
	// the product's reviews disappeared.
	AffectedUserIDs []string `json:"affected_user_ids,omitempty"`
}

// ReviewData is the payload for review.upserted and review.deleted events.
type ReviewData struct {
	ID        string  `json:"id"`
	ProductID string  `json:"product_id"`
	UserID    string  `json:"user_id"`
	Rating    int     `json:"rating,omitempty"`
	AvgRating float64 `json:"avg_rating"`
}

// Producer publishes marketplace domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// publish wraps the payload in the standard envelope and sends it.
func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, Source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)

	return nil
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	return p.publish(ctx, TopicUserRegistered, user.ID, AggregateTypeUser, UserRegisteredData{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
	})
}

// PublishUserDeleted publishes a user.deleted event.
func (p *Producer) PublishUserDeleted(ctx context.Context, userID string, affectedProductIDs []string) error {
	return p.publish(ctx, TopicUserDeleted, userID, AggregateTypeUser, UserDeletedData{
		ID:                 userID,
		AffectedProductIDs: affectedProductIDs,
	})
}

// PublishProductCreated publishes a product.created event.
func (p *Producer) PublishProductCreated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductCreated, product.ID, AggregateTypeProduct, productData(product))
}

// PublishProductUpdated publishes a product.updated event.
func (p *Producer) PublishProductUpdated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductUpdated, product.ID, AggregateTypeProduct, productData(product))
}

// PublishProductDeleted publishes a product.deleted event.
func (p *Producer) PublishProductDeleted(ctx context.Context, productID string, affectedUserIDs []string) error {
	return p.publish(ctx, TopicProductDeleted, productID, AggregateTypeProduct, ProductDeletedData{
		ID:              productID,
		AffectedUserIDs: affectedUserIDs,
	})
}

// PublishReviewUpserted publishes a review.upserted event.
func (p *Producer) PublishReviewUpserted(ctx context.Context, review *domain.Review, avgRating float64) error {
	return p.publish(ctx, TopicReviewUpserted, review.ID, AggregateTypeReview, ReviewData{
		ID:        review.ID,
		ProductID: review.ProductID,
		UserID:    review.UserID,
		Rating:    review.Rating,
		AvgRating: avgRating,
	})
}

// PublishReviewDeleted publishes a review.deleted event.
func (p *Producer) PublishReviewDeleted(ctx context.Context, review *domain.Review, avgRating float64) error {
	return p.publish(ctx, TopicReviewDeleted, review.ID, AggregateTypeReview, ReviewData{
		ID:        review.ID,
		ProductID: review.ProductID,
		UserID:    review.UserID,
		AvgRating: avgRating,
	})
}

func productData(product *domain.Product) ProductData {
	return ProductData{
		ID:       product.ID,
		Name:     product.Name,
		Price:    product.Price,
		Category: product.Category,
		Featured: product.Featured,
		IsActive: product.IsActive,
	}
}
