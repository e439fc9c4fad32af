package service

import (
	"context"
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

// defaultFeaturedLimit caps the featured-products listing.
const defaultFeaturedLimit = 8

// ProductService implements the business logic for catalog operations.
type ProductService struct {
	productRepo repository.ProductRepository
	rating      *RatingService
	cache       *cache.ProductCache
	producer    *event.Producer
	logger      *slog.Logger
}

// NewProductService creates a new product service.
func NewProductService(
	productRepo repository.ProductRepository,
	rating *RatingService,
	productCache *cache.ProductCache,
	producer *event.Producer,
	logger *slog.Logger,
) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		rating:      rating,
		cache:       productCache,
		producer:    producer,
		logger:      logger,
	}
}

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	Name        string
	Description string
	Price       int64
	Category    string
	Seller      string
	Images      []string
	Attributes  map[string]any
	Featured    bool
}

// UpdateProductInput holds the parameters for updating a product. Nil fields
// are left unchanged.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Price       *int64
	Category    *string
	Seller      *string
	Images      []string
	Attributes  map[string]any
	Featured    *bool
	IsActive    *bool
}

// Create adds a new product to the catalog. New products start with no
// reviews and an average rating of 0.
func (s *ProductService) Create(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	if input.Price < 0 {
		return nil, apperrors.InvalidInput("price must not be negative")
	}

	images := input.Images
	if images == nil {
		images = []string{}
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Category:    input.Category,
		Seller:      input.Seller,
		Images:      images,
		Attributes:  input.Attributes,
		AvgRating:   0,
		Featured:    input.Featured,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	// Publish product created event (non-blocking on failure).
	if err := s.producer.PublishProductCreated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.created event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("name", product.Name),
	)

	return product, nil
}

// GetByID retrieves a product, reading through the cache.
func (s *ProductService) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if product, ok := s.cache.Get(ctx, id); ok {
		return product, nil
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	s.cache.Set(ctx, product)

	return product, nil
}

// List returns products matching the filter with the total count.
func (s *ProductService) List(ctx context.Context, filter repository.ProductFilter, limit, offset int) ([]domain.Product, int, error) {
	products, total, err := s.productRepo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

// ListFeatured returns the featured products shown on the storefront.
func (s *ProductService) ListFeatured(ctx context.Context) ([]domain.Product, error) {
	products, err := s.productRepo.ListFeatured(ctx, defaultFeaturedLimit)
	if err != nil {
		return nil, fmt.Errorf("list featured products: %w", err)
	}
	return products, nil
}

// Update modifies a product's fields. The average rating is never writable
// through this path; only review mutations move it.
func (s *ProductService) Update(ctx context.Context, id string, input UpdateProductInput) (*domain.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product for update: %w", err)
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, apperrors.InvalidInput("name must not be empty")
		}
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return nil, apperrors.InvalidInput("price must not be negative")
		}
		product.Price = *input.Price
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.Seller != nil {
		product.Seller = *input.Seller
	}
	if input.Images != nil {
		product.Images = input.Images
	}
	if input.Attributes != nil {
		product.Attributes = input.Attributes
	}
	if input.Featured != nil {
		product.Featured = *input.Featured
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.cache.Invalidate(ctx, id)

	// Publish product updated event (non-blocking on failure).
	if err := s.producer.PublishProductUpdated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.updated event",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product updated",
		slog.String("product_id", id),
	)

	return product, nil
}

// Delete removes a product and its reviews, then repairs the average rating
// of every user who had reviewed it.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	reviewerIDs, err := s.productRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	s.cache.Invalidate(ctx, id)
	s.rating.RecomputeUserAverages(ctx, reviewerIDs...)

	// Publish product deleted event (non-blocking on failure).
	if err := s.producer.PublishProductDeleted(ctx, id, reviewerIDs); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.deleted event",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product deleted",
		slog.String("product_id", id),
		slog.Int("affected_reviewers", len(reviewerIDs)),
	)

	return nil
}
