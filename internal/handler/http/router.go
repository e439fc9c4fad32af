package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/playnest/marketplace/internal/auth"
	"github.com/playnest/marketplace/internal/domain"
	"github.com/playnest/marketplace/internal/service"
	"github.com/playnest/marketplace/pkg/health"
	"github.com/playnest/marketplace/pkg/middleware"
)

// RouterConfig holds the router's environment-dependent settings.
type RouterConfig struct {
	Environment        string
	CORSAllowedOrigins []string
	CookieSecure       bool
	PprofEnabled       bool
	PprofAllowedCIDRs  []string
}

// NewRouter creates a chi router with all marketplace routes registered.
func NewRouter(
	userService *service.UserService,
	productService *service.ProductService,
	reviewService *service.ReviewService,
	jwtManager *auth.JWTManager,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		Environment:      cfg.Environment,
		AllowCredentials: true,
	}))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing("marketplace"))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.PrometheusMetrics("marketplace"))
	r.Use(middleware.RequestLogger(logger))

	// Health check and metrics endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Profiling endpoints, IP-allowlisted.
	if cfg.PprofEnabled {
		middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)
	}

	// Token validator that bridges to our internal JWTManager.
	tokenValidator := func(token string) (*middleware.Claims, error) {
		claims, err := jwtManager.ValidateAccessToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   claims.Role,
		}, nil
	}

	authHandler := NewAuthHandler(userService, cfg.CookieSecure, logger)
	userHandler := NewUserHandler(userService, reviewService, logger)
	productHandler := NewProductHandler(productService, logger)
	reviewHandler := NewReviewHandler(reviewService, logger)

	// Auth endpoints (public)
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.RefreshToken)
		r.Post("/logout", authHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokenValidator))
			r.Get("/check", authHandler.Check)
			r.Post("/change-password", authHandler.ChangePassword)
		})
	})

	// Catalog endpoints. Reads are public; OptionalAuth lets admins see
	// inactive products through the same routes. Mutations are admin only.
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(tokenValidator))
			r.Use(middleware.CacheControl(60))

			r.Get("/", productHandler.ListProducts)
			r.Get("/featured", productHandler.ListFeatured)
			r.Get("/{id}", productHandler.GetProduct)
			r.Get("/{id}/reviews", reviewHandler.ListProductReviews)
		})

		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Use(middleware.Auth(tokenValidator))

			r.Put("/{id}/reviews", reviewHandler.UpsertReview)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.RoleAdmin))

				r.Post("/", productHandler.CreateProduct)
				r.Put("/{id}", productHandler.UpdateProduct)
				r.Delete("/{id}", productHandler.DeleteProduct)
			})
		})
	})

	// Review deletion (author or admin; the service enforces which)
	r.Route("/api/v1/reviews", func(r chi.Router) {
		r.Use(middleware.Auth(tokenValidator))

		r.Delete("/{id}", reviewHandler.DeleteReview)
	})

	// Profile and user administration endpoints. Reviewer profiles and their
	// review history are public reads; OptionalAuth upgrades the profile view
	// for admin tokens.
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(tokenValidator))

			r.Get("/{id}", userHandler.GetUser)
			r.Get("/{id}/reviews", userHandler.ListUserReviews)
		})

		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Use(middleware.Auth(tokenValidator))

			r.Get("/me", userHandler.GetProfile)
			r.Put("/me", userHandler.UpdateProfile)
			r.Get("/me/reviews", userHandler.ListMyReviews)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.RoleAdmin))

				r.Get("/", userHandler.ListUsers)
				r.Post("/", userHandler.CreateUser)
				r.Delete("/{id}", userHandler.DeleteUser)
			})
		})
	})

	return r
}
