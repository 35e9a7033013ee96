// Package router maps URLs to handlers and applies the middleware
// chain for each route group.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/tourly/tourly-api/internal/config"
	"github.com/tourly/tourly-api/internal/handler"
	"github.com/tourly/tourly-api/internal/middleware"
	"github.com/tourly/tourly-api/internal/model"
)

// Handlers collects every handler the router wires up.
type Handlers struct {
	Auth          *handler.AuthHandler
	Tours         *handler.TourHandler
	Bookings      *handler.BookingHandler
	Reviews       *handler.ReviewHandler
	Notifications *handler.NotificationHandler
	Users         *handler.UserHandler
}

// Register sets up all routes. The auth group carries the Redis token
// bucket so credential endpoints cannot be hammered; public tour reads
// go through the response cache; everything stateful sits behind
// JWTAuth.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	// Credential endpoints: no session required, rate limited.
	auth := e.Group("/v1/auth", limiter)
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/verify-email", h.Auth.VerifyEmail)
	auth.POST("/resend-code", h.Auth.ResendCode)
	auth.POST("/refresh", h.Auth.Refresh)

	// Public browsing, cached.
	e.GET("/v1/tours", h.Tours.List, cache)
	e.GET("/v1/tours/:id", h.Tours.Get, cache)
	e.GET("/v1/tours/:id/reviews", h.Tours.ListReviews, cache)
	e.GET("/v1/users/:id", h.Users.Get, cache)

	// Everything below requires a valid access token.
	v1 := e.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	v1.POST("/auth/logout", h.Auth.Logout)
	v1.GET("/me", h.Users.Me)
	v1.POST("/users/:id/follow", h.Users.Follow)
	v1.DELETE("/users/:id/follow", h.Users.Unfollow)

	v1.GET("/notifications", h.Notifications.List)
	v1.GET("/notifications/unread-count", h.Notifications.UnreadCount)
	v1.POST("/notifications/:id/read", h.Notifications.MarkRead)
	v1.POST("/notifications/read-all", h.Notifications.MarkAllRead)

	// Traveler operations.
	traveler := v1.Group("", middleware.RequireRole(string(model.RoleTraveler)))
	traveler.POST("/bookings", h.Bookings.Book)
	traveler.DELETE("/bookings/:id", h.Bookings.Cancel)
	traveler.GET("/bookings", h.Bookings.Mine)
	traveler.POST("/reviews", h.Reviews.Create)

	// Guide operations.
	guide := v1.Group("", middleware.RequireRole(string(model.RoleGuide)))
	guide.POST("/tours", h.Tours.Create)
	guide.GET("/my-tours", h.Tours.Mine)
	guide.PUT("/tours/:id", h.Tours.Update)
	guide.DELETE("/tours/:id", h.Tours.Delete)
	guide.GET("/my-tours/bookings", h.Bookings.ForMyTours)
}
