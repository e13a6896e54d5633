package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/labs/fleamarket/internal/cache"
	"github.com/labs/fleamarket/internal/config"
	"github.com/labs/fleamarket/internal/handlers"
	"github.com/labs/fleamarket/internal/middleware"
	"github.com/labs/fleamarket/internal/services"
)

// Dependencies are the collaborators the router needs from the process.
type Dependencies struct {
	DB      *gorm.DB
	Cache   *cache.Cache
	Storage *services.StorageService
}

func Initialize(deps Dependencies, cfg *config.Config) *gin.Engine {
	db := deps.DB

	// Initialize services
	notificationService := services.NewNotificationService(db, cfg.Market.NotificationPageSize)
	userService := services.NewUserService(db, notificationService)
	itemService := services.NewItemService(db, notificationService, cfg.Market.ListingAutoApprove, cfg.Market.ItemPageSize)
	bidService := services.NewBidService(db, notificationService, cfg.Market.BidMaxRetries)
	authService := services.NewAuthService(db, cfg.Market.AllowedEmailDomain)
	categoryService := services.NewCategoryService(db, deps.Cache, cfg.Redis.TTL)
	adminService := services.NewAdminService(db, userService, itemService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	itemHandler := handlers.NewItemHandler(itemService, userService)
	bidHandler := handlers.NewBidHandler(bidService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	uploadHandler := handlers.NewUploadHandler(deps.Storage)
	adminHandler := handlers.NewAdminHandler(adminService)

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Metrics())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	authLimit, bidLimit := passThrough, passThrough
	if cfg.RateLimit.Enabled {
		general := middleware.NewRateLimiter(rate.Limit(cfg.RateLimit.GeneralPerSec), cfg.RateLimit.GeneralBurst)
		r.Use(general.Middleware())
		authLimit = middleware.PerMinute(cfg.RateLimit.AuthPerMinute).Middleware()
		bidLimit = middleware.PerMinute(cfg.RateLimit.BidsPerMinute).Middleware()
	}

	r.GET("/health", func(c *gin.Context) {
		status, dbStatus := http.StatusOK, "up"
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status, dbStatus = http.StatusServiceUnavailable, "down"
		}
		c.JSON(status, gin.H{
			"status":   http.StatusText(status),
			"database": dbStatus,
			"cache":    deps.Cache.Enabled(),
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if deps.Storage.UploadDir() != "" {
		r.Static("/uploads", deps.Storage.UploadDir())
	}

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		auth.Use(authLimit)
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", middleware.IdentityRequired(), authHandler.Me)
		}

		api.GET("/categories", categoryHandler.GetCategories)
		api.GET("/users/:id", userHandler.GetProfile)

		items := api.Group("/items")
		{
			items.GET("", itemHandler.GetItems)
			items.GET("/:id", itemHandler.GetItem)
			items.GET("/:id/bids", bidHandler.ListBids)
			items.GET("/:id/bids/highest", bidHandler.HighestBid)

			owned := items.Group("")
			owned.Use(middleware.IdentityRequired())
			{
				owned.POST("", itemHandler.CreateItem)
				owned.PUT("/:id", itemHandler.UpdateItem)
				owned.DELETE("/:id", itemHandler.DeleteItem)
				owned.POST("/:id/bids", bidLimit, bidHandler.PlaceBid)
			}
		}

		notifications := api.Group("/notifications")
		notifications.Use(middleware.IdentityRequired())
		{
			notifications.GET("", notificationHandler.GetNotifications)
			notifications.PUT("/:id/read", notificationHandler.MarkRead)
			notifications.PUT("/:id/unread", notificationHandler.MarkUnread)
		}

		api.POST("/uploads", middleware.IdentityRequired(), uploadHandler.UploadImages)

		admin := api.Group("/admin")
		admin.Use(middleware.AdminRequired(db))
		{
			admin.GET("/users", adminHandler.GetUsers)
			admin.PUT("/users/:id/status", adminHandler.UpdateUserStatus)
			admin.GET("/items", adminHandler.GetItems)
			admin.PUT("/items/:id/status", adminHandler.UpdateItemStatus)
			admin.DELETE("/items/:id", adminHandler.RemoveItem)
		}
	}

	return r
}

func passThrough(c *gin.Context) { c.Next() }
