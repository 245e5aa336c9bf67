package router

import (
	"time"

	"punchcard/config"
	"punchcard/internal/handler"
	"punchcard/internal/middleware"
	"punchcard/internal/repository"
	"punchcard/internal/service"
	"punchcard/internal/ws"
	"punchcard/pkg/cloudinary"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, cloud cloudinary.Client) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	cardRepo := repository.NewCardRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	rewardRepo := repository.NewRewardRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	feedHub := ws.NewFeedHub()

	// Services
	mailSvc := service.NewMailService(&cfg.SMTP)
	authSvc := service.NewAuthService(cfg, db, userRepo, mailSvc)
	loyaltySvc := service.NewLoyaltyService(db)
	analyticsSvc := service.NewAnalyticsService(analyticsRepo, cfg.Analytics.CacheTTL, cfg.Analytics.CleanupInterval)
	billingSvc := service.NewBillingService(&cfg.Razorpay, userRepo, cardRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, userRepo, cardRepo)
	googleOAuthHandler := handler.NewGoogleOAuthHandler(cfg, authSvc)
	cardHandler := handler.NewCardHandler(cfg, cardRepo, userRepo, loyaltySvc)
	scanHandler := handler.NewScanHandler(loyaltySvc, analyticsSvc, cardRepo, feedHub)
	customerHandler := handler.NewCustomerHandler(cardRepo, progressRepo, rewardRepo)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsSvc, cardRepo)
	exportHandler := handler.NewExportHandler(analyticsSvc, cardRepo)
	billingHandler := handler.NewBillingHandler(billingSvc)
	uploadHandler := handler.NewUploadHandler(cloud, cardRepo)

	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.GET("/verify", authMw, authHandler.Verify)
			authGroup.PATCH("/change-password", authMw, authHandler.ChangePassword)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/forgot-password", authHandler.ForgotPassword)
			authGroup.POST("/reset-password", authHandler.ResetPassword)
			authGroup.GET("/google", googleOAuthHandler.Redirect)
			authGroup.GET("/google/callback", googleOAuthHandler.Callback)
		}

		cards := api.Group("/cards")
		cards.Use(authMw)
		{
			cards.GET("", cardHandler.List)
			cards.POST("", cardHandler.Create)
			cards.GET("/:id", cardHandler.Get)
			cards.PATCH("/:id", cardHandler.Update)
			cards.DELETE("/:id", cardHandler.Delete)
			cards.POST("/:id/activate", cardHandler.SetActive)
			cards.POST("/:id/qr/regenerate", cardHandler.RegenerateQR)
			cards.GET("/:id/qr/download", cardHandler.DownloadQR)
			cards.POST("/:id/logo", uploadHandler.UploadLogo)

			cards.GET("/:id/customers", customerHandler.List)
			cards.GET("/:id/customers/:customerId/rewards", customerHandler.Rewards)

			cards.GET("/:id/analytics/stamps", analyticsHandler.StampActivity)
			cards.GET("/:id/analytics/new-customers", analyticsHandler.NewCustomers)
			cards.GET("/:id/analytics/top-customers", analyticsHandler.TopCustomers)
			cards.GET("/:id/analytics/export/xlsx", exportHandler.DownloadExcel)
			cards.GET("/:id/analytics/export/pdf", exportHandler.DownloadPDF)
		}

		scan := api.Group("/scan")
		scan.Use(authMw)
		{
			scan.POST("/validate", scanHandler.ValidateQR)
			scan.POST("/stamp", scanHandler.ApplyStamp)
			scan.POST("/redeem/:id", scanHandler.RedeemReward)
		}

		api.GET("/analytics/dashboard", authMw, analyticsHandler.Dashboard)

		// Provider webhook authenticates by body signature, not JWT.
		api.POST("/billing/webhook", billingHandler.Webhook)

		billing := api.Group("/billing")
		billing.Use(authMw)
		{
			billing.POST("/checkout", billingHandler.CreateCheckout)
			billing.POST("/verify", billingHandler.VerifyPayment)
			billing.POST("/cancel", billingHandler.Cancel)
			billing.GET("/grace-period", billingHandler.GracePeriod)
			billing.GET("/card-count", billingHandler.CardCount)
		}

		// Token is passed as a query parameter since browsers cannot set
		// headers on WebSocket upgrades.
		api.GET("/ws/feed", ws.UpgradeFeedWS(&cfg.JWT, feedHub))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
