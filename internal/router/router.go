package router

import (
	"github.com/gin-gonic/gin"
	"github.com/yunshang/merchant-admin-backend/config"
	"github.com/yunshang/merchant-admin-backend/internal/app/controller"
	"github.com/yunshang/merchant-admin-backend/internal/middleware"
)

type Router struct {
	authController    *controller.AuthController
	accountController *controller.AccountController
	uploadController  *controller.UploadController
	authMiddleware    *middleware.AuthMiddleware
	config            *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	accountController *controller.AccountController,
	uploadController *controller.UploadController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:    authController,
		accountController: accountController,
		uploadController:  uploadController,
		authMiddleware:    authMiddleware,
		config:            cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "Merchant Admin API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", r.authController.Login)
			auth.POST("/refresh", r.authController.RefreshToken)
			auth.GET("/me", r.authMiddleware.Authenticate(), r.authController.GetMe)
			auth.POST("/logout", r.authMiddleware.Authenticate(), r.authController.Logout)
		}

		// Account administration is admin-only end to end
		accounts := v1.Group("/accounts")
		accounts.Use(r.authMiddleware.Authenticate(), r.authMiddleware.RequireAdmin())
		{
			accounts.GET("", r.accountController.ListAccounts)
			accounts.GET("/export", r.accountController.ExportAccounts)
			accounts.GET("/:id", r.accountController.GetAccount)
			accounts.POST("", r.accountController.CreateAccount)
			accounts.PUT("/:id", r.accountController.UpdateAccount)
			accounts.DELETE("/:id", r.accountController.DeleteAccount)
			accounts.POST("/batch-delete", r.accountController.BatchDeleteAccounts)
			accounts.POST("/:id/freeze", r.accountController.FreezeAccount)
			accounts.POST("/:id/activate", r.accountController.ActivateAccount)
		}

		uploads := v1.Group("/uploads")
		uploads.Use(r.authMiddleware.Authenticate())
		{
			uploads.POST("/avatar/presign", r.uploadController.PresignAvatarUpload)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
