package router

import (
	"github.com/gin-gonic/gin"
	"github.com/stitchline/stitchline-backend/config"
	"github.com/stitchline/stitchline-backend/internal/app/controller"
	"github.com/stitchline/stitchline-backend/internal/middleware"
)

type Router struct {
	authController     *controller.AuthController
	templateController *controller.TemplateController
	orderController    *controller.OrderController
	paymentController  *controller.PaymentController
	authMiddleware     *middleware.AuthMiddleware
	config             *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	templateController *controller.TemplateController,
	orderController *controller.OrderController,
	paymentController *controller.PaymentController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:     authController,
		templateController: templateController,
		orderController:    orderController,
		paymentController:  paymentController,
		authMiddleware:     authMiddleware,
		config:             cfg,
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
			"message": "STITCHLINE API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authController.Register)
			auth.POST("/login", r.authController.Login)
			auth.POST("/logout", r.authMiddleware.Authenticate(), r.authController.Logout)
			auth.GET("/me", r.authMiddleware.Authenticate(), r.authController.GetProfile)
			auth.PUT("/me", r.authMiddleware.Authenticate(), r.authController.UpdateProfile)
		}

		templates := v1.Group("/templates")
		{
			templates.GET("", r.templateController.ListTemplates)
			templates.GET("/:id", r.templateController.GetTemplate)
		}

		orders := v1.Group("/orders")
		{
			// Intake accepts both signed-in customers and guests.
			orders.POST("", r.authMiddleware.OptionalAuthenticate(), r.orderController.CreateOrder)
			orders.GET("/track", r.orderController.TrackOrder)

			orders.GET("", r.authMiddleware.Authenticate(), r.orderController.GetMyOrders)
			orders.GET("/:id", r.authMiddleware.Authenticate(), r.orderController.GetOrder)
		}

		admin := v1.Group("/admin")
		admin.Use(r.authMiddleware.Authenticate(), r.authMiddleware.RequireRole("admin"))
		{
			admin.GET("/orders", r.orderController.ListOrders)
			admin.GET("/orders/export", r.orderController.ExportOrders)
			admin.PUT("/orders/:id/price", r.orderController.SetPrice)
			admin.PUT("/orders/:id/status", r.orderController.UpdateStatus)
		}

		payments := v1.Group("/payments")
		{
			payments.POST("/orders/:id/initiate", r.authMiddleware.OptionalAuthenticate(), r.paymentController.InitiatePayment)
			payments.POST("/webhook", r.paymentController.Webhook)
			payments.GET("/verify/:reference", r.paymentController.VerifyPayment)
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
