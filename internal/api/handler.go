package api

import (
	"net/http"
	"strconv"
	"time"

	"shop-service/config"
	"shop-service/internal/redisclient"
	"shop-service/internal/service"
	"shop-service/internal/util"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	cfg      *config.Config
	auth     *service.AuthService
	catalog  *service.CatalogService
	cart     *service.CartService
	orders   *service.OrderService
	payments *service.PaymentService
	sms      *service.SMSService
	cache    *redisclient.Client
}

// NewHandler creates a new HTTP handler
func NewHandler(
	cfg *config.Config,
	auth *service.AuthService,
	catalog *service.CatalogService,
	cart *service.CartService,
	orders *service.OrderService,
	payments *service.PaymentService,
	sms *service.SMSService,
	cache *redisclient.Client,
) *Handler {
	return &Handler{
		cfg:      cfg,
		auth:     auth,
		catalog:  catalog,
		cart:     cart,
		orders:   orders,
		payments: payments,
		sms:      sms,
		cache:    cache,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())
	router.Use(h.corsMiddleware())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")

	users := api.Group("/users")
	{
		users.POST("/register", h.register)
		users.POST("/login", h.login)
		users.GET("/logout", h.logout)
		users.GET("/profile", h.authRequired(), h.getProfile)
		users.PATCH("/update-profile", h.authRequired(), h.updateProfile)
		users.PATCH("/change-password", h.authRequired(), h.changePassword)
		users.DELETE("/deactivate", h.authRequired(), h.deactivate)
		users.GET("/admin/all", h.authRequired(), h.adminRequired(), h.listUsers)
	}

	products := api.Group("/products")
	{
		products.GET("", h.cachePage(), h.listProducts)
		products.GET("/:id", h.cachePage(), h.getProduct)
		products.POST("", h.authRequired(), h.adminRequired(), h.createProduct)
		products.PUT("/:id", h.authRequired(), h.adminRequired(), h.updateProduct)
		products.DELETE("/:id", h.authRequired(), h.adminRequired(), h.deleteProduct)
	}

	categories := api.Group("/categories")
	{
		categories.GET("", h.cachePage(), h.listCategories)
		categories.GET("/:id", h.cachePage(), h.getCategory)
		categories.POST("", h.authRequired(), h.adminRequired(), h.createCategory)
		categories.PUT("/:id", h.authRequired(), h.adminRequired(), h.updateCategory)
		categories.DELETE("/:id", h.authRequired(), h.adminRequired(), h.deleteCategory)
	}

	cart := api.Group("/cart", h.authRequired())
	{
		cart.GET("", h.getCart)
		cart.POST("/add/:productId", h.addCartItem)
		cart.POST("/reduce/:productId", h.reduceCartItem)
		cart.POST("/remove/:productId", h.removeCartItem)
		cart.POST("/clear", h.clearCart)
	}

	orders := api.Group("/orders", h.authRequired())
	{
		orders.POST("", h.checkout)
		orders.GET("", h.listOrders)
		orders.GET("/:id", h.getOrder)
		orders.PATCH("/:id/deliver", h.adminRequired(), h.markDelivered)
		orders.PATCH("/admin/:id/status", h.adminRequired(), h.updateOrderStatus)
		orders.GET("/admin/all", h.adminRequired(), h.listAllOrders)
	}

	payments := api.Group("/payments")
	{
		payments.POST("/request", h.authRequired(), h.requestPayment)
		payments.GET("/verify", h.verifyPayment)
		payments.GET("/transactions", h.authRequired(), h.listTransactions)
		payments.GET("/admin/transactions", h.authRequired(), h.adminRequired(), h.listAllTransactions)
	}

	sms := api.Group("/sms")
	{
		sms.POST("/send-verification", h.sendVerification)
		sms.POST("/verify-code", h.verifyCode)
		sms.POST("/verify-phone", h.authRequired(), h.verifyPhone)
		sms.POST("/confirm-phone", h.authRequired(), h.confirmPhone)
		sms.POST("/admin/send", h.authRequired(), h.adminRequired(), h.adminSendSMS)
		sms.GET("/admin/credit", h.authRequired(), h.adminRequired(), h.smsCredit)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) corsMiddleware() gin.HandlerFunc {
	cc := cors.DefaultConfig()
	if h.cfg.CORS.Origin == "*" {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = []string{h.cfg.CORS.Origin}
		cc.AllowCredentials = true
	}
	cc.AllowHeaders = append(cc.AllowHeaders, "Authorization")
	return cors.New(cc)
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
