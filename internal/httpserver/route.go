package httpserver

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	middleware "github.com/tesotunes/storefront/pkg/middleware/auth"
	"github.com/tesotunes/storefront/pkg/tokens"
)

type Deps struct {
	CartHandler      *CartHTTP
	OrderHandler     *OrderHTTP
	PromotionHandler *PromotionHTTP
	CatalogHandler   *CatalogHTTP
	StatsHandler     *StatsHTTP
	HealthHandler    *HealthHTTP
	JWTSecret        []byte
}

func Register(e *echo.Echo, d *Deps) {
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler

	e.GET("/health/live", d.HealthHandler.Live)
	e.GET("/health/ready", d.HealthHandler.Ready)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	authMW := middleware.NewAuthMiddleware(d.JWTSecret)
	staff := authMW.RequireRole(tokens.RoleAdmin, tokens.RoleStoreOwner)

	cart := e.Group("/cart")
	cart.GET("", d.CartHandler.GetCart)
	cart.DELETE("", d.CartHandler.Clear)
	cart.POST("/items", d.CartHandler.AddItem)
	cart.PATCH("/items/:id", d.CartHandler.UpdateItem)
	cart.DELETE("/items/:id", d.CartHandler.RemoveItem)

	e.POST("/checkout", d.OrderHandler.Checkout, authMW.RequireAuth)

	orders := e.Group("/orders", authMW.RequireAuth)
	orders.GET("", d.OrderHandler.ListOrders)
	orders.GET("/:id", d.OrderHandler.GetOrder)

	e.POST("/promotions/validate", d.PromotionHandler.Validate, authMW.RequireAuth)

	products := e.Group("/products")
	products.GET("", d.CatalogHandler.GetProducts)
	products.GET("/search", d.CatalogHandler.Search)
	products.GET("/:id", d.CatalogHandler.GetProduct)

	admin := e.Group("/admin", staff)

	admin.GET("/orders", d.OrderHandler.ListOrders)
	admin.PATCH("/orders/:id/status", d.OrderHandler.UpdateStatus)
	admin.POST("/orders/:id/cancel", d.OrderHandler.Cancel)
	admin.POST("/orders/:id/fulfill", d.OrderHandler.Fulfill)
	admin.POST("/orders/:id/refund", d.OrderHandler.Refund)
	admin.POST("/orders/:id/payments/confirm", d.OrderHandler.ConfirmPayment)

	admin.POST("/promotions", d.PromotionHandler.Create)
	admin.POST("/promotions/:id/approve", d.PromotionHandler.Approve)
	admin.POST("/promotions/:id/reject", d.PromotionHandler.Reject)
	admin.POST("/promotions/:id/deactivate", d.PromotionHandler.Deactivate)

	admin.POST("/products", d.CatalogHandler.CreateProduct)
	admin.PATCH("/products/:id", d.CatalogHandler.PatchProduct)

	admin.GET("/stores/:id/stats", d.StatsHandler.StoreStats)
}
