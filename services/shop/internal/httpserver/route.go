package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authmw "github.com/mkravets/shop-system/pkg/middleware/auth"
)

type Deps struct {
	OrderHandler   *OrderHTTP
	ProductHandler *ProductHTTP
	Validator      authmw.TokenValidator
	InternalToken  string
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.Use(authmw.Filter(d.Validator))

	products := e.Group("/api/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/search", d.ProductHandler.Search)
	products.GET("/:id", d.ProductHandler.GetProduct)

	admin := products.Group("", authmw.RequireRole(authmw.RoleAdmin))
	admin.POST("", d.ProductHandler.CreateProduct)
	admin.PATCH("/:id", d.ProductHandler.PatchProduct)
	admin.DELETE("/:id", d.ProductHandler.DeleteProduct)

	orders := e.Group("/api/orders", authmw.RequireRole(authmw.RoleUser, authmw.RoleAdmin))
	orders.POST("", d.OrderHandler.CreateOrder)
	orders.GET("", d.OrderHandler.GetOrders)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.PATCH("/:id", d.OrderHandler.UpdateOrder)
	orders.DELETE("/:id", d.OrderHandler.DeleteOrder)
	orders.PATCH("/place/:id", d.OrderHandler.PlaceOrder)

	// Trusted service-to-service callback, shared-secret guarded.
	e.PATCH("/api/orders/finish/:id", d.OrderHandler.FinishOrder, authmw.RequireInternal(d.InternalToken))
}
