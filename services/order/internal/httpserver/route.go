package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authmw "github.com/mkravets/shop-system/pkg/middleware/auth"
)

type Deps struct {
	BillHandler *BillHTTP
	Validator   authmw.TokenValidator
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.Use(authmw.Filter(d.Validator))

	bills := e.Group("/api/bills")
	bills.GET("/user", d.BillHandler.GetUserBills, authmw.RequireRole(authmw.RoleUser, authmw.RoleAdmin))
	bills.GET("", d.BillHandler.GetAllBills, authmw.RequireRole(authmw.RoleAdmin))
	bills.PATCH("/:id", d.BillHandler.PayBill, authmw.RequireRole(authmw.RoleUser, authmw.RoleAdmin))
}
