package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mkravets/shop-system/pkg/authclient"
	authmw "github.com/mkravets/shop-system/pkg/middleware/auth"
)

type Deps struct {
	AuthHandler *AuthHTTP
}

// localValidator resolves tokens in-process: the user service owns the
// signing secret, so it does not call itself over HTTP.
type localValidator struct {
	h *AuthHTTP
}

func (v localValidator) Validate(ctx context.Context, token string) (*authclient.Principal, error) {
	username, role, err := v.h.Svc.Validate(ctx, token)
	if err != nil {
		return nil, err
	}
	return &authclient.Principal{Username: username, Role: role}, nil
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.Use(authmw.Filter(localValidator{h: d.AuthHandler}))

	users := e.Group("/api/users")
	users.POST("/register", d.AuthHandler.Register)
	users.POST("/login", d.AuthHandler.Login)
	users.DELETE("/:username", d.AuthHandler.DeleteUser, authmw.RequireRole(authmw.RoleAdmin))

	e.GET("/api/authentications/validate", d.AuthHandler.Validate)
}
