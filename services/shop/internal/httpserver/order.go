package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mkravets/shop-system/pkg/logging"
	authmw "github.com/mkravets/shop-system/pkg/middleware/auth"
	"github.com/mkravets/shop-system/services/shop/internal/service"
	"github.com/mkravets/shop-system/services/shop/internal/transport"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "shop.create_order")

	principal := authmw.PrincipalFrom(c)

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_order error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	order, err := h.Svc.CreateOrder(ctx, principal.Username, req.Address, req.ProductIDs)
	if err != nil {
		return orderError(err)
	}

	l.Info("order created", "order_id", order.ID)
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHTTP) GetOrders(c echo.Context) error {
	ctx := c.Request().Context()
	principal := authmw.PrincipalFrom(c)

	orders, err := h.Svc.ListOrders(ctx, principal.Username)
	if err != nil {
		return orderError(err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	principal := authmw.PrincipalFrom(c)

	id, err := orderID(c)
	if err != nil {
		return err
	}

	order, err := h.Svc.GetOrder(ctx, id, principal.Username)
	if err != nil {
		return orderError(err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) UpdateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	principal := authmw.PrincipalFrom(c)

	id, err := orderID(c)
	if err != nil {
		return err
	}

	var req transport.UpdateOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.Svc.UpdateOrder(ctx, id, principal.Username, req.Address, req.ProductIDs); err != nil {
		return orderError(err)
	}
	return c.NoContent(http.StatusOK)
}

func (h *OrderHTTP) DeleteOrder(c echo.Context) error {
	ctx := c.Request().Context()
	principal := authmw.PrincipalFrom(c)

	id, err := orderID(c)
	if err != nil {
		return err
	}

	if err := h.Svc.DeleteOrder(ctx, id, principal.Username); err != nil {
		return orderError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *OrderHTTP) PlaceOrder(c echo.Context) error {
	ctx := c.Request().Context()
	principal := authmw.PrincipalFrom(c)

	id, err := orderID(c)
	if err != nil {
		return err
	}

	if err := h.Svc.PlaceOrder(ctx, id, principal.Username); err != nil {
		return orderError(err)
	}
	return c.NoContent(http.StatusOK)
}

// FinishOrder serves the trusted callback from the order service. It sits
// behind RequireInternal, not the user-token filter.
func (h *OrderHTTP) FinishOrder(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := orderID(c)
	if err != nil {
		return err
	}

	if err := h.Svc.FinishOrder(ctx, id); err != nil {
		return orderError(err)
	}
	return c.NoContent(http.StatusOK)
}

func orderID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}
	return uint(id), nil
}

// orderError translates domain errors to HTTP status exactly once, here.
func orderError(err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotOwned), errors.Is(err, service.ErrNotSupported), errors.Is(err, service.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrPublish):
		return echo.NewHTTPError(http.StatusBadGateway, "order queued state unknown: broker unavailable")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
