package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mkravets/shop-system/pkg/logging"
	authmw "github.com/mkravets/shop-system/pkg/middleware/auth"
	"github.com/mkravets/shop-system/services/order/internal/service"
)

type BillHTTP struct {
	Svc *service.BillService
}

func (h *BillHTTP) GetUserBills(c echo.Context) error {
	ctx := c.Request().Context()
	principal := authmw.PrincipalFrom(c)

	bills, err := h.Svc.ListUserBills(ctx, principal.Username)
	if err != nil {
		return billError(err)
	}
	return c.JSON(http.StatusOK, bills)
}

func (h *BillHTTP) GetAllBills(c echo.Context) error {
	bills, err := h.Svc.ListAllBills(c.Request().Context())
	if err != nil {
		return billError(err)
	}
	return c.JSON(http.StatusOK, bills)
}

func (h *BillHTTP) PayBill(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.pay_bill")
	principal := authmw.PrincipalFrom(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid bill id")
	}

	if err := h.Svc.PayBill(ctx, uint(id), principal.Username); err != nil {
		return billError(err)
	}

	l.Info("bill paid", "bill_id", id)
	return c.NoContent(http.StatusOK)
}

func billError(err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotOwned):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
