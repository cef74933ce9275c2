package httpserver

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/tesotunes/storefront/internal/service"
	"github.com/tesotunes/storefront/internal/transport"
	"github.com/tesotunes/storefront/pkg/logging"
)

const (
	cartCookie = "cart_session"
	cartHeader = "X-Cart-Session"
)

type CartHTTP struct {
	Svc *service.CartService
	TTL time.Duration
}

// session returns the caller's cart session, issuing a new one when create is set.
func (h *CartHTTP) session(c echo.Context, create bool) string {
	if ck, err := c.Cookie(cartCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	if v := c.Request().Header.Get(cartHeader); v != "" {
		return v
	}
	if !create {
		return ""
	}
	sid := uuid.NewString()
	c.SetCookie(&http.Cookie{
		Name:     cartCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.TTL.Seconds()),
	})
	c.Response().Header().Set(cartHeader, sid)
	return sid
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get_cart")

	view, err := h.Svc.GetCart(ctx, h.session(c, true))
	if err != nil {
		return fail(c, l, "get_cart_error", err)
	}
	return ok(c, http.StatusOK, "cart", view)
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_item")

	var req transport.AddCartItemRequest
	if err := bind(c, &req); err != nil {
		return fail(c, l, "add_to_cart_error", err)
	}

	view, err := h.Svc.AddItem(ctx, h.session(c, true), req.ProductID, req.Quantity, req.Options)
	if err != nil {
		return fail(c, l, "add_to_cart_error", err)
	}

	l.Info("add_to_cart_success", "product_id", req.ProductID, "quantity", req.Quantity)
	return ok(c, http.StatusOK, "item added to cart", view)
}

func (h *CartHTTP) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_item")

	var req transport.UpdateCartItemRequest
	if err := bind(c, &req); err != nil {
		return fail(c, l, "update_cart_item_error", err)
	}

	view, err := h.Svc.UpdateQuantity(ctx, h.session(c, true), c.Param("id"), req.Quantity)
	if err != nil {
		return fail(c, l, "update_cart_item_error", err)
	}
	return ok(c, http.StatusOK, "cart updated", view)
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_item")

	view, err := h.Svc.RemoveItem(ctx, h.session(c, true), c.Param("id"))
	if err != nil {
		return fail(c, l, "remove_cart_item_error", err)
	}
	return ok(c, http.StatusOK, "item removed", view)
}

func (h *CartHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	if err := h.Svc.Clear(ctx, h.session(c, false)); err != nil {
		return fail(c, l, "clear_cart_error", err)
	}
	l.Info("cart successfully cleared")
	return ok(c, http.StatusOK, "cart cleared", nil)
}
