package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/tesotunes/storefront/internal/models"
	"github.com/tesotunes/storefront/internal/service"
	"github.com/tesotunes/storefront/internal/transport"
	"github.com/tesotunes/storefront/pkg/logging"
	"github.com/tesotunes/storefront/pkg/util"
)

type OrderHTTP struct {
	Svc  *service.OrderService
	Cart *CartHTTP
}

// Checkout turns the caller's cart session into an order and empties the cart.
func (h *OrderHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.checkout")

	actor, err := actorFrom(c)
	if err != nil {
		return fail(c, l, "checkout_error", err)
	}

	var req transport.CheckoutRequest
	if err := bind(c, &req); err != nil {
		return fail(c, l, "checkout_error", err)
	}

	sid := h.Cart.session(c, false)
	var lines []service.LineItem
	if sid != "" {
		if lines, err = h.Cart.Svc.Lines(ctx, sid); err != nil {
			return fail(c, l, "checkout_error", err)
		}
	}

	order, err := h.Svc.CreateFromCart(ctx, actor.ID, lines, service.CheckoutInput{
		PaymentMethod:   models.PaymentMethod(req.PaymentMethod),
		UseCredits:      req.UseCredits,
		PromotionCode:   req.PromotionCode,
		Shipping:        req.Shipping,
		ShippingAddress: req.ShippingAddress,
		ShippingMethod:  req.ShippingMethod,
		Notes:           req.Notes,
	})
	if err != nil {
		return fail(c, l, "checkout_error", err)
	}

	if err := h.Cart.Svc.Clear(ctx, sid); err != nil {
		l.Warn("checkout_clear_cart_error", "order_id", order.ID, "error", err)
	}

	l.Info("checkout_success", "order_id", order.ID)
	return ok(c, http.StatusCreated, "order created", order)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order")

	actor, err := actorFrom(c)
	if err != nil {
		return fail(c, l, "get_order_error", err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, l, "get_order_error", err)
	}

	order, err := h.Svc.GetOrder(ctx, actor, id)
	if err != nil {
		return fail(c, l, "get_order_error", err)
	}
	return ok(c, http.StatusOK, "order", order)
}

// ListOrders serves both /orders and /admin/orders; the service scopes the
// result by the caller's role and the optional store_id filter.
func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_orders")

	actor, err := actorFrom(c)
	if err != nil {
		return fail(c, l, "list_orders_error", err)
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	q := service.OrderQuery{
		Status: models.OrderStatus(c.QueryParam("status")),
		Limit:  limit,
		Offset: offset,
	}
	if raw := c.QueryParam("store_id"); raw != "" {
		storeID, err := uuid.Parse(raw)
		if err != nil {
			return fail(c, l, "list_orders_error", errBadID)
		}
		q.StoreID = &storeID
	}

	items, total, err := h.Svc.ListOrders(ctx, actor, q)
	if err != nil {
		return fail(c, l, "list_orders_error", err)
	}
	return ok(c, http.StatusOK, "orders", transport.Page{Items: items, Meta: util.Meta(page, offset, limit, total)})
}
