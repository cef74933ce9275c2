package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tesotunes/storefront/internal/models"
	"github.com/tesotunes/storefront/internal/service"
	"github.com/tesotunes/storefront/internal/transport"
	"github.com/tesotunes/storefront/pkg/logging"
)

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.order.update_status")

	actor, err := actorFrom(c)
	if err != nil {
		return fail(c, l, "update_order_status_error", err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, l, "update_order_status_error", err)
	}
	var req transport.UpdateStatusRequest
	if err := bind(c, &req); err != nil {
		return fail(c, l, "update_order_status_error", err)
	}

	order, err := h.Svc.UpdateOrderStatus(ctx, actor, id, models.OrderStatus(req.Status), req.Notes)
	if err != nil {
		return fail(c, l, "update_order_status_error", err)
	}

	l.Info("update_order_status_success", "order_id", id, "status", order.Status)
	return ok(c, http.StatusOK, "order status updated", order)
}

func (h *OrderHTTP) Cancel(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.order.cancel")

	actor, err := actorFrom(c)
	if err != nil {
		return fail(c, l, "cancel_order_error", err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, l, "cancel_order_error", err)
	}
	var req transport.CancelOrderRequest
	if err := bind(c, &req); err != nil {
		return fail(c, l, "cancel_order_error", err)
	}

	order, err := h.Svc.CancelOrder(ctx, actor, id, req.Reason)
	if err != nil {
		return fail(c, l, "cancel_order_error", err)
	}

	l.Info("cancel_order_success", "order_id", id)
	return ok(c, http.StatusOK, "order cancelled", order)
}

func (h *OrderHTTP) Fulfill(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.order.fulfill")

	actor, err := actorFrom(c)
	if err != nil {
		return fail(c, l, "fulfill_order_error", err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, l, "fulfill_order_error", err)
	}
	var req transport.FulfillOrderRequest
	if err := bind(c, &req); err != nil {
		return fail(c, l, "fulfill_order_error", err)
	}

	order, err := h.Svc.ProcessFulfillment(ctx, actor, id, service.FulfillmentInput{
		TrackingNumber: req.TrackingNumber,
		Carrier:        req.Carrier,
		ShippingMethod: req.ShippingMethod,
		Notes:          req.Notes,
	})
	if err != nil {
		return fail(c, l, "fulfill_order_error", err)
	}

	l.Info("fulfill_order_success", "order_id", id)
	return ok(c, http.StatusOK, "order fulfilled", order)
}

func (h *OrderHTTP) Refund(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.order.refund")

	actor, err := actorFrom(c)
	if err != nil {
		return fail(c, l, "refund_order_error", err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, l, "refund_order_error", err)
	}
	var req transport.RefundOrderRequest
	if err := bind(c, &req); err != nil {
		return fail(c, l, "refund_order_error", err)
	}

	order, err := h.Svc.RefundOrder(ctx, actor, id, service.RefundInput{Amount: req.Amount, Reason: req.Reason})
	if err != nil {
		return fail(c, l, "refund_order_error", err)
	}
	return ok(c, http.StatusOK, "order refunded", order)
}

func (h *OrderHTTP) ConfirmPayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.order.confirm_payment")

	actor, err := actorFrom(c)
	if err != nil {
		return fail(c, l, "confirm_payment_error", err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, l, "confirm_payment_error", err)
	}
	var req transport.ConfirmPaymentRequest
	if err := bind(c, &req); err != nil {
		return fail(c, l, "confirm_payment_error", err)
	}

	order, err := h.Svc.ConfirmPayment(ctx, actor, id, req.TransactionID)
	if err != nil {
		return fail(c, l, "confirm_payment_error", err)
	}

	l.Info("confirm_payment_success", "order_id", id)
	return ok(c, http.StatusOK, "payment confirmed", order)
}
