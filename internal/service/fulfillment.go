package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tesotunes/storefront/internal/metrics"
	"github.com/tesotunes/storefront/internal/models"
	"github.com/tesotunes/storefront/internal/repo"
	"go.opentelemetry.io/otel/attribute"
)

func noteLine(at time.Time, format string, args ...any) string {
	return fmt.Sprintf("[%s] %s\n", at.Format(time.RFC3339), fmt.Sprintf(format, args...))
}

// UpdateOrderStatus moves an order to any known status. Transitions are not
// restricted; cancelled and refunded go through CancelOrder and RefundOrder so
// stock, credits and the ledger stay consistent.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, actor Actor, id uuid.UUID, status models.OrderStatus, notes string) (order *models.Order, err error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	switch status {
	case models.OrderCancelled:
		return s.CancelOrder(ctx, actor, id, notes)
	case models.OrderRefunded:
		return s.RefundOrder(ctx, actor, id, RefundInput{Reason: notes})
	}

	defer func() { metrics.RecordOrderOperation("update_status", err == nil) }()
	notes = cleanText(notes)

	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		o, err := s.loadForAdmin(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		from := o.Status
		now := s.now()

		updates := map[string]any{"status": status}
		switch status {
		case models.OrderShipped:
			if o.ShippedAt == nil {
				updates["shipped_at"] = now
				o.ShippedAt = &now
			}
		case models.OrderCompleted:
			updates["completed_at"] = now
			updates["cleared_at"] = now
			o.CompletedAt = &now
			o.ClearedAt = &now
		}
		if _, err := tx.TransitionOrder(ctx, o.ID, nil, updates); err != nil {
			return err
		}

		line := noteLine(now, "status %s -> %s", from, status)
		if notes != "" {
			line = noteLine(now, "status %s -> %s: %s", from, status, notes)
		}
		if err := tx.AppendAdminNote(ctx, o.ID, line); err != nil {
			return err
		}
		o.AdminNotes += line
		o.Status = status

		if err := publish(ctx, tx, newOrderEvent(EventOrderStatusChanged, o, actor.ref(), now), s.notifier().StatusChanged(o, from, now)); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// CancelOrder cancels an open order, puts purchased stock back and returns
// any credits the customer paid with.
func (s *OrderService) CancelOrder(ctx context.Context, actor Actor, id uuid.UUID, reason string) (order *models.Order, err error) {
	ctx, span := startSpan(ctx, "OrderService.CancelOrder", attribute.String("order_id", id.String()))
	defer func() {
		endSpan(span, err)
		metrics.RecordOrderOperation("cancel", err == nil)
	}()
	reason = cleanText(reason)

	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		o, err := s.loadForAdmin(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		now := s.now()

		updates := map[string]any{
			"status":              models.OrderCancelled,
			"cancelled_at":        now,
			"cancellation_reason": reason,
		}
		n, err := tx.TransitionOrder(ctx, o.ID, models.OpenOrderStatuses, updates)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: cannot cancel an order that is %s", ErrBusinessRule, o.Status)
		}

		// A reopened order may already have had its stock and credits returned.
		if o.StockRestoredAt == nil {
			first, err := tx.MarkStockRestored(ctx, o.ID, now)
			if err != nil {
				return err
			}
			if first {
				if err := s.restoreItems(ctx, tx, o); err != nil {
					return err
				}
				o.StockRestoredAt = &now
			}
		}

		credits := decimal.Zero
		if o.CreditAmount.IsPositive() && o.PaymentStatus == models.PaymentPaid {
			settled, err := tx.SettleOrder(ctx, o.ID, models.PaymentPaid, map[string]any{"payment_status": models.PaymentRefunded})
			if err != nil {
				return err
			}
			if settled == 1 {
				credits = o.CreditAmount
				if err := s.returnCredits(ctx, tx, o, credits, "credits returned on cancellation", now); err != nil {
					return err
				}
				o.PaymentStatus = models.PaymentRefunded
			}
		}

		line := noteLine(now, "cancelled")
		if reason != "" {
			line = noteLine(now, "cancelled: %s", reason)
		}
		if err := tx.AppendAdminNote(ctx, o.ID, line); err != nil {
			return err
		}

		o.Status = models.OrderCancelled
		o.CancelledAt = &now
		o.CancellationReason = reason
		o.AdminNotes += line

		if err := publish(ctx, tx, newOrderEvent(EventOrderCancelled, o, actor.ref(), now), s.notifier().Cancelled(o, credits, now)); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) restoreItems(ctx context.Context, tx *repo.GormRepo, o *models.Order) error {
	for _, item := range o.Items {
		if err := tx.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func (s *OrderService) returnCredits(ctx context.Context, tx *repo.GormRepo, o *models.Order, amount decimal.Decimal, why string, at time.Time) error {
	if err := tx.AddCredits(ctx, o.UserID, amount); err != nil {
		return notFound(err, "user")
	}
	return tx.CreatePayment(ctx, &models.Payment{
		Payable:     models.OrderPayable(o.ID),
		UserID:      o.UserID,
		Amount:      amount.Neg(),
		Currency:    o.Currency,
		Method:      models.MethodCredits,
		Provider:    "credits",
		Status:      models.LedgerCompleted,
		Description: why,
		CompletedAt: &at,
	})
}

type FulfillmentInput struct {
	TrackingNumber string
	Carrier        string
	ShippingMethod string
	Notes          string
}

// ProcessFulfillment marks an open order shipped with its tracking details.
func (s *OrderService) ProcessFulfillment(ctx context.Context, actor Actor, id uuid.UUID, in FulfillmentInput) (order *models.Order, err error) {
	defer func() { metrics.RecordOrderOperation("fulfill", err == nil) }()

	in.TrackingNumber = cleanText(in.TrackingNumber)
	in.Carrier = cleanText(in.Carrier)
	in.ShippingMethod = cleanText(in.ShippingMethod)
	in.Notes = cleanText(in.Notes)

	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		o, err := s.loadForAdmin(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		now := s.now()

		updates := map[string]any{
			"status":             models.OrderShipped,
			"fulfillment_status": models.Fulfilled,
			"tracking_number":    in.TrackingNumber,
			"carrier":            in.Carrier,
			"shipped_at":         now,
		}
		if in.ShippingMethod != "" {
			updates["shipping_method"] = in.ShippingMethod
			o.ShippingMethod = in.ShippingMethod
		}
		n, err := tx.TransitionOrder(ctx, o.ID, models.OpenOrderStatuses, updates)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: cannot fulfil an order that is %s", ErrBusinessRule, o.Status)
		}

		line := noteLine(now, "fulfilled via %s, tracking %s", orDash(in.Carrier), orDash(in.TrackingNumber))
		if in.Notes != "" {
			line = noteLine(now, "fulfilled via %s, tracking %s: %s", orDash(in.Carrier), orDash(in.TrackingNumber), in.Notes)
		}
		if err := tx.AppendAdminNote(ctx, o.ID, line); err != nil {
			return err
		}

		o.Status = models.OrderShipped
		o.FulfillmentStatus = models.Fulfilled
		o.TrackingNumber = in.TrackingNumber
		o.Carrier = in.Carrier
		o.ShippedAt = &now
		o.AdminNotes += line

		if err := publish(ctx, tx, newOrderEvent(EventOrderShipped, o, actor.ref(), now), s.notifier().Shipped(o, now)); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
