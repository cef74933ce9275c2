package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tesotunes/storefront/internal/metrics"
	"github.com/tesotunes/storefront/internal/models"
	"github.com/tesotunes/storefront/internal/payment"
	"github.com/tesotunes/storefront/internal/repo"
	"github.com/tesotunes/storefront/pkg/logging"
	"go.opentelemetry.io/otel/attribute"
)

type RefundInput struct {
	Amount *decimal.Decimal
	Reason string
}

// RefundOrder reverses a paid order exactly once. The credit share goes back
// to the customer's balance and the rest through the payment gateway. The
// gateway call runs last inside the transaction, so a failed reversal leaves
// no trace in the database.
func (s *OrderService) RefundOrder(ctx context.Context, actor Actor, id uuid.UUID, in RefundInput) (order *models.Order, err error) {
	ctx, span := startSpan(ctx, "OrderService.RefundOrder", attribute.String("order_id", id.String()))
	defer func() {
		endSpan(span, err)
		metrics.RecordOrderOperation("refund", err == nil)
	}()
	reason := cleanText(in.Reason)

	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		o, err := s.loadForAdmin(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		if o.PaymentStatus != models.PaymentPaid {
			return fmt.Errorf("%w: cannot refund an order that has not been paid", ErrBusinessRule)
		}

		refundable := o.Gross()
		amount := refundable
		if in.Amount != nil {
			amount = in.Amount.Round(2)
		}
		if !amount.IsPositive() {
			return fmt.Errorf("%w: refund amount must be > 0", ErrValidation)
		}
		if amount.GreaterThan(refundable) {
			return fmt.Errorf("%w: refund amount %s exceeds order total %s", ErrValidation, amount.StringFixed(2), refundable.StringFixed(2))
		}

		now := s.now()
		updates := map[string]any{
			"status":         models.OrderRefunded,
			"payment_status": models.PaymentRefunded,
			"refund_amount":  amount,
			"refund_reason":  reason,
			"refunded_at":    now,
		}
		n, err := tx.SettleOrder(ctx, o.ID, models.PaymentPaid, updates)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: order was refunded concurrently", ErrConflict)
		}

		creditPart := decimal.Min(amount, o.CreditAmount)
		gatewayPart := amount.Sub(creditPart)

		if creditPart.IsPositive() {
			if err := s.returnCredits(ctx, tx, o, creditPart, "refund to credit balance", now); err != nil {
				return err
			}
		}

		var ledger *models.Payment
		if gatewayPart.IsPositive() {
			ledger = &models.Payment{
				Payable:     models.OrderPayable(o.ID),
				UserID:      o.UserID,
				Amount:      gatewayPart.Neg(),
				Currency:    o.Currency,
				Method:      o.PaymentMethod,
				Provider:    string(o.PaymentMethod),
				Status:      models.LedgerCompleted,
				Description: "refund",
				CompletedAt: &now,
			}
			if reason != "" {
				ledger.Description = "refund: " + reason
			}
			if err := tx.CreatePayment(ctx, ledger); err != nil {
				return err
			}
		}

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

		line := noteLine(now, "refunded %s", amount.StringFixed(2))
		if reason != "" {
			line = noteLine(now, "refunded %s: %s", amount.StringFixed(2), reason)
		}
		if err := tx.AppendAdminNote(ctx, o.ID, line); err != nil {
			return err
		}

		o.Status = models.OrderRefunded
		o.PaymentStatus = models.PaymentRefunded
		o.RefundAmount = &amount
		o.RefundReason = reason
		o.RefundedAt = &now
		o.AdminNotes += line

		ev := newOrderEvent(EventOrderRefunded, o, actor.ref(), now)
		ev.Amount = &amount
		if err := publish(ctx, tx, ev, s.notifier().Refunded(o, amount, now)); err != nil {
			return err
		}

		if ledger != nil {
			res, err := s.reverse(ctx, o, gatewayPart, reason)
			if err != nil {
				return err
			}
			ledger.Provider = res.Provider
			ledger.TransactionID = res.TransactionID
			if err := tx.SetPaymentReference(ctx, ledger.ID, res.Provider, res.TransactionID); err != nil {
				return err
			}
		}

		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("order_refunded",
		"order_id", order.ID,
		"amount", order.RefundAmount.StringFixed(2),
		"actor_id", actor.ID,
	)
	return order, nil
}

func (s *OrderService) reverse(ctx context.Context, o *models.Order, amount decimal.Decimal, reason string) (payment.RefundResult, error) {
	if s.Payments == nil {
		return payment.RefundResult{}, fmt.Errorf("%w: no gateway configured", ErrGateway)
	}
	res, err := s.Payments.Refund(ctx, payment.RefundRequest{
		OrderID:   o.ID,
		Method:    o.PaymentMethod,
		Reference: o.PaymentReference,
		Amount:    amount,
		Currency:  o.Currency,
		Reason:    reason,
	})
	if err != nil {
		logging.FromContext(ctx).Error("refund_gateway_error", "order_id", o.ID, "error", err)
		return payment.RefundResult{}, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	return res, nil
}
