package payment

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/tesotunes/storefront/pkg/logging"
)

// MobileMoney stands in for the operator integration: it records the reversal
// request and hands back a reference for reconciliation.
type MobileMoney struct{}

func (MobileMoney) Refund(ctx context.Context, req RefundRequest) (RefundResult, error) {
	if err := ctx.Err(); err != nil {
		return RefundResult{}, err
	}
	ref := "MM-" + ulid.Make().String()
	logging.FromContext(ctx).Info("mobile_money_refund_requested",
		"order_id", req.OrderID,
		"reference", req.Reference,
		"amount", req.Amount.StringFixed(2),
		"currency", req.Currency,
		"refund_ref", ref,
	)
	return RefundResult{Provider: "mobile_money", TransactionID: ref}, nil
}
