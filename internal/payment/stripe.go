package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
)

type stripeRefundAPI interface {
	New(params *stripe.RefundParams) (*stripe.Refund, error)
}

// Stripe refunds card payments. Reference is the PaymentIntent id.
type Stripe struct {
	refunds stripeRefundAPI
}

func NewStripe(apiKey string) (*Stripe, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("stripe: api key is required")
	}
	sc := client.New(apiKey, nil)
	return &Stripe{refunds: sc.Refunds}, nil
}

func (s *Stripe) Refund(ctx context.Context, req RefundRequest) (RefundResult, error) {
	if strings.TrimSpace(req.Reference) == "" {
		return RefundResult{}, errors.New("stripe: payment reference is required")
	}
	minor := MinorUnits(req.Amount, req.Currency)
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.Reference),
		Amount:        stripe.Int64(minor),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	params.Context = ctx
	// Keyed by amount as well: a retry after a rolled back refund may ask for a different sum.
	params.SetIdempotencyKey(fmt.Sprintf("refund-%s-%d", req.OrderID, minor))
	params.AddMetadata("order_id", req.OrderID.String())
	if req.Reason != "" {
		params.AddMetadata("reason", req.Reason)
	}

	r, err := s.refunds.New(params)
	if err != nil {
		return RefundResult{}, fmt.Errorf("stripe: refund payment intent: %w", err)
	}
	return RefundResult{Provider: "stripe", TransactionID: r.ID}, nil
}

// zeroDecimal lists currencies Stripe charges in whole units.
var zeroDecimal = map[string]bool{
	"BIF": true, "CLP": true, "DJF": true, "GNF": true, "JPY": true, "KMF": true,
	"KRW": true, "MGA": true, "PYG": true, "RWF": true, "UGX": true, "VND": true,
	"VUV": true, "XAF": true, "XOF": true, "XPF": true,
}

func MinorUnits(amount decimal.Decimal, currency string) int64 {
	if zeroDecimal[strings.ToUpper(currency)] {
		return amount.Round(0).IntPart()
	}
	return amount.Shift(2).Round(0).IntPart()
}
