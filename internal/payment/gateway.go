// Package payment reverses settled charges with the provider that took them.
package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tesotunes/storefront/internal/models"
)

var ErrUnsupportedMethod = errors.New("payment: unsupported method")

type RefundRequest struct {
	OrderID   uuid.UUID
	Method    models.PaymentMethod
	Reference string
	Amount    decimal.Decimal
	Currency  string
	Reason    string
}

type RefundResult struct {
	Provider      string
	TransactionID string
}

type Gateway interface {
	Refund(ctx context.Context, req RefundRequest) (RefundResult, error)
}

// Manager routes refunds to the gateway registered for the order's payment method
// and bounds every call with a timeout.
type Manager struct {
	gateways map[models.PaymentMethod]Gateway
	timeout  time.Duration
}

func NewManager(timeout time.Duration) *Manager {
	return &Manager{gateways: make(map[models.PaymentMethod]Gateway), timeout: timeout}
}

func (m *Manager) Register(method models.PaymentMethod, gw Gateway) *Manager {
	m.gateways[method] = gw
	return m
}

func (m *Manager) Refund(ctx context.Context, req RefundRequest) (RefundResult, error) {
	gw, ok := m.gateways[req.Method]
	if !ok {
		return RefundResult{}, fmt.Errorf("%w: %s", ErrUnsupportedMethod, req.Method)
	}
	if !req.Amount.IsPositive() {
		return RefundResult{}, fmt.Errorf("payment: refund amount must be positive")
	}
	return WithTimeout(ctx, m.timeout, func(ctx context.Context) (RefundResult, error) {
		return gw.Refund(ctx, req)
	})
}

// WithTimeout runs call under a deadline. A gateway that ignores its context
// still cannot hold the caller past the deadline.
func WithTimeout(ctx context.Context, d time.Duration, call func(ctx context.Context) (RefundResult, error)) (RefundResult, error) {
	if d <= 0 {
		return call(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type outcome struct {
		res RefundResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := call(ctx)
		done <- outcome{res, err}
	}()

	select {
	case o := <-done:
		return o.res, o.err
	case <-ctx.Done():
		return RefundResult{}, fmt.Errorf("payment: gateway call: %w", ctx.Err())
	}
}
