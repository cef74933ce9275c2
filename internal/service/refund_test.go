package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tesotunes/storefront/internal/models"
	"github.com/tesotunes/storefront/internal/testutil"
)

func TestRefundOrder_FullDefaultAmount(t *testing.T) {
	f := newFixture(t)
	p := f.product("10000", testutil.IntPtr(5))
	o := f.paidCardOrder(uuid.New(), p, 2)
	assert.Equal(t, 3, f.stock(p.ID))

	got, err := f.orders.RefundOrder(f.ctx, f.admin, o.ID, RefundInput{Reason: "damaged"})
	require.NoError(t, err)
	assert.Equal(t, models.OrderRefunded, got.Status)
	assert.Equal(t, models.PaymentRefunded, got.PaymentStatus)
	require.NotNil(t, got.RefundAmount)
	moneyEq(t, "20000", *got.RefundAmount)

	stored := f.reload(o.ID)
	assert.Equal(t, "damaged", stored.RefundReason)
	require.NotNil(t, stored.RefundedAt)
	assert.Equal(t, 5, f.stock(p.ID))

	rows := f.payments(o.ID)
	require.Len(t, rows, 2)
	moneyEq(t, "-20000", rows[1].Amount)
	assert.Equal(t, "re_fake", rows[1].TransactionID)

	require.Len(t, f.gw.calls, 1)
	moneyEq(t, "20000", f.gw.calls[0].Amount)
	assert.Equal(t, models.MethodCard, f.gw.calls[0].Method)
	assert.Equal(t, stored.PaymentReference, f.gw.calls[0].Reference)
}

func TestRefundOrder_Unpaid(t *testing.T) {
	f := newFixture(t)
	p := f.product("100", testutil.IntPtr(5))
	o := f.mustCheckout(uuid.New(), CheckoutInput{PaymentMethod: models.MethodCard}, LineItem{ProductID: p.ID, Quantity: 1})

	_, err := f.orders.RefundOrder(f.ctx, f.admin, o.ID, RefundInput{})
	require.ErrorIs(t, err, ErrBusinessRule)
	assert.Contains(t, err.Error(), "cannot refund an order that has not been paid")

	stored := f.reload(o.ID)
	assert.Equal(t, models.OrderPending, stored.Status)
	assert.Nil(t, stored.RefundAmount)
	assert.Equal(t, 4, f.stock(p.ID))
	assert.Empty(t, f.gw.calls)
}

func TestRefundOrder_AmountBounds(t *testing.T) {
	f := newFixture(t)
	p := f.product("1000", nil)
	o := f.paidCardOrder(uuid.New(), p, 1)

	over := money("1000.01")
	_, err := f.orders.RefundOrder(f.ctx, f.admin, o.ID, RefundInput{Amount: &over})
	assert.ErrorIs(t, err, ErrValidation)

	zero := money("0")
	_, err = f.orders.RefundOrder(f.ctx, f.admin, o.ID, RefundInput{Amount: &zero})
	assert.ErrorIs(t, err, ErrValidation)

	part := money("400")
	got, err := f.orders.RefundOrder(f.ctx, f.admin, o.ID, RefundInput{Amount: &part})
	require.NoError(t, err)
	moneyEq(t, "400", *got.RefundAmount)
}

func TestRefundOrder_ExactlyOnce(t *testing.T) {
	f := newFixture(t)
	p := f.product("1000", testutil.IntPtr(3))
	o := f.paidCardOrder(uuid.New(), p, 1)

	_, err := f.orders.RefundOrder(f.ctx, f.admin, o.ID, RefundInput{})
	require.NoError(t, err)
	_, err = f.orders.RefundOrder(f.ctx, f.admin, o.ID, RefundInput{})
	require.ErrorIs(t, err, ErrBusinessRule)

	assert.Len(t, f.gw.calls, 1)
	assert.Len(t, f.payments(o.ID), 2)
	assert.Equal(t, 3, f.stock(p.ID))
}

func TestRefundOrder_GatewayFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	p := f.product("1000", testutil.IntPtr(3))
	o := f.paidCardOrder(uuid.New(), p, 2)
	f.gw.err = errGatewayDown
	outboxBefore := f.count(&models.OutboxEvent{})

	_, err := f.orders.RefundOrder(f.ctx, f.admin, o.ID, RefundInput{Reason: "x"})
	require.ErrorIs(t, err, ErrGateway)

	stored := f.reload(o.ID)
	assert.Equal(t, models.PaymentPaid, stored.PaymentStatus)
	assert.Equal(t, models.OrderPending, stored.Status)
	assert.Nil(t, stored.StockRestoredAt)
	assert.Equal(t, 1, f.stock(p.ID))
	assert.Len(t, f.payments(o.ID), 1)
	assert.Equal(t, outboxBefore, f.count(&models.OutboxEvent{}))

	f.gw.err = nil
	_, err = f.orders.RefundOrder(f.ctx, f.admin, o.ID, RefundInput{})
	require.NoError(t, err)
	assert.Equal(t, 3, f.stock(p.ID))
}

func TestRefundOrder_AfterCancelDoesNotRestoreStockTwice(t *testing.T) {
	f := newFixture(t)
	p := f.product("1000", testutil.IntPtr(4))
	o := f.paidCardOrder(uuid.New(), p, 3)

	_, err := f.orders.CancelOrder(f.ctx, f.admin, o.ID, "oops")
	require.NoError(t, err)
	assert.Equal(t, 4, f.stock(p.ID))

	got, err := f.orders.RefundOrder(f.ctx, f.admin, o.ID, RefundInput{})
	require.NoError(t, err)
	assert.Equal(t, models.OrderRefunded, got.Status)
	assert.Equal(t, 4, f.stock(p.ID))
}

func TestRefundOrder_CreditShareReturnsToBalance(t *testing.T) {
	f := newFixture(t)
	p := f.product("3000", nil)
	u := f.user("5000")
	o := f.mustCheckout(u.ID, CheckoutInput{UseCredits: true}, LineItem{ProductID: p.ID, Quantity: 1})
	moneyEq(t, "2000", testutil.ReloadUser(t, f.db, u.ID).CreditBalance)

	part := money("1200")
	_, err := f.orders.RefundOrder(f.ctx, f.admin, o.ID, RefundInput{Amount: &part})
	require.NoError(t, err)

	moneyEq(t, "3200", testutil.ReloadUser(t, f.db, u.ID).CreditBalance)
	assert.Empty(t, f.gw.calls)
	rows := f.payments(o.ID)
	require.Len(t, rows, 2)
	moneyEq(t, "-1200", rows[1].Amount)
	assert.Equal(t, models.MethodCredits, rows[1].Method)
}

func TestRefundOrder_ViaStatusUpdate(t *testing.T) {
	f := newFixture(t)
	p := f.product("700", nil)
	o := f.paidCardOrder(uuid.New(), p, 1)

	got, err := f.orders.UpdateOrderStatus(f.ctx, f.admin, o.ID, models.OrderRefunded, "returned")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRefunded, got.PaymentStatus)
	assert.Equal(t, "returned", got.RefundReason)
	require.Len(t, f.gw.calls, 1)
}
