package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tesotunes/storefront/internal/models"
	"github.com/tesotunes/storefront/internal/testutil"
)

func TestUpdateOrderStatus_AppendsNotes(t *testing.T) {
	f := newFixture(t)
	p := f.product("100", nil)
	o := f.mustCheckout(uuid.New(), CheckoutInput{PaymentMethod: models.MethodCard}, LineItem{ProductID: p.ID, Quantity: 1})

	_, err := f.orders.UpdateOrderStatus(f.ctx, f.admin, o.ID, models.OrderProcessing, "picked")
	require.NoError(t, err)
	got, err := f.orders.UpdateOrderStatus(f.ctx, f.admin, o.ID, models.OrderCompleted, "<i>delivered</i>")
	require.NoError(t, err)

	stored := f.reload(o.ID)
	assert.Equal(t, models.OrderCompleted, stored.Status)
	assert.Contains(t, stored.AdminNotes, "pending -> processing: picked")
	assert.Contains(t, stored.AdminNotes, "processing -> completed: delivered")
	assert.NotContains(t, stored.AdminNotes, "<i>")
	require.NotNil(t, stored.ClearedAt)
	require.NotNil(t, stored.CompletedAt)
	assert.Equal(t, stored.AdminNotes, got.AdminNotes)

	events, err := f.repo.ListOutbox(f.ctx, models.TopicOrderEvents)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestUpdateOrderStatus_Permissive(t *testing.T) {
	f := newFixture(t)
	p := f.product("100", nil)
	o := f.mustCheckout(uuid.New(), CheckoutInput{PaymentMethod: models.MethodCard}, LineItem{ProductID: p.ID, Quantity: 1})

	_, err := f.orders.UpdateOrderStatus(f.ctx, f.admin, o.ID, models.OrderCompleted, "")
	require.NoError(t, err)
	got, err := f.orders.UpdateOrderStatus(f.ctx, f.admin, o.ID, models.OrderPending, "reopened")
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, got.Status)

	_, err = f.orders.UpdateOrderStatus(f.ctx, f.admin, o.ID, "lost", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.orders.UpdateOrderStatus(f.ctx, Actor{ID: uuid.New(), Role: f.owner.Role}, o.ID, models.OrderShipped, "")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.orders.UpdateOrderStatus(f.ctx, f.admin, uuid.New(), models.OrderShipped, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelOrder_RestoresStockAndCredits(t *testing.T) {
	f := newFixture(t)
	a := f.product("1000", testutil.IntPtr(5))
	b := f.product("500", testutil.IntPtr(2))
	free := f.product("10", nil)
	u := f.user("10000")

	o := f.mustCheckout(u.ID, CheckoutInput{UseCredits: true},
		LineItem{ProductID: a.ID, Quantity: 3},
		LineItem{ProductID: b.ID, Quantity: 2},
		LineItem{ProductID: free.ID, Quantity: 7},
	)
	moneyEq(t, "4070", o.CreditAmount)
	assert.Equal(t, 2, f.stock(a.ID))
	assert.Equal(t, models.ProductOutOfStock, testutil.ReloadProduct(t, f.db, b.ID).Status)

	got, err := f.orders.CancelOrder(f.ctx, f.owner, o.ID, "customer asked")
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, got.Status)
	assert.Equal(t, models.PaymentRefunded, got.PaymentStatus)

	assert.Equal(t, 5, f.stock(a.ID))
	assert.Equal(t, 2, f.stock(b.ID))
	assert.Equal(t, models.ProductActive, testutil.ReloadProduct(t, f.db, b.ID).Status)
	assert.Nil(t, testutil.ReloadProduct(t, f.db, free.ID).StockQuantity)
	moneyEq(t, "10000", testutil.ReloadUser(t, f.db, u.ID).CreditBalance)

	stored := f.reload(o.ID)
	assert.Equal(t, "customer asked", stored.CancellationReason)
	assert.Contains(t, stored.AdminNotes, "cancelled: customer asked")
	require.NotNil(t, stored.StockRestoredAt)

	rows := f.payments(o.ID)
	require.Len(t, rows, 2)
	moneyEq(t, "-4070", rows[1].Amount)

	_, err = f.orders.CancelOrder(f.ctx, f.owner, o.ID, "again")
	assert.ErrorIs(t, err, ErrBusinessRule)
	assert.Equal(t, 5, f.stock(a.ID))
}

func TestCancelOrder_NoCreditsLeavesBalance(t *testing.T) {
	f := newFixture(t)
	p := f.product("1000", testutil.IntPtr(3))
	u := f.user("5")

	o := f.mustCheckout(u.ID, CheckoutInput{PaymentMethod: models.MethodMobileMoney}, LineItem{ProductID: p.ID, Quantity: 3})
	got, err := f.orders.UpdateOrderStatus(f.ctx, f.admin, o.ID, models.OrderCancelled, "duplicate")
	require.NoError(t, err)

	assert.Equal(t, models.OrderCancelled, got.Status)
	assert.Equal(t, models.PaymentPending, got.PaymentStatus)
	assert.Equal(t, 3, f.stock(p.ID))
	moneyEq(t, "5", testutil.ReloadUser(t, f.db, u.ID).CreditBalance)
	assert.Empty(t, f.payments(o.ID))
}

func TestCancelOrder_ReopenedOrderReturnsNothingTwice(t *testing.T) {
	f := newFixture(t)
	p := f.product("1000", testutil.IntPtr(5))
	u := f.user("10000")

	o := f.mustCheckout(u.ID, CheckoutInput{UseCredits: true}, LineItem{ProductID: p.ID, Quantity: 2})
	_, err := f.orders.CancelOrder(f.ctx, f.admin, o.ID, "first")
	require.NoError(t, err)
	assert.Equal(t, 5, f.stock(p.ID))
	moneyEq(t, "10000", testutil.ReloadUser(t, f.db, u.ID).CreditBalance)

	_, err = f.orders.UpdateOrderStatus(f.ctx, f.admin, o.ID, models.OrderPending, "reopened")
	require.NoError(t, err)

	got, err := f.orders.CancelOrder(f.ctx, f.admin, o.ID, "second")
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, got.Status)
	assert.Equal(t, models.PaymentRefunded, got.PaymentStatus)

	assert.Equal(t, 5, f.stock(p.ID))
	moneyEq(t, "10000", testutil.ReloadUser(t, f.db, u.ID).CreditBalance)
	assert.Len(t, f.payments(o.ID), 2)
}

func TestCancelOrder_AfterRefundAndReopen(t *testing.T) {
	f := newFixture(t)
	p := f.product("1000", testutil.IntPtr(5))
	u := f.user("10000")

	o := f.mustCheckout(u.ID, CheckoutInput{UseCredits: true}, LineItem{ProductID: p.ID, Quantity: 2})
	_, err := f.orders.RefundOrder(f.ctx, f.admin, o.ID, RefundInput{Reason: "damaged"})
	require.NoError(t, err)
	assert.Equal(t, 5, f.stock(p.ID))
	moneyEq(t, "10000", testutil.ReloadUser(t, f.db, u.ID).CreditBalance)
	assert.Empty(t, f.gw.calls)

	_, err = f.orders.UpdateOrderStatus(f.ctx, f.admin, o.ID, models.OrderPending, "reopened")
	require.NoError(t, err)

	got, err := f.orders.CancelOrder(f.ctx, f.admin, o.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, got.Status)

	assert.Equal(t, 5, f.stock(p.ID))
	moneyEq(t, "10000", testutil.ReloadUser(t, f.db, u.ID).CreditBalance)
	assert.Len(t, f.payments(o.ID), 2)

	_, err = f.orders.RefundOrder(f.ctx, f.admin, o.ID, RefundInput{})
	assert.ErrorIs(t, err, ErrBusinessRule)
}

func TestProcessFulfillment(t *testing.T) {
	f := newFixture(t)
	p := f.product("100", nil)
	o := f.mustCheckout(uuid.New(), CheckoutInput{PaymentMethod: models.MethodCard}, LineItem{ProductID: p.ID, Quantity: 1})

	got, err := f.orders.ProcessFulfillment(f.ctx, f.admin, o.ID, FulfillmentInput{TrackingNumber: "TRK-9", Carrier: "DHL"})
	require.NoError(t, err)
	assert.Equal(t, models.OrderShipped, got.Status)
	assert.Equal(t, models.Fulfilled, got.FulfillmentStatus)

	stored := f.reload(o.ID)
	assert.Equal(t, "TRK-9", stored.TrackingNumber)
	assert.Equal(t, "DHL", stored.Carrier)
	require.NotNil(t, stored.ShippedAt)
	assert.True(t, stored.ShippedAt.Equal(f.now))

	_, err = f.orders.CancelOrder(f.ctx, f.admin, o.ID, "")
	require.NoError(t, err)
	_, err = f.orders.ProcessFulfillment(f.ctx, f.admin, o.ID, FulfillmentInput{TrackingNumber: "late"})
	assert.ErrorIs(t, err, ErrBusinessRule)
}
