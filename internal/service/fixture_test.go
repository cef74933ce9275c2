package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tesotunes/storefront/internal/models"
	"github.com/tesotunes/storefront/internal/payment"
	"github.com/tesotunes/storefront/internal/repo"
	"github.com/tesotunes/storefront/internal/session"
	"github.com/tesotunes/storefront/internal/testutil"
	"github.com/tesotunes/storefront/pkg/tokens"
	"gorm.io/gorm"
)

type fakeGateway struct {
	mu    sync.Mutex
	calls []payment.RefundRequest
	err   error
}

func (g *fakeGateway) Refund(_ context.Context, req payment.RefundRequest) (payment.RefundResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, req)
	if g.err != nil {
		return payment.RefundResult{}, g.err
	}
	return payment.RefundResult{Provider: "fake", TransactionID: "re_fake"}, nil
}

type fixture struct {
	t      *testing.T
	ctx    context.Context
	db     *gorm.DB
	repo   *repo.GormRepo
	orders *OrderService
	promos *PromotionService
	cart   *CartService
	gw     *fakeGateway
	store  *models.Store
	admin  Actor
	owner  Actor
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb := testutil.NewDB(t)
	r := repo.New(gdb)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	ownerID := uuid.New()
	promos := &PromotionService{Repo: r, Now: clock}
	gw := &fakeGateway{}
	f := &fixture{
		t:      t,
		ctx:    context.Background(),
		db:     gdb,
		repo:   r,
		promos: promos,
		gw:     gw,
		orders: &OrderService{
			Repo:       r,
			Promotions: promos,
			Payments:   gw,
			TaxRate:    decimal.Zero,
			Currency:   "UGX",
			Now:        clock,
		},
		cart:  &CartService{Repo: r, Sessions: session.NewMemoryStore(), Now: clock},
		store: testutil.SeedStore(t, gdb, ownerID),
		admin: Actor{ID: uuid.New(), Role: tokens.RoleAdmin},
		owner: Actor{ID: ownerID, Role: tokens.RoleStoreOwner},
		now:   now,
	}
	return f
}

func (f *fixture) product(price string, stock *int) *models.Product {
	return testutil.SeedProduct(f.t, f.db, f.store.ID, price, stock)
}

func (f *fixture) user(balance string) *models.User {
	return testutil.SeedUser(f.t, f.db, balance)
}

func (f *fixture) checkout(userID uuid.UUID, in CheckoutInput, lines ...LineItem) (*models.Order, error) {
	return f.orders.CreateFromCart(f.ctx, userID, lines, in)
}

func (f *fixture) mustCheckout(userID uuid.UUID, in CheckoutInput, lines ...LineItem) *models.Order {
	f.t.Helper()
	o, err := f.checkout(userID, in, lines...)
	require.NoError(f.t, err)
	return o
}

// paidCardOrder checks out one line by card and confirms the payment.
func (f *fixture) paidCardOrder(userID uuid.UUID, p *models.Product, qty int) *models.Order {
	f.t.Helper()
	o := f.mustCheckout(userID, CheckoutInput{PaymentMethod: models.MethodCard}, LineItem{ProductID: p.ID, Quantity: qty})
	o, err := f.orders.ConfirmPayment(f.ctx, f.admin, o.ID, "pi_"+o.ID.String()[:8])
	require.NoError(f.t, err)
	return o
}

func (f *fixture) reload(id uuid.UUID) *models.Order {
	f.t.Helper()
	o, err := f.repo.GetOrder(f.ctx, id)
	require.NoError(f.t, err)
	return o
}

func (f *fixture) count(model any) int64 {
	f.t.Helper()
	var n int64
	require.NoError(f.t, f.db.Model(model).Count(&n).Error)
	return n
}

func (f *fixture) payments(orderID uuid.UUID) []models.Payment {
	f.t.Helper()
	rows, err := f.repo.ListPayments(f.ctx, models.OrderPayable(orderID))
	require.NoError(f.t, err)
	return rows
}

func (f *fixture) stock(id uuid.UUID) int {
	f.t.Helper()
	return *testutil.ReloadProduct(f.t, f.db, id).StockQuantity
}

var errGatewayDown = errors.New("gateway down")

func money(s string) decimal.Decimal {
	return testutil.Money(s)
}

func moneyEq(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, money(want).Equal(got), "want %s, got %s", want, got.String())
}
