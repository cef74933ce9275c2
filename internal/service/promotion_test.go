package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tesotunes/storefront/internal/models"
	"github.com/tesotunes/storefront/internal/testutil"
)

func TestCalculateDiscount(t *testing.T) {
	pct := &models.Promotion{DiscountType: models.DiscountPercentage, DiscountValue: money("10")}
	moneyEq(t, "5000", CalculateDiscount(pct, money("50000")))
	moneyEq(t, "5000", CalculateDiscount(pct, money("50000")))

	capped := money("300")
	pct.MaximumDiscount = &capped
	moneyEq(t, "300", CalculateDiscount(pct, money("50000")))

	fixed := &models.Promotion{DiscountType: models.DiscountFixed, DiscountValue: money("2000")}
	moneyEq(t, "2000", CalculateDiscount(fixed, money("5000")))
	moneyEq(t, "1500", CalculateDiscount(fixed, money("1500")))

	third := &models.Promotion{DiscountType: models.DiscountPercentage, DiscountValue: money("33.3333")}
	moneyEq(t, "33.33", CalculateDiscount(third, money("100")))

	half := &models.Promotion{DiscountType: models.DiscountPercentage, DiscountValue: money("50")}
	moneyEq(t, "0.13", CalculateDiscount(half, money("0.25")))

	bogo := &models.Promotion{DiscountType: models.DiscountBOGO}
	moneyEq(t, "0", CalculateDiscount(bogo, money("100")))
}

func TestValidatePromotion(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()
	past := f.now.Add(-time.Hour)
	future := f.now.Add(time.Hour)
	minimum := money("1000")

	cases := []struct {
		name  string
		promo models.Promotion
		want  bool
	}{
		{"active", models.Promotion{Status: models.PromotionActive}, true},
		{"pending", models.Promotion{Status: models.PromotionPending}, false},
		{"not started", models.Promotion{Status: models.PromotionActive, StartsAt: &future}, false},
		{"expired", models.Promotion{Status: models.PromotionActive, EndsAt: &past}, false},
		{"in window", models.Promotion{Status: models.PromotionActive, StartsAt: &past, EndsAt: &future}, true},
		{"below minimum", models.Promotion{Status: models.PromotionActive, MinimumPurchase: &minimum}, false},
		{"cap reached", models.Promotion{Status: models.PromotionActive, UsageLimitTotal: testutil.IntPtr(3), RedemptionCount: 3}, false},
		{"under cap", models.Promotion{Status: models.PromotionActive, UsageLimitTotal: testutil.IntPtr(3), RedemptionCount: 2}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := tc.promo
			p.ID = uuid.New()
			ok, err := f.promos.ValidatePromotion(f.ctx, &p, user, money("500"))
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}
}

func TestValidatePromotion_PerUser(t *testing.T) {
	f := newFixture(t)
	p, err := f.promos.CreatePromotion(f.ctx, f.admin, PromotionInput{
		Code: "TWICE", Name: "twice", DiscountType: models.DiscountFixed, DiscountValue: money("1"),
		UsageLimitPerUser: testutil.IntPtr(2),
	})
	require.NoError(t, err)
	user := uuid.New()

	for i := 0; i < 2; i++ {
		ok, err := f.promos.ValidatePromotion(f.ctx, p, user, money("10"))
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, f.promos.RedeemPromotion(f.ctx, f.repo, p, user, uuid.New(), money("1")))
	}
	ok, err := f.promos.ValidatePromotion(f.ctx, p, user, money("10"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.promos.ValidatePromotion(f.ctx, p, uuid.New(), money("10"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedeemPromotion_CapIsAtomic(t *testing.T) {
	f := newFixture(t)
	p, err := f.promos.CreatePromotion(f.ctx, f.admin, PromotionInput{
		Code: "ONE", Name: "one", DiscountType: models.DiscountFixed, DiscountValue: money("1"),
		UsageLimitTotal: testutil.IntPtr(1),
	})
	require.NoError(t, err)

	require.NoError(t, f.promos.RedeemPromotion(f.ctx, f.repo, p, uuid.New(), uuid.New(), money("1")))
	err = f.promos.RedeemPromotion(f.ctx, f.repo, p, uuid.New(), uuid.New(), money("1"))
	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, int64(1), f.count(&models.PromotionRedemption{}))
}

func TestCreatePromotion_Roles(t *testing.T) {
	f := newFixture(t)

	admin, err := f.promos.CreatePromotion(f.ctx, f.admin, PromotionInput{
		Code: " summer-10 ", Name: "Summer", DiscountType: models.DiscountPercentage, DiscountValue: money("10"),
	})
	require.NoError(t, err)
	assert.Equal(t, "SUMMER-10", admin.Code)
	assert.Equal(t, models.PromotionActive, admin.Status)
	require.NotNil(t, admin.ApprovedBy)

	owned, err := f.promos.CreatePromotion(f.ctx, f.owner, PromotionInput{
		Code: "SHOP5", Name: "Shop", StoreID: &f.store.ID, DiscountType: models.DiscountFixed, DiscountValue: money("5"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.PromotionPending, owned.Status)

	stranger := Actor{ID: uuid.New(), Role: f.owner.Role}
	_, err = f.promos.CreatePromotion(f.ctx, stranger, PromotionInput{
		Code: "STEAL", Name: "x", StoreID: &f.store.ID, DiscountType: models.DiscountFixed, DiscountValue: money("5"),
	})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.promos.CreatePromotion(f.ctx, f.admin, PromotionInput{
		Code: "summer-10", Name: "dup", DiscountType: models.DiscountFixed, DiscountValue: money("5"),
	})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCreatePromotion_Validation(t *testing.T) {
	f := newFixture(t)
	start := f.now
	end := f.now.Add(-time.Hour)
	bad := []PromotionInput{
		{Code: "x", Name: "short code", DiscountType: models.DiscountFixed, DiscountValue: money("1")},
		{Code: "NONAME", DiscountType: models.DiscountFixed, DiscountValue: money("1")},
		{Code: "BADTYPE", Name: "t", DiscountType: "cashback", DiscountValue: money("1")},
		{Code: "ZERO", Name: "t", DiscountType: models.DiscountFixed},
		{Code: "TOOMUCH", Name: "t", DiscountType: models.DiscountPercentage, DiscountValue: money("101")},
		{Code: "WINDOW", Name: "t", DiscountType: models.DiscountFixed, DiscountValue: money("1"), StartsAt: &start, EndsAt: &end},
		{Code: "LIMIT", Name: "t", DiscountType: models.DiscountFixed, DiscountValue: money("1"), UsageLimitTotal: testutil.IntPtr(0)},
	}
	for _, in := range bad {
		_, err := f.promos.CreatePromotion(f.ctx, f.admin, in)
		assert.ErrorIs(t, err, ErrValidation, in.Code)
	}
}

func TestPromotionLifecycle(t *testing.T) {
	f := newFixture(t)
	p, err := f.promos.CreatePromotion(f.ctx, f.owner, PromotionInput{
		Code: "LIFE", Name: "life", StoreID: &f.store.ID, DiscountType: models.DiscountFixed, DiscountValue: money("5"),
	})
	require.NoError(t, err)

	_, err = f.promos.DeactivatePromotion(f.ctx, f.admin, p.ID)
	assert.ErrorIs(t, err, ErrBusinessRule)
	_, err = f.promos.ApprovePromotion(f.ctx, f.owner, p.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := f.promos.ApprovePromotion(f.ctx, f.admin, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PromotionActive, got.Status)
	assert.Equal(t, f.admin.ID, *got.ApprovedBy)

	_, err = f.promos.DeactivatePromotion(f.ctx, Actor{ID: uuid.New(), Role: f.owner.Role}, p.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	got, err = f.promos.DeactivatePromotion(f.ctx, f.owner, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PromotionInactive, got.Status)

	_, err = f.promos.RejectPromotion(f.ctx, f.admin, p.ID, "late")
	assert.ErrorIs(t, err, ErrBusinessRule)

	q, err := f.promos.CreatePromotion(f.ctx, f.owner, PromotionInput{
		Code: "NOPE", Name: "nope", StoreID: &f.store.ID, DiscountType: models.DiscountFixed, DiscountValue: money("5"),
	})
	require.NoError(t, err)
	_, err = f.promos.RejectPromotion(f.ctx, f.admin, q.ID, "  ")
	assert.ErrorIs(t, err, ErrValidation)
	got, err = f.promos.RejectPromotion(f.ctx, f.admin, q.ID, "too generous")
	require.NoError(t, err)
	assert.Equal(t, models.PromotionRejected, got.Status)
	assert.Equal(t, "too generous", got.RejectionReason)

	_, err = f.promos.ApprovePromotion(f.ctx, f.admin, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPreview(t *testing.T) {
	f := newFixture(t)
	minimum := money("1000")
	_, err := f.promos.CreatePromotion(f.ctx, f.admin, PromotionInput{
		Code: "MIN", Name: "min", DiscountType: models.DiscountPercentage, DiscountValue: money("20"), MinimumPurchase: &minimum,
	})
	require.NoError(t, err)

	out, err := f.promos.Preview(f.ctx, uuid.New(), "min", money("5000"), decimal.Zero)
	require.NoError(t, err)
	assert.True(t, out.Valid)
	moneyEq(t, "1000", out.Discount)

	out, err = f.promos.Preview(f.ctx, uuid.New(), "MIN", money("10"), decimal.Zero)
	require.NoError(t, err)
	assert.False(t, out.Valid)
	assert.Contains(t, out.Reason, "minimum purchase")

	_, err = f.promos.Preview(f.ctx, uuid.New(), "GHOST", money("10"), decimal.Zero)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPreview_LineAndShippingTypes(t *testing.T) {
	f := newFixture(t)
	_, err := f.promos.CreatePromotion(f.ctx, f.admin, PromotionInput{Code: "SHIPFREE", Name: "ship", DiscountType: models.DiscountFreeShipping})
	require.NoError(t, err)
	_, err = f.promos.CreatePromotion(f.ctx, f.admin, PromotionInput{Code: "TWOFORONE", Name: "bogo", DiscountType: models.DiscountBOGO})
	require.NoError(t, err)

	out, err := f.promos.Preview(f.ctx, uuid.New(), "shipfree", money("5000"), money("3500"))
	require.NoError(t, err)
	assert.True(t, out.Valid)
	moneyEq(t, "3500", out.Discount)

	out, err = f.promos.Preview(f.ctx, uuid.New(), "twoforone", money("5000"), decimal.Zero)
	require.NoError(t, err)
	assert.True(t, out.Valid)
	assert.True(t, out.Discount.IsZero())
	assert.Contains(t, out.Note, "at checkout")

	_, err = f.promos.Preview(f.ctx, uuid.New(), "shipfree", money("5000"), money("-1"))
	assert.ErrorIs(t, err, ErrValidation)
}
