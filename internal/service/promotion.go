package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tesotunes/storefront/internal/models"
	"github.com/tesotunes/storefront/internal/repo"
	"gorm.io/gorm"
)

var (
	hundred    = decimal.NewFromInt(100)
	codeFormat = regexp.MustCompile(`^[A-Z0-9_-]{3,64}$`)
)

type PromotionService struct {
	Repo *repo.GormRepo
	Now  func() time.Time
}

func (s *PromotionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// check returns nil when the promotion may be applied, or an ErrBusinessRule
// naming the first failed condition.
func (s *PromotionService) check(ctx context.Context, r *repo.GormRepo, p *models.Promotion, userID uuid.UUID, orderAmount decimal.Decimal) error {
	now := s.now()
	switch {
	case p.Status != models.PromotionActive:
		return fmt.Errorf("%w: promotion is not active", ErrBusinessRule)
	case p.StartsAt != nil && now.Before(*p.StartsAt):
		return fmt.Errorf("%w: promotion has not started", ErrBusinessRule)
	case p.EndsAt != nil && now.After(*p.EndsAt):
		return fmt.Errorf("%w: promotion has expired", ErrBusinessRule)
	case p.MinimumPurchase != nil && orderAmount.LessThan(*p.MinimumPurchase):
		return fmt.Errorf("%w: order amount below minimum purchase of %s", ErrBusinessRule, p.MinimumPurchase.StringFixed(2))
	case p.UsageLimitTotal != nil && p.RedemptionCount >= *p.UsageLimitTotal:
		return fmt.Errorf("%w: promotion usage limit reached", ErrBusinessRule)
	}

	if p.UsageLimitPerUser != nil {
		used, err := r.CountUserRedemptions(ctx, p.ID, userID)
		if err != nil {
			return err
		}
		if used >= int64(*p.UsageLimitPerUser) {
			return fmt.Errorf("%w: promotion already used", ErrBusinessRule)
		}
	}
	return nil
}

// ValidatePromotion reports whether userID may apply p to an order of orderAmount.
func (s *PromotionService) ValidatePromotion(ctx context.Context, p *models.Promotion, userID uuid.UUID, orderAmount decimal.Decimal) (bool, error) {
	err := s.check(ctx, s.Repo, p, userID, orderAmount)
	if errors.Is(err, ErrBusinessRule) {
		return false, nil
	}
	return err == nil, err
}

// CalculateDiscount prices percentage and fixed promotions. Line and shipping
// based types are priced by discountFor.
func CalculateDiscount(p *models.Promotion, orderAmount decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch p.DiscountType {
	case models.DiscountPercentage:
		d = orderAmount.Mul(p.DiscountValue).Div(hundred)
	case models.DiscountFixed:
		d = p.DiscountValue
	default:
		return decimal.Zero
	}
	return clampDiscount(p, d, orderAmount)
}

func clampDiscount(p *models.Promotion, d, ceiling decimal.Decimal) decimal.Decimal {
	if p.MaximumDiscount != nil && d.GreaterThan(*p.MaximumDiscount) {
		d = *p.MaximumDiscount
	}
	if d.GreaterThan(ceiling) {
		d = ceiling
	}
	if d.IsNegative() {
		d = decimal.Zero
	}
	return d.Round(2)
}

type pricedLine struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

func discountFor(p *models.Promotion, lines []pricedLine, subtotal, shipping decimal.Decimal) decimal.Decimal {
	switch p.DiscountType {
	case models.DiscountBOGO:
		free := decimal.Zero
		for _, l := range lines {
			free = free.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity / 2))))
		}
		return clampDiscount(p, free, subtotal)
	case models.DiscountFreeShipping:
		return clampDiscount(p, shipping, shipping)
	default:
		return CalculateDiscount(p, subtotal)
	}
}

// RedeemPromotion records a use of p. It must run inside the order's
// transaction so the counter and the redemption row commit together.
func (s *PromotionService) RedeemPromotion(ctx context.Context, tx *repo.GormRepo, p *models.Promotion, userID, orderID uuid.UUID, amount decimal.Decimal) error {
	ok, err := tx.IncrementRedemptions(ctx, p.ID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: promotion usage limit reached", ErrConflict)
	}
	return tx.CreateRedemption(ctx, &models.PromotionRedemption{
		PromotionID:    p.ID,
		UserID:         userID,
		OrderID:        orderID,
		DiscountAmount: amount,
	})
}

func (s *PromotionService) FindByCode(ctx context.Context, code string) (*models.Promotion, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: code required", ErrValidation)
	}
	p, err := s.Repo.GetPromotionByCode(ctx, code)
	if err != nil {
		return nil, notFound(err, "promotion")
	}
	return p, nil
}

type PromotionPreview struct {
	Code     string          `json:"code"`
	Valid    bool            `json:"valid"`
	Reason   string          `json:"reason,omitempty"`
	Discount decimal.Decimal `json:"discount"`
	Note     string          `json:"note,omitempty"`
}

// Preview answers "what would this code take off an order of amount" without
// redeeming anything. Free shipping is priced from shipping; bogo depends on
// the cart lines and is only priced at checkout.
func (s *PromotionService) Preview(ctx context.Context, userID uuid.UUID, code string, amount, shipping decimal.Decimal) (*PromotionPreview, error) {
	if amount.IsNegative() || shipping.IsNegative() {
		return nil, fmt.Errorf("%w: amount and shipping must be >= 0", ErrValidation)
	}
	p, err := s.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	out := &PromotionPreview{Code: p.Code, Discount: decimal.Zero}
	if err := s.check(ctx, s.Repo, p, userID, amount); err != nil {
		if !errors.Is(err, ErrBusinessRule) {
			return nil, err
		}
		out.Reason = strings.TrimPrefix(err.Error(), ErrBusinessRule.Error()+": ")
		return out, nil
	}
	out.Valid = true
	switch p.DiscountType {
	case models.DiscountBOGO:
		out.Note = "buy one get one free is applied per cart line at checkout"
	default:
		out.Discount = discountFor(p, nil, amount, shipping)
	}
	return out, nil
}

type PromotionInput struct {
	Code              string
	Name              string
	Description       string
	StoreID           *uuid.UUID
	DiscountType      models.DiscountType
	DiscountValue     decimal.Decimal
	MinimumPurchase   *decimal.Decimal
	MaximumDiscount   *decimal.Decimal
	StartsAt          *time.Time
	EndsAt            *time.Time
	UsageLimitTotal   *int
	UsageLimitPerUser *int
}

func (in PromotionInput) validate() error {
	switch {
	case !codeFormat.MatchString(in.Code):
		return fmt.Errorf("%w: code must be 3-64 characters of A-Z, 0-9, _ or -", ErrValidation)
	case strings.TrimSpace(in.Name) == "":
		return fmt.Errorf("%w: name required", ErrValidation)
	case !in.DiscountType.Valid():
		return fmt.Errorf("%w: unknown discount_type %q", ErrValidation, in.DiscountType)
	case in.DiscountValue.IsNegative():
		return fmt.Errorf("%w: discount_value must be >= 0", ErrValidation)
	case (in.DiscountType == models.DiscountPercentage || in.DiscountType == models.DiscountFixed) && !in.DiscountValue.IsPositive():
		return fmt.Errorf("%w: discount_value must be > 0", ErrValidation)
	case in.DiscountType == models.DiscountPercentage && in.DiscountValue.GreaterThan(hundred):
		return fmt.Errorf("%w: percentage cannot exceed 100", ErrValidation)
	case in.MinimumPurchase != nil && in.MinimumPurchase.IsNegative():
		return fmt.Errorf("%w: minimum_purchase must be >= 0", ErrValidation)
	case in.MaximumDiscount != nil && !in.MaximumDiscount.IsPositive():
		return fmt.Errorf("%w: maximum_discount must be > 0", ErrValidation)
	case in.StartsAt != nil && in.EndsAt != nil && !in.EndsAt.After(*in.StartsAt):
		return fmt.Errorf("%w: ends_at must be after starts_at", ErrValidation)
	case in.UsageLimitTotal != nil && *in.UsageLimitTotal <= 0:
		return fmt.Errorf("%w: usage_limit_total must be > 0", ErrValidation)
	case in.UsageLimitPerUser != nil && *in.UsageLimitPerUser <= 0:
		return fmt.Errorf("%w: usage_limit_per_user must be > 0", ErrValidation)
	}
	return nil
}

// CreatePromotion stores a new promotion. Admin promotions go live at once;
// store owners' promotions wait for approval and must target their own store.
func (s *PromotionService) CreatePromotion(ctx context.Context, actor Actor, in PromotionInput) (*models.Promotion, error) {
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	if err := in.validate(); err != nil {
		return nil, err
	}

	if !actor.IsAdmin() {
		if in.StoreID == nil {
			return nil, fmt.Errorf("%w: store_id required", ErrValidation)
		}
		store, err := s.Repo.GetStore(ctx, *in.StoreID)
		if err != nil {
			return nil, notFound(err, "store")
		}
		if store.OwnerID != actor.ID {
			return nil, fmt.Errorf("%w: not the owner of this store", ErrForbidden)
		}
	}

	if _, err := s.Repo.GetPromotionByCode(ctx, in.Code); err == nil {
		return nil, fmt.Errorf("%w: code %s already exists", ErrConflict, in.Code)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	p := &models.Promotion{
		Code:              in.Code,
		Name:              cleanText(in.Name),
		Description:       cleanText(in.Description),
		StoreID:           in.StoreID,
		DiscountType:      in.DiscountType,
		DiscountValue:     in.DiscountValue,
		MinimumPurchase:   in.MinimumPurchase,
		MaximumDiscount:   in.MaximumDiscount,
		StartsAt:          in.StartsAt,
		EndsAt:            in.EndsAt,
		UsageLimitTotal:   in.UsageLimitTotal,
		UsageLimitPerUser: in.UsageLimitPerUser,
		Status:            models.PromotionPending,
		CreatedBy:         actor.ID,
	}
	if actor.IsAdmin() {
		now := s.now()
		p.Status = models.PromotionActive
		p.ApprovedBy = actor.ref()
		p.ApprovedAt = &now
	}

	if err := s.Repo.CreatePromotion(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PromotionService) transition(ctx context.Context, id uuid.UUID, from []models.PromotionStatus, updates map[string]any) (*models.Promotion, error) {
	n, err := s.Repo.UpdatePromotionStatus(ctx, id, from, updates)
	if err != nil {
		return nil, err
	}
	p, err := s.Repo.GetPromotion(ctx, id)
	if err != nil {
		return nil, notFound(err, "promotion")
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: promotion is %s", ErrBusinessRule, p.Status)
	}
	return p, nil
}

func requireAdmin(actor Actor) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: only admins review promotions", ErrForbidden)
	}
	return nil
}

func (s *PromotionService) ApprovePromotion(ctx context.Context, actor Actor, id uuid.UUID) (*models.Promotion, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.transition(ctx, id,
		[]models.PromotionStatus{models.PromotionPending, models.PromotionInactive},
		map[string]any{
			"status":           models.PromotionActive,
			"approved_by":      actor.ID,
			"approved_at":      s.now(),
			"rejection_reason": "",
		})
}

func (s *PromotionService) RejectPromotion(ctx context.Context, actor Actor, id uuid.UUID, reason string) (*models.Promotion, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	reason = cleanText(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: reason required", ErrValidation)
	}
	return s.transition(ctx, id,
		[]models.PromotionStatus{models.PromotionPending},
		map[string]any{"status": models.PromotionRejected, "rejection_reason": reason})
}

// DeactivatePromotion is open to admins and to the owner of a store-scoped promotion.
func (s *PromotionService) DeactivatePromotion(ctx context.Context, actor Actor, id uuid.UUID) (*models.Promotion, error) {
	if !actor.IsAdmin() {
		p, err := s.Repo.GetPromotion(ctx, id)
		if err != nil {
			return nil, notFound(err, "promotion")
		}
		if p.StoreID == nil {
			return nil, fmt.Errorf("%w: platform promotions are managed by admins", ErrForbidden)
		}
		if err := authorizeStore(ctx, s.Repo, actor, *p.StoreID); err != nil {
			return nil, err
		}
	}
	return s.transition(ctx, id,
		[]models.PromotionStatus{models.PromotionActive},
		map[string]any{"status": models.PromotionInactive})
}
