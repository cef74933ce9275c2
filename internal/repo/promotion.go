package repo

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/tesotunes/storefront/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *GormRepo) CreatePromotion(ctx context.Context, p *models.Promotion) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *GormRepo) GetPromotion(ctx context.Context, id uuid.UUID) (*models.Promotion, error) {
	var p models.Promotion
	if err := r.DB.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) GetPromotionByCode(ctx context.Context, code string) (*models.Promotion, error) {
	var p models.Promotion
	err := r.DB.WithContext(ctx).First(&p, "code = ?", strings.ToUpper(strings.TrimSpace(code))).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// LockPromotionByCode reads the promotion FOR UPDATE so concurrent checkouts
// with the same code check the per-user limit one at a time.
func (r *GormRepo) LockPromotionByCode(ctx context.Context, code string) (*models.Promotion, error) {
	var p models.Promotion
	err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&p, "code = ?", strings.ToUpper(strings.TrimSpace(code))).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) UpdatePromotionStatus(ctx context.Context, id uuid.UUID, from []models.PromotionStatus, updates map[string]any) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&models.Promotion{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *GormRepo) CountUserRedemptions(ctx context.Context, promotionID, userID uuid.UUID) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.PromotionRedemption{}).
		Where("promotion_id = ? AND user_id = ?", promotionID, userID).
		Count(&n).Error
	return n, err
}

// IncrementRedemptions bumps the counter unless the total cap is already reached.
func (r *GormRepo) IncrementRedemptions(ctx context.Context, promotionID uuid.UUID) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Promotion{}).
		Where("id = ? AND (usage_limit_total IS NULL OR redemption_count < usage_limit_total)", promotionID).
		Update("redemption_count", gorm.Expr("redemption_count + 1"))
	return res.RowsAffected == 1, res.Error
}

func (r *GormRepo) CreateRedemption(ctx context.Context, red *models.PromotionRedemption) error {
	return r.DB.WithContext(ctx).Create(red).Error
}
