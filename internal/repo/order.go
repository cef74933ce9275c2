package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tesotunes/storefront/internal/models"
	"gorm.io/gorm"
)

type OrderFilter struct {
	UserID  *uuid.UUID
	StoreID *uuid.UUID
	Status  models.OrderStatus
}

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.DB.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, f OrderFilter, limit, offset int) ([]models.Order, int64, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{})
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.StoreID != nil {
		q = q.Where("store_id = ?", *f.StoreID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	if err := q.Preload("Items").Order("created_at DESC").Limit(limit).Offset(offset).Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// TransitionOrder applies updates only while the order is still in one of
// the from states (any state when from is empty). The affected row count is
// the caller's proof that it won the transition.
func (r *GormRepo) TransitionOrder(ctx context.Context, id uuid.UUID, from []models.OrderStatus, updates map[string]any) (int64, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id)
	if len(from) > 0 {
		q = q.Where("status IN ?", from)
	}
	res := q.Updates(updates)
	return res.RowsAffected, res.Error
}

// SettleOrder moves payment_status from -> to, guarded on the current value.
func (r *GormRepo) SettleOrder(ctx context.Context, id uuid.UUID, from models.PaymentStatus, updates map[string]any) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", id, from).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// MarkStockRestored stamps stock_restored_at once. A false result means the
// order's stock was already put back and must not be restored again.
func (r *GormRepo) MarkStockRestored(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND stock_restored_at IS NULL", id).
		Update("stock_restored_at", at)
	return res.RowsAffected == 1, res.Error
}

// AppendAdminNote adds a line to the running admin log without reading it first.
func (r *GormRepo) AppendAdminNote(ctx context.Context, id uuid.UUID, line string) error {
	return r.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).
		Update("admin_notes", gorm.Expr("COALESCE(admin_notes, '') || ?", line)).Error
}
