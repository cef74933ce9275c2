package repo

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/tesotunes/storefront/internal/models"
	"gorm.io/gorm"
)

func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *GormRepo) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	if err := r.DB.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) GetProductsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var products []models.Product
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

func (r *GormRepo) UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Product, error) {
	res := r.DB.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetProduct(ctx, id)
}

func (r *GormRepo) ListProducts(ctx context.Context, storeID *uuid.UUID, status models.ProductStatus, limit, offset int) ([]models.Product, int64, error) {
	q := r.DB.WithContext(ctx).Model(&models.Product{})
	if storeID != nil {
		q = q.Where("store_id = ?", *storeID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// DecrementStock takes qty units from a tracked product only if enough remain.
// It reports false when the guard fails, leaving the row untouched.
func (r *GormRepo) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	db := r.DB.WithContext(ctx)
	res := db.Model(&models.Product{}).
		Where("id = ? AND track_inventory = ? AND stock_quantity IS NOT NULL AND stock_quantity >= ?", id, true, qty).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	if err := db.Model(&models.Product{}).
		Where("id = ? AND stock_quantity <= 0 AND status = ?", id, models.ProductActive).
		Updates(map[string]any{"stock_quantity": 0, "status": models.ProductOutOfStock}).Error; err != nil {
		return false, err
	}
	return true, nil
}

// RestoreStock returns qty units to a tracked product and reopens it for sale
// if it had sold out.
func (r *GormRepo) RestoreStock(ctx context.Context, id uuid.UUID, qty int) error {
	db := r.DB.WithContext(ctx)
	res := db.Model(&models.Product{}).
		Where("id = ? AND track_inventory = ? AND stock_quantity IS NOT NULL", id, true).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return nil
	}
	return db.Model(&models.Product{}).
		Where("id = ? AND status = ? AND stock_quantity > 0", id, models.ProductOutOfStock).
		Update("status", models.ProductActive).Error
}

// SearchProducts is the database fallback when no search index is configured.
func (r *GormRepo) SearchProducts(ctx context.Context, q string, limit, offset int) ([]models.Product, int64, error) {
	like := "%" + strings.ToLower(q) + "%"
	query := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("status = ?", models.ProductActive).
		Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var products []models.Product
	if err := query.Order("name ASC").Limit(limit).Offset(offset).Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}
