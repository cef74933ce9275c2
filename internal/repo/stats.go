package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tesotunes/storefront/internal/models"
)

type StoreStats struct {
	StoreID        uuid.UUID                    `json:"store_id"`
	ProductCount   int64                        `json:"product_count"`
	ActiveProducts int64                        `json:"active_products"`
	OrderCount     int64                        `json:"order_count"`
	OrdersByStatus map[models.OrderStatus]int64 `json:"orders_by_status"`
	Revenue        decimal.Decimal              `json:"revenue"`
	PlatformFees   decimal.Decimal              `json:"platform_fees"`
}

type statusCount struct {
	Status models.OrderStatus
	N      int64
}

type moneyRow struct {
	Revenue decimal.NullDecimal
	Fees    decimal.NullDecimal
}

func (r *GormRepo) StoreStats(ctx context.Context, storeID uuid.UUID) (*StoreStats, error) {
	db := r.DB.WithContext(ctx)
	out := &StoreStats{StoreID: storeID, OrdersByStatus: map[models.OrderStatus]int64{}}

	if err := db.Model(&models.Product{}).Where("store_id = ?", storeID).Count(&out.ProductCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Product{}).
		Where("store_id = ? AND status = ?", storeID, models.ProductActive).
		Count(&out.ActiveProducts).Error; err != nil {
		return nil, err
	}

	var counts []statusCount
	if err := db.Model(&models.Order{}).
		Select("status, COUNT(*) AS n").
		Where("store_id = ?", storeID).
		Group("status").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	for _, c := range counts {
		out.OrdersByStatus[c.Status] = c.N
		out.OrderCount += c.N
	}

	var money moneyRow
	if err := db.Model(&models.Order{}).
		Select("SUM(total_amount + credit_amount) AS revenue, SUM(platform_fee) AS fees").
		Where("store_id = ? AND payment_status = ?", storeID, models.PaymentPaid).
		Scan(&money).Error; err != nil {
		return nil, err
	}
	out.Revenue = money.Revenue.Decimal.Round(2)
	out.PlatformFees = money.Fees.Decimal.Round(2)
	return out, nil
}
