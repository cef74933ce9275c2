package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/tesotunes/storefront/internal/models"
)

func (r *GormRepo) CreatePayment(ctx context.Context, p *models.Payment) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *GormRepo) ListPayments(ctx context.Context, payable models.Payable) ([]models.Payment, error) {
	var out []models.Payment
	err := r.DB.WithContext(ctx).
		Where("payable_kind = ? AND payable_id = ?", payable.Kind, payable.RefID).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

// SetPaymentReference fills in the provider reference of a row written earlier
// in the same transaction.
func (r *GormRepo) SetPaymentReference(ctx context.Context, id uuid.UUID, provider, transactionID string) error {
	return r.DB.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ?", id).
		Updates(map[string]any{"provider": provider, "transaction_id": transactionID}).Error
}
