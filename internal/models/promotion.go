package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DiscountType string

const (
	DiscountPercentage   DiscountType = "percentage"
	DiscountFixed        DiscountType = "fixed"
	DiscountBOGO         DiscountType = "bogo"
	DiscountFreeShipping DiscountType = "free_shipping"
)

func (t DiscountType) Valid() bool {
	switch t {
	case DiscountPercentage, DiscountFixed, DiscountBOGO, DiscountFreeShipping:
		return true
	}
	return false
}

type PromotionStatus string

const (
	PromotionPending  PromotionStatus = "pending"
	PromotionActive   PromotionStatus = "active"
	PromotionInactive PromotionStatus = "inactive"
	PromotionRejected PromotionStatus = "rejected"
)

type Promotion struct {
	ID          uuid.UUID  `gorm:"primaryKey"                    json:"id"`
	Code        string     `gorm:"size:64;uniqueIndex;not null"  json:"code"`
	Name        string     `gorm:"size:255;not null"             json:"name"`
	Description string     `gorm:"type:text"                     json:"description,omitempty"`
	StoreID     *uuid.UUID `gorm:"index"                         json:"store_id,omitempty"`

	DiscountType    DiscountType     `gorm:"size:20;not null"            json:"discount_type"`
	DiscountValue   decimal.Decimal  `gorm:"type:decimal(14,2);not null" json:"discount_value"`
	MinimumPurchase *decimal.Decimal `gorm:"type:decimal(14,2)"          json:"minimum_purchase,omitempty"`
	MaximumDiscount *decimal.Decimal `gorm:"type:decimal(14,2)"          json:"maximum_discount,omitempty"`

	StartsAt *time.Time `json:"starts_at,omitempty"`
	EndsAt   *time.Time `json:"ends_at,omitempty"`

	UsageLimitTotal   *int `json:"usage_limit_total,omitempty"`
	UsageLimitPerUser *int `json:"usage_limit_per_user,omitempty"`
	RedemptionCount   int  `gorm:"not null" json:"redemption_count"`

	Status          PromotionStatus `gorm:"size:20;not null;index" json:"status"`
	CreatedBy       uuid.UUID       `gorm:"not null"               json:"created_by"`
	ApprovedBy      *uuid.UUID      `                              json:"approved_by,omitempty"`
	ApprovedAt      *time.Time      `                              json:"approved_at,omitempty"`
	RejectionReason string          `gorm:"type:text"              json:"rejection_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Promotion) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (Promotion) TableName() string {
	return "promotions"
}

// AppliesToStore is true for platform-wide promotions and for the owning store.
func (p *Promotion) AppliesToStore(storeID uuid.UUID) bool {
	return p.StoreID == nil || *p.StoreID == storeID
}

type PromotionRedemption struct {
	ID             uuid.UUID       `gorm:"primaryKey"                         json:"id"`
	PromotionID    uuid.UUID       `gorm:"index:idx_redemption_user;not null" json:"promotion_id"`
	UserID         uuid.UUID       `gorm:"index:idx_redemption_user;not null" json:"user_id"`
	OrderID        uuid.UUID       `gorm:"index;not null"                     json:"order_id"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(14,2);not null"        json:"discount_amount"`
	CreatedAt      time.Time       `                                          json:"created_at"`
}

func (r *PromotionRedemption) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (PromotionRedemption) TableName() string {
	return "promotion_redemptions"
}
