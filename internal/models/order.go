package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
	OrderRefunded   OrderStatus = "refunded"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderCompleted, OrderCancelled, OrderRefunded:
		return true
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled || s == OrderRefunded
}

// OpenOrderStatuses are the states cancellation and fulfillment may start from.
var OpenOrderStatuses = []OrderStatus{OrderPending, OrderProcessing, OrderShipped}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

type FulfillmentStatus string

const (
	Unfulfilled FulfillmentStatus = "unfulfilled"
	Fulfilled   FulfillmentStatus = "fulfilled"
)

type PaymentMethod string

const (
	MethodCredits     PaymentMethod = "credits"
	MethodMobileMoney PaymentMethod = "mobile_money"
	MethodCard        PaymentMethod = "card"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCredits, MethodMobileMoney, MethodCard:
		return true
	}
	return false
}

type Order struct {
	ID          uuid.UUID `gorm:"primaryKey"                 json:"id"`
	OrderNumber string    `gorm:"size:40;uniqueIndex;not null" json:"order_number"`
	UserID      uuid.UUID `gorm:"index;not null"             json:"user_id"`
	StoreID     uuid.UUID `gorm:"index;not null"             json:"store_id"`

	Subtotal     decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"subtotal"`
	Tax          decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"tax"`
	Shipping     decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"shipping"`
	Discount     decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"discount"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total_amount"`
	PlatformFee  decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"platform_fee"`
	CreditAmount decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"credit_amount"`
	Currency     string          `gorm:"size:3;not null"            json:"currency"`

	Status            OrderStatus       `gorm:"size:20;not null;index" json:"status"`
	PaymentStatus     PaymentStatus     `gorm:"size:20;not null;index" json:"payment_status"`
	FulfillmentStatus FulfillmentStatus `gorm:"size:20;not null"       json:"fulfillment_status"`
	PaymentMethod     PaymentMethod     `gorm:"size:20;not null"       json:"payment_method"`
	PaymentReference  string            `gorm:"size:120"               json:"payment_reference,omitempty"`

	ShippingAddress string `gorm:"type:text" json:"shipping_address,omitempty"`
	ShippingMethod  string `gorm:"size:60"   json:"shipping_method,omitempty"`
	TrackingNumber  string `gorm:"size:120"  json:"tracking_number,omitempty"`
	Carrier         string `gorm:"size:60"   json:"carrier,omitempty"`

	Notes              string `gorm:"type:text" json:"notes,omitempty"`
	AdminNotes         string `gorm:"type:text" json:"admin_notes,omitempty"`
	CancellationReason string `gorm:"type:text" json:"cancellation_reason,omitempty"`

	PromotionID   *uuid.UUID `gorm:"index"   json:"promotion_id,omitempty"`
	PromotionCode string     `gorm:"size:64" json:"promotion_code,omitempty"`

	RefundAmount *decimal.Decimal `gorm:"type:decimal(14,2)" json:"refund_amount,omitempty"`
	RefundReason string           `gorm:"type:text"          json:"refund_reason,omitempty"`

	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`
	ShippedAt       *time.Time `json:"shipped_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	ClearedAt       *time.Time `json:"cleared_at,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	RefundedAt      *time.Time `json:"refunded_at,omitempty"`
	StockRestoredAt *time.Time `json:"stock_restored_at,omitempty"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (Order) TableName() string {
	return "orders"
}

// Gross is what the order was worth before credits were applied.
func (o *Order) Gross() decimal.Decimal {
	return o.TotalAmount.Add(o.CreditAmount)
}

// OrderItem keeps a snapshot of the product so history survives catalog edits.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"primaryKey"                  json:"id"`
	OrderID     uuid.UUID       `gorm:"index;not null"              json:"order_id"`
	ProductID   uuid.UUID       `gorm:"index;not null"              json:"product_id"`
	ProductName string          `gorm:"size:255;not null"           json:"product_name"`
	Quantity    int             `gorm:"not null;check:quantity>0"   json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"unit_price"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"subtotal"`
	Total       decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total_amount"`
	Options     string          `gorm:"type:text"                   json:"options,omitempty"`
	CreatedAt   time.Time       `                                   json:"created_at"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (OrderItem) TableName() string {
	return "order_items"
}
