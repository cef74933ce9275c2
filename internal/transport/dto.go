package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tesotunes/storefront/pkg/util"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type Page struct {
	Items any           `json:"items"`
	Meta  util.PageMeta `json:"meta"`
}

type AddCartItemRequest struct {
	ProductID uuid.UUID      `json:"product_id" validate:"required"`
	Quantity  int            `json:"quantity"   validate:"required,gt=0,lte=1000"`
	Options   map[string]any `json:"options"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"lte=1000"`
}

type CheckoutRequest struct {
	PaymentMethod   string          `json:"payment_method"   validate:"omitempty,oneof=credits mobile_money card"`
	UseCredits      bool            `json:"use_credits"`
	PromotionCode   string          `json:"promotion_code"   validate:"omitempty,max=64"`
	Shipping        decimal.Decimal `json:"shipping"`
	ShippingAddress string          `json:"shipping_address" validate:"max=2000"`
	ShippingMethod  string          `json:"shipping_method"  validate:"max=64"`
	Notes           string          `json:"notes"            validate:"max=2000"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending processing shipped completed cancelled refunded"`
	Notes  string `json:"notes"  validate:"max=2000"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason" validate:"max=2000"`
}

type FulfillOrderRequest struct {
	TrackingNumber string `json:"tracking_number" validate:"required,max=128"`
	Carrier        string `json:"carrier"         validate:"max=64"`
	ShippingMethod string `json:"shipping_method" validate:"max=64"`
	Notes          string `json:"notes"           validate:"max=2000"`
}

type RefundOrderRequest struct {
	Amount *decimal.Decimal `json:"amount"`
	Reason string           `json:"reason" validate:"max=2000"`
}

type ConfirmPaymentRequest struct {
	TransactionID string `json:"transaction_id" validate:"required,max=128"`
}

type ValidatePromotionRequest struct {
	Code     string          `json:"code"     validate:"required,max=64"`
	Amount   decimal.Decimal `json:"amount"`
	Shipping decimal.Decimal `json:"shipping"`
}

type CreatePromotionRequest struct {
	Code              string           `json:"code"                 validate:"required,max=64"`
	Name              string           `json:"name"                 validate:"required,max=255"`
	Description       string           `json:"description"          validate:"max=2000"`
	StoreID           *uuid.UUID       `json:"store_id"`
	DiscountType      string           `json:"discount_type"        validate:"required,oneof=percentage fixed bogo free_shipping"`
	DiscountValue     decimal.Decimal  `json:"discount_value"`
	MinimumPurchase   *decimal.Decimal `json:"minimum_purchase"`
	MaximumDiscount   *decimal.Decimal `json:"maximum_discount"`
	StartsAt          *time.Time       `json:"starts_at"`
	EndsAt            *time.Time       `json:"ends_at"`
	UsageLimitTotal   *int             `json:"usage_limit_total"    validate:"omitempty,gt=0"`
	UsageLimitPerUser *int             `json:"usage_limit_per_user" validate:"omitempty,gt=0"`
}

type RejectPromotionRequest struct {
	Reason string `json:"reason" validate:"required,max=2000"`
}

type CreateProductRequest struct {
	StoreID        uuid.UUID       `json:"store_id"        validate:"required"`
	Name           string          `json:"name"            validate:"required,max=255"`
	Description    string          `json:"description"     validate:"max=2000"`
	Price          decimal.Decimal `json:"price"`
	StockQuantity  *int            `json:"stock_quantity"  validate:"omitempty,gte=0"`
	TrackInventory *bool           `json:"track_inventory"`
	Status         string          `json:"status"          validate:"omitempty,oneof=draft active archived out_of_stock"`
}

type PatchProductRequest struct {
	Name           *string          `json:"name"            validate:"omitempty,max=255"`
	Description    *string          `json:"description"     validate:"omitempty,max=2000"`
	Price          *decimal.Decimal `json:"price"`
	StockQuantity  *int             `json:"stock_quantity"  validate:"omitempty,gte=0"`
	Unlimited      bool             `json:"unlimited"`
	TrackInventory *bool            `json:"track_inventory"`
	Status         *string          `json:"status"          validate:"omitempty,oneof=draft active archived out_of_stock"`
}
