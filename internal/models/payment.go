package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PayableKind string

const (
	PayableOrder PayableKind = "order"
)

func (k PayableKind) Valid() bool {
	switch k {
	case PayableOrder:
		return true
	}
	return false
}

// Payable identifies what a ledger row settles.
type Payable struct {
	Kind  PayableKind `gorm:"column:kind;size:20;not null;index:idx_payable" json:"kind"`
	RefID uuid.UUID   `gorm:"column:id;not null;index:idx_payable"           json:"id"`
}

func OrderPayable(id uuid.UUID) Payable {
	return Payable{Kind: PayableOrder, RefID: id}
}

func (p Payable) String() string {
	return fmt.Sprintf("%s:%s", p.Kind, p.RefID)
}

type LedgerStatus string

const (
	LedgerCompleted LedgerStatus = "completed"
	LedgerPending   LedgerStatus = "pending"
	LedgerFailed    LedgerStatus = "failed"
)

// Payment is an append-only ledger row. Refunds are negative amounts.
type Payment struct {
	ID            uuid.UUID       `gorm:"primaryKey"                            json:"id"`
	Payable       Payable         `gorm:"embedded;embeddedPrefix:payable_"      json:"payable"`
	UserID        uuid.UUID       `gorm:"index;not null"                        json:"user_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(14,2);not null"           json:"amount"`
	Currency      string          `gorm:"size:3;not null"                       json:"currency"`
	Method        PaymentMethod   `gorm:"size:20;not null"                      json:"method"`
	Provider      string          `gorm:"size:40"                               json:"provider,omitempty"`
	Status        LedgerStatus    `gorm:"size:20;not null"                      json:"status"`
	TransactionID string          `gorm:"size:120;index"                        json:"transaction_id,omitempty"`
	Description   string          `gorm:"type:text"                             json:"description,omitempty"`
	CompletedAt   *time.Time      `                                             json:"completed_at,omitempty"`
	CreatedAt     time.Time       `                                             json:"created_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if !p.Payable.Kind.Valid() {
		return fmt.Errorf("payment: unknown payable kind %q", p.Payable.Kind)
	}
	return nil
}

func (Payment) TableName() string {
	return "payments"
}
