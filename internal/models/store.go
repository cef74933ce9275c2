package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type StoreStatus string

const (
	StoreActive    StoreStatus = "active"
	StoreSuspended StoreStatus = "suspended"
)

type Store struct {
	ID        uuid.UUID   `gorm:"primaryKey"             json:"id"`
	OwnerID   uuid.UUID   `gorm:"index;not null"         json:"owner_id"`
	Name      string      `gorm:"size:255;not null"      json:"name"`
	Status    StoreStatus `gorm:"size:20;not null"       json:"status"`
	CreatedAt time.Time   `                              json:"created_at"`
	UpdatedAt time.Time   `                              json:"updated_at"`
}

func (s *Store) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (Store) TableName() string {
	return "stores"
}

type User struct {
	ID            uuid.UUID       `gorm:"primaryKey"                           json:"id"`
	Name          string          `gorm:"size:255"                             json:"name"`
	Email         string          `gorm:"size:255;uniqueIndex;not null"        json:"email"`
	CreditBalance decimal.Decimal `gorm:"type:decimal(14,2);not null"          json:"credit_balance"`
	CreatedAt     time.Time       `                                            json:"created_at"`
	UpdatedAt     time.Time       `                                            json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (User) TableName() string {
	return "users"
}
