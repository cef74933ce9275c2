package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tesotunes/storefront/internal/models"
	"github.com/tesotunes/storefront/internal/notify"
	"github.com/tesotunes/storefront/internal/repo"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderPaid          = "order.paid"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderShipped       = "order.shipped"
	EventOrderCancelled     = "order.cancelled"
	EventOrderRefunded      = "order.refunded"
)

type OrderEvent struct {
	Type          string               `json:"type"`
	OrderID       uuid.UUID            `json:"order_id"`
	OrderNumber   string               `json:"order_number"`
	UserID        uuid.UUID            `json:"user_id"`
	StoreID       uuid.UUID            `json:"store_id"`
	Status        models.OrderStatus   `json:"status"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	TotalAmount   decimal.Decimal      `json:"total_amount"`
	CreditAmount  decimal.Decimal      `json:"credit_amount"`
	Amount        *decimal.Decimal     `json:"amount,omitempty"`
	ActorID       *uuid.UUID           `json:"actor_id,omitempty"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

func newOrderEvent(typ string, o *models.Order, actor *uuid.UUID, at time.Time) OrderEvent {
	return OrderEvent{
		Type:          typ,
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		UserID:        o.UserID,
		StoreID:       o.StoreID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		TotalAmount:   o.TotalAmount,
		CreditAmount:  o.CreditAmount,
		ActorID:       actor,
		OccurredAt:    at,
	}
}

// publish queues a domain event and the matching customer message in tx.
// Nothing leaves the process until the transaction commits.
func publish(ctx context.Context, tx *repo.GormRepo, ev OrderEvent, msg notify.Message) error {
	evPayload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msgPayload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return tx.AddOutbox(ctx,
		&models.OutboxEvent{
			Topic:   models.TopicOrderEvents,
			Key:     ev.OrderID.String(),
			Type:    ev.Type,
			Payload: string(evPayload),
		},
		&models.OutboxEvent{
			Topic:   models.TopicNotifications,
			Key:     msg.UserID.String(),
			Type:    string(msg.Kind),
			Payload: string(msgPayload),
		},
	)
}
