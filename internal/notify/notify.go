// Package notify renders customer-facing messages about order changes.
// Delivery happens elsewhere; these values are what gets queued.
package notify

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tesotunes/storefront/internal/models"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type Kind string

const (
	OrderPlaced     Kind = "order_placed"
	PaymentReceived Kind = "payment_received"
	StatusChanged   Kind = "order_status_changed"
	OrderShipped    Kind = "order_shipped"
	OrderCancelled  Kind = "order_cancelled"
	OrderRefunded   Kind = "order_refunded"
)

type Message struct {
	Kind        Kind      `json:"kind"`
	UserID      uuid.UUID `json:"user_id"`
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
}

type Formatter struct {
	printer  *message.Printer
	currency string
}

func NewFormatter(tag language.Tag, currency string) *Formatter {
	return &Formatter{printer: message.NewPrinter(tag), currency: currency}
}

// Amount formats money with locale digit grouping, e.g. "UGX 30,000.00".
func (f *Formatter) Amount(d decimal.Decimal) string {
	return f.printer.Sprintf("%s %.2f", f.currency, d.InexactFloat64())
}

func (f *Formatter) base(kind Kind, o *models.Order, at time.Time) Message {
	return Message{
		Kind:        kind,
		UserID:      o.UserID,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		CreatedAt:   at,
	}
}

func (f *Formatter) Placed(o *models.Order, at time.Time) Message {
	m := f.base(OrderPlaced, o, at)
	m.Subject = fmt.Sprintf("Order %s received", o.OrderNumber)
	m.Body = fmt.Sprintf("Thanks for your order. Total: %s.", f.Amount(o.Gross()))
	if o.PaymentStatus == models.PaymentPaid {
		m.Body += " Payment received."
	}
	return m
}

func (f *Formatter) Paid(o *models.Order, at time.Time) Message {
	m := f.base(PaymentReceived, o, at)
	m.Subject = fmt.Sprintf("Payment for %s confirmed", o.OrderNumber)
	m.Body = fmt.Sprintf("We received %s for your order.", f.Amount(o.TotalAmount))
	return m
}

func (f *Formatter) StatusChanged(o *models.Order, from models.OrderStatus, at time.Time) Message {
	m := f.base(StatusChanged, o, at)
	m.Subject = fmt.Sprintf("Order %s is now %s", o.OrderNumber, o.Status)
	m.Body = fmt.Sprintf("Your order moved from %s to %s.", from, o.Status)
	return m
}

func (f *Formatter) Shipped(o *models.Order, at time.Time) Message {
	m := f.base(OrderShipped, o, at)
	m.Subject = fmt.Sprintf("Order %s shipped", o.OrderNumber)
	m.Body = "Your order is on its way."
	if o.TrackingNumber != "" {
		m.Body = fmt.Sprintf("Your order is on its way. Tracking number: %s.", o.TrackingNumber)
		if o.Carrier != "" {
			m.Body = fmt.Sprintf("Your order is on its way with %s. Tracking number: %s.", o.Carrier, o.TrackingNumber)
		}
	}
	return m
}

func (f *Formatter) Cancelled(o *models.Order, creditsReturned decimal.Decimal, at time.Time) Message {
	m := f.base(OrderCancelled, o, at)
	m.Subject = fmt.Sprintf("Order %s cancelled", o.OrderNumber)
	m.Body = "Your order has been cancelled."
	if o.CancellationReason != "" {
		m.Body += " Reason: " + o.CancellationReason + "."
	}
	if creditsReturned.IsPositive() {
		m.Body += fmt.Sprintf(" %s in credits was returned to your balance.", f.Amount(creditsReturned))
	}
	return m
}

func (f *Formatter) Refunded(o *models.Order, amount decimal.Decimal, at time.Time) Message {
	m := f.base(OrderRefunded, o, at)
	m.Subject = fmt.Sprintf("Refund for %s processed", o.OrderNumber)
	m.Body = fmt.Sprintf("We refunded %s.", f.Amount(amount))
	if o.RefundReason != "" {
		m.Body += " Reason: " + o.RefundReason + "."
	}
	return m
}
