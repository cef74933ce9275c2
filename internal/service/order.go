package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"github.com/tesotunes/storefront/internal/metrics"
	"github.com/tesotunes/storefront/internal/models"
	"github.com/tesotunes/storefront/internal/notify"
	"github.com/tesotunes/storefront/internal/payment"
	"github.com/tesotunes/storefront/internal/repo"
	"github.com/tesotunes/storefront/pkg/logging"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/text/language"
)

// PlatformFeeRate is the commission the platform keeps on every order subtotal.
var PlatformFeeRate = decimal.RequireFromString("0.05")

type OrderService struct {
	Repo       *repo.GormRepo
	Promotions *PromotionService
	Payments   payment.Gateway
	Notifier   *notify.Formatter
	TaxRate    decimal.Decimal
	Currency   string
	Now        func() time.Time
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *OrderService) notifier() *notify.Formatter {
	if s.Notifier == nil {
		s.Notifier = notify.NewFormatter(language.English, s.currency())
	}
	return s.Notifier
}

func (s *OrderService) currency() string {
	if s.Currency == "" {
		return "UGX"
	}
	return s.Currency
}

func NewOrderNumber() string {
	return "ORD-" + ulid.Make().String()
}

type CheckoutInput struct {
	PaymentMethod   models.PaymentMethod
	UseCredits      bool
	PromotionCode   string
	Shipping        decimal.Decimal
	ShippingAddress string
	ShippingMethod  string
	Notes           string
}

func (in *CheckoutInput) normalize() error {
	if in.PaymentMethod == "" && in.UseCredits {
		in.PaymentMethod = models.MethodCredits
	}
	if in.PaymentMethod == models.MethodCredits {
		in.UseCredits = true
	}
	if !in.PaymentMethod.Valid() {
		return fmt.Errorf("%w: unknown payment_method %q", ErrValidation, in.PaymentMethod)
	}
	if in.Shipping.IsNegative() {
		return fmt.Errorf("%w: shipping must be >= 0", ErrValidation)
	}
	return nil
}

func validateLines(lines []LineItem) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: cart is empty", ErrValidation)
	}
	for _, l := range lines {
		if l.ProductID == uuid.Nil {
			return fmt.Errorf("%w: product_id required", ErrValidation)
		}
		if l.Quantity <= 0 {
			return fmt.Errorf("%w: quantity must be > 0", ErrValidation)
		}
	}
	return nil
}

// CreateFromCart turns cart lines into an order. Everything it writes (order,
// items, stock, credits, redemption, ledger, outbox) commits or rolls back as one.
func (s *OrderService) CreateFromCart(ctx context.Context, userID uuid.UUID, lines []LineItem, in CheckoutInput) (order *models.Order, err error) {
	ctx, span := startSpan(ctx, "OrderService.CreateFromCart", attribute.String("user_id", userID.String()))
	defer func() {
		endSpan(span, err)
		metrics.RecordOrderOperation("create", err == nil)
	}()

	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user required", ErrValidation)
	}
	if err := validateLines(lines); err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}

	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		o, err := s.writeOrder(ctx, tx, userID, lines, in)
		if err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("order_created",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"total", order.TotalAmount.StringFixed(2),
		"payment_status", order.PaymentStatus,
	)
	return order, nil
}

func (s *OrderService) writeOrder(ctx context.Context, tx *repo.GormRepo, userID uuid.UUID, lines []LineItem, in CheckoutInput) (*models.Order, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	products, err := tx.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	now := s.now()
	order := &models.Order{
		ID:                uuid.New(),
		OrderNumber:       NewOrderNumber(),
		UserID:            userID,
		Currency:          s.currency(),
		Status:            models.OrderPending,
		PaymentStatus:     models.PaymentPending,
		FulfillmentStatus: models.Unfulfilled,
		PaymentMethod:     in.PaymentMethod,
		Shipping:          in.Shipping.Round(2),
		ShippingAddress:   cleanText(in.ShippingAddress),
		ShippingMethod:    cleanText(in.ShippingMethod),
		Notes:             cleanText(in.Notes),
		CreditAmount:      decimal.Zero,
		Discount:          decimal.Zero,
	}

	subtotal := decimal.Zero
	priced := make([]pricedLine, 0, len(lines))
	for i, l := range lines {
		p, ok := products[l.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, l.ProductID)
		}
		if err := availability(&p); err != nil {
			return nil, err
		}
		if i == 0 {
			order.StoreID = p.StoreID
		} else if p.StoreID != order.StoreID {
			return nil, fmt.Errorf("%w: all items must come from one store", ErrValidation)
		}

		lineTotal := p.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		options, err := encodeOptions(l.Options)
		if err != nil {
			return nil, err
		}
		order.Items = append(order.Items, models.OrderItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    l.Quantity,
			UnitPrice:   p.Price,
			Subtotal:    lineTotal,
			Total:       lineTotal,
			Options:     options,
		})
		priced = append(priced, pricedLine{UnitPrice: p.Price, Quantity: l.Quantity})
		subtotal = subtotal.Add(lineTotal)
	}

	order.Subtotal = subtotal
	order.Tax = subtotal.Mul(s.TaxRate).Round(2)
	order.PlatformFee = subtotal.Mul(PlatformFeeRate).Round(2)

	var promo *models.Promotion
	if in.PromotionCode != "" {
		promo, err = tx.LockPromotionByCode(ctx, in.PromotionCode)
		if err != nil {
			return nil, notFound(err, "promotion")
		}
		if !promo.AppliesToStore(order.StoreID) {
			return nil, fmt.Errorf("%w: promotion does not apply to this store", ErrBusinessRule)
		}
		if err := s.Promotions.check(ctx, tx, promo, userID, subtotal); err != nil {
			return nil, err
		}
		order.Discount = discountFor(promo, priced, subtotal, order.Shipping)
		order.PromotionID = &promo.ID
		order.PromotionCode = promo.Code
	}

	total := subtotal.Add(order.Tax).Add(order.Shipping).Sub(order.Discount)
	order.TotalAmount = total

	if in.UseCredits && total.IsPositive() {
		paid, err := s.payWithCredits(ctx, tx, userID, total)
		if err != nil {
			return nil, err
		}
		if paid {
			order.CreditAmount = total
			order.TotalAmount = decimal.Zero
			order.PaymentMethod = models.MethodCredits
		} else if in.PaymentMethod == models.MethodCredits {
			return nil, fmt.Errorf("%w: insufficient credit balance", ErrBusinessRule)
		}
	}
	if order.TotalAmount.IsZero() {
		order.PaymentStatus = models.PaymentPaid
		order.PaidAt = &now
	}

	if _, err := tx.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	for _, item := range order.Items {
		p := products[item.ProductID]
		if !p.Limited() {
			continue
		}
		ok, err := tx.DecrementStock(ctx, item.ProductID, item.Quantity)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrInsufficientStock, item.ProductName)
		}
	}

	if promo != nil {
		if err := s.Promotions.RedeemPromotion(ctx, tx, promo, userID, order.ID, order.Discount); err != nil {
			return nil, err
		}
	}

	if order.CreditAmount.IsPositive() {
		if err := tx.CreatePayment(ctx, &models.Payment{
			Payable:     models.OrderPayable(order.ID),
			UserID:      userID,
			Amount:      order.CreditAmount,
			Currency:    order.Currency,
			Method:      models.MethodCredits,
			Provider:    "credits",
			Status:      models.LedgerCompleted,
			Description: "order paid with credits",
			CompletedAt: &now,
		}); err != nil {
			return nil, err
		}
	}

	ev := newOrderEvent(EventOrderCreated, order, nil, now)
	if err := publish(ctx, tx, ev, s.notifier().Placed(order, now)); err != nil {
		return nil, err
	}
	return order, nil
}

// availability explains why a product cannot be bought. Sold out products
// report ErrInsufficientStock so callers see the same error a lost race gives.
func availability(p *models.Product) error {
	switch {
	case p.Purchasable():
		return nil
	case p.Status == models.ProductOutOfStock:
		return fmt.Errorf("%w: %s is out of stock", ErrInsufficientStock, p.Name)
	default:
		return fmt.Errorf("%w: product %s is %s", ErrBusinessRule, p.Name, p.Status)
	}
}

func encodeOptions(options map[string]any) (string, error) {
	if len(options) == 0 {
		return "", nil
	}
	raw, err := json.Marshal(options)
	if err != nil {
		return "", fmt.Errorf("%w: options must be JSON serialisable", ErrValidation)
	}
	return string(raw), nil
}

// payWithCredits debits the full amount when the balance covers it.
// A short balance is not an error; the order falls back to its payment method.
func (s *OrderService) payWithCredits(ctx context.Context, tx *repo.GormRepo, userID uuid.UUID, amount decimal.Decimal) (bool, error) {
	user, err := tx.GetUser(ctx, userID)
	if err != nil {
		return false, notFound(err, "user")
	}
	if user.CreditBalance.LessThan(amount) {
		return false, nil
	}
	return tx.DebitCredits(ctx, userID, amount)
}

// ConfirmPayment records gateway settlement of a pending order.
func (s *OrderService) ConfirmPayment(ctx context.Context, actor Actor, orderID uuid.UUID, transactionID string) (order *models.Order, err error) {
	defer func() { metrics.RecordOrderOperation("confirm_payment", err == nil) }()

	transactionID = cleanText(transactionID)
	if transactionID == "" {
		return nil, fmt.Errorf("%w: transaction_id required", ErrValidation)
	}

	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		o, err := s.loadForAdmin(ctx, tx, actor, orderID)
		if err != nil {
			return err
		}
		if o.Status == models.OrderCancelled || o.Status == models.OrderRefunded {
			return fmt.Errorf("%w: order is %s", ErrBusinessRule, o.Status)
		}

		now := s.now()
		n, err := tx.SettleOrder(ctx, o.ID, models.PaymentPending, map[string]any{
			"payment_status":    models.PaymentPaid,
			"payment_reference": transactionID,
			"paid_at":           now,
		})
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: order payment is already %s", ErrConflict, o.PaymentStatus)
		}

		if err := tx.CreatePayment(ctx, &models.Payment{
			Payable:       models.OrderPayable(o.ID),
			UserID:        o.UserID,
			Amount:        o.TotalAmount,
			Currency:      o.Currency,
			Method:        o.PaymentMethod,
			Provider:      string(o.PaymentMethod),
			Status:        models.LedgerCompleted,
			TransactionID: transactionID,
			Description:   "order payment",
			CompletedAt:   &now,
		}); err != nil {
			return err
		}

		o.PaymentStatus = models.PaymentPaid
		o.PaymentReference = transactionID
		o.PaidAt = &now
		if err := publish(ctx, tx, newOrderEvent(EventOrderPaid, o, actor.ref(), now), s.notifier().Paid(o, now)); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// loadForAdmin reads an order inside tx and checks the actor may manage it.
func (s *OrderService) loadForAdmin(ctx context.Context, tx *repo.GormRepo, actor Actor, id uuid.UUID) (*models.Order, error) {
	o, err := tx.GetOrder(ctx, id)
	if err != nil {
		return nil, notFound(err, "order")
	}
	if err := authorizeStore(ctx, tx, actor, o.StoreID); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *OrderService) GetOrder(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error) {
	o, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, notFound(err, "order")
	}
	if err := canSee(ctx, s.Repo, actor, o); err != nil {
		return nil, err
	}
	return o, nil
}

type OrderQuery struct {
	StoreID *uuid.UUID
	Status  models.OrderStatus
	Limit   int
	Offset  int
}

// ListOrders scopes the listing by role: customers see their own orders,
// store owners one of their stores, admins anything.
func (s *OrderService) ListOrders(ctx context.Context, actor Actor, q OrderQuery) ([]models.Order, int64, error) {
	if q.Status != "" && !q.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", ErrValidation, q.Status)
	}
	f := repo.OrderFilter{Status: q.Status, StoreID: q.StoreID}

	switch {
	case q.StoreID != nil:
		if err := authorizeStore(ctx, s.Repo, actor, *q.StoreID); err != nil {
			return nil, 0, err
		}
	case actor.IsAdmin():
	default:
		f.UserID = &actor.ID
	}
	return s.Repo.ListOrders(ctx, f, q.Limit, q.Offset)
}
