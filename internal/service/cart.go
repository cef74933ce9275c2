package service

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tesotunes/storefront/internal/repo"
	"github.com/tesotunes/storefront/internal/session"
	"golang.org/x/crypto/blake2b"
)

// LineItem is one cart line handed to checkout.
type LineItem struct {
	ProductID uuid.UUID
	Quantity  int
	Options   map[string]any
}

type CartLine struct {
	ID        string          `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
	Options   map[string]any  `json:"options,omitempty"`
	Available bool            `json:"available"`
}

type CartTotals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

type CartView struct {
	Lines     []CartLine `json:"lines"`
	ItemCount int        `json:"item_count"`
	Totals    CartTotals `json:"totals"`
}

type CartService struct {
	Repo     *repo.GormRepo
	Sessions session.Store
	Now      func() time.Time
}

func (s *CartService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// LineKey identifies a cart line by product and options. Options are hashed
// over their canonical JSON form, so key order does not matter.
func LineKey(productID uuid.UUID, options map[string]any) (string, error) {
	if options == nil {
		options = map[string]any{}
	}
	canon, err := json.Marshal(options)
	if err != nil {
		return "", fmt.Errorf("%w: options must be JSON serialisable", ErrValidation)
	}
	h, err := blake2b.New(16, nil)
	if err != nil {
		return "", err
	}
	h.Write(productID[:])
	h.Write(canon)
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (s *CartService) load(ctx context.Context, sessionID string) (*session.Cart, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: cart session required", ErrValidation)
	}
	cart, err := s.Sessions.Load(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		return &session.Cart{}, nil
	}
	return cart, err
}

func (s *CartService) save(ctx context.Context, sessionID string, cart *session.Cart) error {
	cart.UpdatedAt = s.now()
	return s.Sessions.Save(ctx, sessionID, cart)
}

func quantityOf(cart *session.Cart, productID uuid.UUID, skip int) int {
	n := 0
	for i, l := range cart.Lines {
		if i != skip && l.ProductID == productID {
			n += l.Quantity
		}
	}
	return n
}

func (s *CartService) purchasable(ctx context.Context, productID uuid.UUID, want int) error {
	p, err := s.Repo.GetProduct(ctx, productID)
	if err != nil {
		return notFound(err, "product")
	}
	if err := availability(p); err != nil {
		return err
	}
	if !p.HasStockFor(want) {
		return fmt.Errorf("%w: only %d of %s left", ErrInsufficientStock, *p.StockQuantity, p.Name)
	}
	return nil
}

func (s *CartService) AddItem(ctx context.Context, sessionID string, productID uuid.UUID, quantity int, options map[string]any) (*CartView, error) {
	if productID == uuid.Nil {
		return nil, fmt.Errorf("%w: product_id required", ErrValidation)
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
	}
	key, err := LineKey(productID, options)
	if err != nil {
		return nil, err
	}

	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	want := quantityOf(cart, productID, -1) + quantity
	if err := s.purchasable(ctx, productID, want); err != nil {
		return nil, err
	}

	if i := cart.Find(key); i >= 0 {
		cart.Lines[i].Quantity += quantity
	} else {
		cart.Lines = append(cart.Lines, session.Line{
			ID:        key,
			ProductID: productID,
			Quantity:  quantity,
			Options:   options,
			AddedAt:   s.now(),
		})
	}

	if err := s.save(ctx, sessionID, cart); err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

// UpdateQuantity sets a line's quantity; zero or less removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, sessionID, lineID string, quantity int) (*CartView, error) {
	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	i := cart.Find(lineID)
	if i < 0 {
		return nil, fmt.Errorf("%w: cart line", ErrNotFound)
	}

	if quantity <= 0 {
		cart.Remove(i)
	} else {
		want := quantityOf(cart, cart.Lines[i].ProductID, i) + quantity
		if err := s.purchasable(ctx, cart.Lines[i].ProductID, want); err != nil {
			return nil, err
		}
		cart.Lines[i].Quantity = quantity
	}

	if err := s.save(ctx, sessionID, cart); err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

func (s *CartService) RemoveItem(ctx context.Context, sessionID, lineID string) (*CartView, error) {
	return s.UpdateQuantity(ctx, sessionID, lineID, 0)
}

func (s *CartService) GetCart(ctx context.Context, sessionID string) (*CartView, error) {
	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.Sessions.Delete(ctx, sessionID)
}

// Lines returns the raw cart contents for checkout.
func (s *CartService) Lines(ctx context.Context, sessionID string) ([]LineItem, error) {
	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]LineItem, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		out = append(out, LineItem{ProductID: l.ProductID, Quantity: l.Quantity, Options: l.Options})
	}
	return out, nil
}

// view prices every line from the live catalog. Totals are never cached.
func (s *CartService) view(ctx context.Context, cart *session.Cart) (*CartView, error) {
	ids := make([]uuid.UUID, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		ids = append(ids, l.ProductID)
	}
	products, err := s.Repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	v := &CartView{Lines: make([]CartLine, 0, len(cart.Lines))}
	subtotal := decimal.Zero
	for _, l := range cart.Lines {
		line := CartLine{ID: l.ID, ProductID: l.ProductID, Quantity: l.Quantity, Options: l.Options}
		if p, ok := products[l.ProductID]; ok {
			line.Name = p.Name
			line.UnitPrice = p.Price
			line.LineTotal = p.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
			line.Available = p.Purchasable()
		}
		if line.Available {
			subtotal = subtotal.Add(line.LineTotal)
			v.ItemCount += l.Quantity
		}
		v.Lines = append(v.Lines, line)
	}

	v.Totals = CartTotals{
		Subtotal: subtotal,
		Tax:      decimal.Zero,
		Shipping: decimal.Zero,
		Discount: decimal.Zero,
		Total:    subtotal,
	}
	return v, nil
}
