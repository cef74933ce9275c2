package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tesotunes/storefront/internal/models"
	"github.com/tesotunes/storefront/internal/repo"
	"github.com/tesotunes/storefront/pkg/logging"
)

type ProductIndex interface {
	Index(ctx context.Context, p *models.Product) error
	Search(ctx context.Context, q string, from, size int) ([]uuid.UUID, int64, error)
}

type CatalogService struct {
	Repo  *repo.GormRepo
	Index ProductIndex
}

type ProductInput struct {
	StoreID        uuid.UUID
	Name           string
	Description    string
	Price          decimal.Decimal
	StockQuantity  *int
	TrackInventory *bool
	Status         models.ProductStatus
}

// toProduct applies the creation defaults: active, and inventory tracked
// exactly when a stock quantity is given.
func (in ProductInput) toProduct() (*models.Product, error) {
	name := cleanText(in.Name)
	switch {
	case in.StoreID == uuid.Nil:
		return nil, fmt.Errorf("%w: store_id required", ErrValidation)
	case name == "":
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	case in.Price.IsNegative():
		return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
	case in.StockQuantity != nil && *in.StockQuantity < 0:
		return nil, fmt.Errorf("%w: stock_quantity must be >= 0", ErrValidation)
	case in.Status != "" && !in.Status.Valid():
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, in.Status)
	}

	p := &models.Product{
		StoreID:        in.StoreID,
		Name:           name,
		Description:    cleanText(in.Description),
		Price:          in.Price.Round(2),
		StockQuantity:  in.StockQuantity,
		TrackInventory: in.StockQuantity != nil,
		Status:         models.ProductActive,
	}
	if in.TrackInventory != nil {
		p.TrackInventory = *in.TrackInventory
	}
	if in.Status != "" {
		p.Status = in.Status
	}
	syncStockStatus(p)
	return p, nil
}

// syncStockStatus keeps sold-out and restocked products' status in line with stock.
func syncStockStatus(p *models.Product) {
	if !p.Limited() {
		if p.Status == models.ProductOutOfStock {
			p.Status = models.ProductActive
		}
		return
	}
	switch {
	case *p.StockQuantity <= 0 && p.Status == models.ProductActive:
		p.Status = models.ProductOutOfStock
	case *p.StockQuantity > 0 && p.Status == models.ProductOutOfStock:
		p.Status = models.ProductActive
	}
}

func (s *CatalogService) CreateProduct(ctx context.Context, actor Actor, in ProductInput) (*models.Product, error) {
	p, err := in.toProduct()
	if err != nil {
		return nil, err
	}
	if err := authorizeStore(ctx, s.Repo, actor, in.StoreID); err != nil {
		return nil, err
	}
	if _, err := s.Repo.GetStore(ctx, in.StoreID); err != nil {
		return nil, notFound(err, "store")
	}
	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	s.mirror(ctx, p)
	return p, nil
}

type ProductPatch struct {
	Name           *string
	Description    *string
	Price          *decimal.Decimal
	StockQuantity  *int
	Unlimited      bool
	TrackInventory *bool
	Status         *models.ProductStatus
}

func (s *CatalogService) UpdateProduct(ctx context.Context, actor Actor, id uuid.UUID, patch ProductPatch) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, "product")
	}
	if err := authorizeStore(ctx, s.Repo, actor, p.StoreID); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if patch.Name != nil {
		name := cleanText(*patch.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
		}
		p.Name = name
		updates["name"] = name
	}
	if patch.Description != nil {
		p.Description = cleanText(*patch.Description)
		updates["description"] = p.Description
	}
	if patch.Price != nil {
		if patch.Price.IsNegative() {
			return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
		}
		p.Price = patch.Price.Round(2)
		updates["price"] = p.Price
	}
	if patch.Unlimited {
		p.StockQuantity = nil
		updates["stock_quantity"] = nil
	} else if patch.StockQuantity != nil {
		if *patch.StockQuantity < 0 {
			return nil, fmt.Errorf("%w: stock_quantity must be >= 0", ErrValidation)
		}
		p.StockQuantity = patch.StockQuantity
		updates["stock_quantity"] = *patch.StockQuantity
	}
	if patch.TrackInventory != nil {
		p.TrackInventory = *patch.TrackInventory
		updates["track_inventory"] = p.TrackInventory
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *patch.Status)
		}
		p.Status = *patch.Status
	}
	// status is left to checkout unless the patch touches stock or status.
	if patch.Unlimited || patch.StockQuantity != nil || patch.TrackInventory != nil || patch.Status != nil {
		syncStockStatus(p)
		updates["status"] = p.Status
	}

	out, err := s.Repo.UpdateProduct(ctx, id, updates)
	if err != nil {
		return nil, notFound(err, "product")
	}
	s.mirror(ctx, out)
	return out, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, "product")
	}
	return p, nil
}

// ListProducts shows what a shopper can buy, optionally for one store.
func (s *CatalogService) ListProducts(ctx context.Context, storeID *uuid.UUID, limit, offset int) ([]models.Product, int64, error) {
	return s.Repo.ListProducts(ctx, storeID, models.ProductActive, limit, offset)
}

// SearchProducts asks the index when there is one and the database otherwise.
func (s *CatalogService) SearchProducts(ctx context.Context, q string, limit, offset int) ([]models.Product, int64, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []models.Product{}, 0, nil
	}
	if s.Index == nil {
		return s.Repo.SearchProducts(ctx, q, limit, offset)
	}

	ids, total, err := s.Index.Search(ctx, q, offset, limit)
	if err != nil {
		logging.FromContext(ctx).Warn("product_search_index_error", "error", err)
		return s.Repo.SearchProducts(ctx, q, limit, offset)
	}
	byID, err := s.Repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok && p.Purchasable() {
			out = append(out, p)
		}
	}
	return out, total, nil
}

// mirror pushes a product to the search index. The database stays the source
// of truth, so failures are only logged.
func (s *CatalogService) mirror(ctx context.Context, p *models.Product) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, p); err != nil {
		logging.FromContext(ctx).Warn("product_index_error", "product_id", p.ID, "error", err)
	}
}
