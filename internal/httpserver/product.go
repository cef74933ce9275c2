package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/tesotunes/storefront/internal/models"
	"github.com/tesotunes/storefront/internal/service"
	"github.com/tesotunes/storefront/internal/transport"
	"github.com/tesotunes/storefront/pkg/logging"
	"github.com/tesotunes/storefront/pkg/util"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, l, "get_product_failed", err)
	}
	product, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return fail(c, l, "get_product_failed", err)
	}
	return ok(c, http.StatusOK, "product", product)
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	var storeID *uuid.UUID
	if raw := c.QueryParam("store_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fail(c, l, "get_products_error", errBadID)
		}
		storeID = &id
	}

	items, total, err := h.Svc.ListProducts(ctx, storeID, limit, offset)
	if err != nil {
		return fail(c, l, "get_products_error", err)
	}

	l.Info("get_products_success")
	return ok(c, http.StatusOK, "products", transport.Page{Items: items, Meta: util.Meta(page, offset, limit, total)})
}

func (h *CatalogHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	items, total, err := h.Svc.SearchProducts(ctx, c.QueryParam("q"), limit, offset)
	if err != nil {
		return fail(c, l, "search_products_error", err)
	}
	return ok(c, http.StatusOK, "products", transport.Page{Items: items, Meta: util.Meta(page, offset, limit, total)})
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.product.create")

	actor, err := actorFrom(c)
	if err != nil {
		return fail(c, l, "product_create_error", err)
	}
	var req transport.CreateProductRequest
	if err := bind(c, &req); err != nil {
		return fail(c, l, "product_create_error", err)
	}

	product, err := h.Svc.CreateProduct(ctx, actor, service.ProductInput{
		StoreID:        req.StoreID,
		Name:           req.Name,
		Description:    req.Description,
		Price:          req.Price,
		StockQuantity:  req.StockQuantity,
		TrackInventory: req.TrackInventory,
		Status:         models.ProductStatus(req.Status),
	})
	if err != nil {
		return fail(c, l, "product_create_error", err)
	}

	l.Info("create_product_success", "product_id", product.ID)
	return ok(c, http.StatusCreated, "product created", product)
}

func (h *CatalogHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.product.patch")

	actor, err := actorFrom(c)
	if err != nil {
		return fail(c, l, "product_patch_error", err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, l, "product_patch_error", err)
	}
	var req transport.PatchProductRequest
	if err := bind(c, &req); err != nil {
		return fail(c, l, "product_patch_error", err)
	}

	patch := service.ProductPatch{
		Name:           req.Name,
		Description:    req.Description,
		Price:          req.Price,
		StockQuantity:  req.StockQuantity,
		Unlimited:      req.Unlimited,
		TrackInventory: req.TrackInventory,
	}
	if req.Status != nil {
		st := models.ProductStatus(*req.Status)
		patch.Status = &st
	}

	product, err := h.Svc.UpdateProduct(ctx, actor, id, patch)
	if err != nil {
		return fail(c, l, "product_patch_error", err)
	}

	l.Info("patch_product_success", "product_id", id)
	return ok(c, http.StatusOK, "product updated", product)
}
