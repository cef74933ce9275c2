package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tesotunes/storefront/internal/models"
	"github.com/tesotunes/storefront/internal/service"
	"github.com/tesotunes/storefront/internal/transport"
	"github.com/tesotunes/storefront/pkg/logging"
)

type PromotionHTTP struct {
	Svc *service.PromotionService
}

func (h *PromotionHTTP) Validate(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "promotion.validate")

	actor, err := actorFrom(c)
	if err != nil {
		return fail(c, l, "validate_promotion_error", err)
	}
	var req transport.ValidatePromotionRequest
	if err := bind(c, &req); err != nil {
		return fail(c, l, "validate_promotion_error", err)
	}

	preview, err := h.Svc.Preview(ctx, actor.ID, req.Code, req.Amount, req.Shipping)
	if err != nil {
		return fail(c, l, "validate_promotion_error", err)
	}
	return ok(c, http.StatusOK, "promotion checked", preview)
}

func (h *PromotionHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.promotion.create")

	actor, err := actorFrom(c)
	if err != nil {
		return fail(c, l, "create_promotion_error", err)
	}
	var req transport.CreatePromotionRequest
	if err := bind(c, &req); err != nil {
		return fail(c, l, "create_promotion_error", err)
	}

	promo, err := h.Svc.CreatePromotion(ctx, actor, service.PromotionInput{
		Code:              req.Code,
		Name:              req.Name,
		Description:       req.Description,
		StoreID:           req.StoreID,
		DiscountType:      models.DiscountType(req.DiscountType),
		DiscountValue:     req.DiscountValue,
		MinimumPurchase:   req.MinimumPurchase,
		MaximumDiscount:   req.MaximumDiscount,
		StartsAt:          req.StartsAt,
		EndsAt:            req.EndsAt,
		UsageLimitTotal:   req.UsageLimitTotal,
		UsageLimitPerUser: req.UsageLimitPerUser,
	})
	if err != nil {
		return fail(c, l, "create_promotion_error", err)
	}

	l.Info("create_promotion_success", "promotion_id", promo.ID, "status", promo.Status)
	return ok(c, http.StatusCreated, "promotion created", promo)
}

func (h *PromotionHTTP) Approve(c echo.Context) error {
	return h.review(c, "approve", func(actor service.Actor, c echo.Context) (*models.Promotion, error) {
		id, err := pathID(c, "id")
		if err != nil {
			return nil, err
		}
		return h.Svc.ApprovePromotion(c.Request().Context(), actor, id)
	})
}

func (h *PromotionHTTP) Reject(c echo.Context) error {
	return h.review(c, "reject", func(actor service.Actor, c echo.Context) (*models.Promotion, error) {
		id, err := pathID(c, "id")
		if err != nil {
			return nil, err
		}
		var req transport.RejectPromotionRequest
		if err := bind(c, &req); err != nil {
			return nil, err
		}
		return h.Svc.RejectPromotion(c.Request().Context(), actor, id, req.Reason)
	})
}

func (h *PromotionHTTP) Deactivate(c echo.Context) error {
	return h.review(c, "deactivate", func(actor service.Actor, c echo.Context) (*models.Promotion, error) {
		id, err := pathID(c, "id")
		if err != nil {
			return nil, err
		}
		return h.Svc.DeactivatePromotion(c.Request().Context(), actor, id)
	})
}

func (h *PromotionHTTP) review(c echo.Context, action string, fn func(service.Actor, echo.Context) (*models.Promotion, error)) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "admin.promotion."+action)

	actor, err := actorFrom(c)
	if err != nil {
		return fail(c, l, action+"_promotion_error", err)
	}
	promo, err := fn(actor, c)
	if err != nil {
		return fail(c, l, action+"_promotion_error", err)
	}

	l.Info(action+"_promotion_success", "promotion_id", promo.ID, "status", promo.Status)
	return ok(c, http.StatusOK, "promotion "+string(promo.Status), promo)
}
