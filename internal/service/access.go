package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/tesotunes/storefront/internal/models"
	"github.com/tesotunes/storefront/internal/repo"
)

// authorizeStore lets admins through and store owners into their own stores.
func authorizeStore(ctx context.Context, r *repo.GormRepo, actor Actor, storeID uuid.UUID) error {
	if actor.IsAdmin() {
		return nil
	}
	if !actor.IsStoreOwner() {
		return fmt.Errorf("%w: store access requires an owner or admin", ErrForbidden)
	}
	store, err := r.GetStore(ctx, storeID)
	if err != nil {
		return notFound(err, "store")
	}
	if store.OwnerID != actor.ID {
		return fmt.Errorf("%w: not the owner of this store", ErrForbidden)
	}
	return nil
}

// canSee hides other customers' orders behind ErrNotFound.
func canSee(ctx context.Context, r *repo.GormRepo, actor Actor, o *models.Order) error {
	if o.UserID == actor.ID {
		return nil
	}
	if actor.IsAdmin() || actor.IsStoreOwner() {
		if err := authorizeStore(ctx, r, actor, o.StoreID); err == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: order", ErrNotFound)
}
