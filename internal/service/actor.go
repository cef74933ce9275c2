package service

import (
	"github.com/google/uuid"
	"github.com/tesotunes/storefront/pkg/tokens"
)

// Actor is the authenticated caller, passed explicitly into every operation.
type Actor struct {
	ID   uuid.UUID
	Role string
}

func (a Actor) IsAdmin() bool {
	return a.Role == tokens.RoleAdmin
}

func (a Actor) IsStoreOwner() bool {
	return a.Role == tokens.RoleStoreOwner
}

func (a Actor) ref() *uuid.UUID {
	if a.ID == uuid.Nil {
		return nil
	}
	id := a.ID
	return &id
}
