package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/tesotunes/storefront/internal/repo"
)

type StatsService struct {
	Repo *repo.GormRepo
}

// StoreStats aggregates a store's catalog and sales on demand.
func (s *StatsService) StoreStats(ctx context.Context, actor Actor, storeID uuid.UUID) (*repo.StoreStats, error) {
	if err := authorizeStore(ctx, s.Repo, actor, storeID); err != nil {
		return nil, err
	}
	if _, err := s.Repo.GetStore(ctx, storeID); err != nil {
		return nil, notFound(err, "store")
	}
	return s.Repo.StoreStats(ctx, storeID)
}
