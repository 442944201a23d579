package service

import (
	"context"
	"log"
	"time"

	"bdo-market-watch/internal/model"
	"bdo-market-watch/internal/repository"
)

// PriceSource fetches the current marketplace snapshot for one item variant.
// Implemented by *market.Client; faked in tests.
type PriceSource interface {
	FetchItem(ctx context.Context, itemID, sid int) (*model.RemoteSnapshot, error)
}

// ItemService handles tracked-item management.
type ItemService struct {
	repo   repository.ItemRepository
	source PriceSource
}

// NewItemService creates a new item service.
// Returns nil if either dependency is missing.
func NewItemService(repo repository.ItemRepository, source PriceSource) *ItemService {
	if repo == nil || source == nil {
		return nil
	}
	return &ItemService{repo: repo, source: source}
}

// List returns every tracked item.
func (s *ItemService) List(ctx context.Context) ([]model.TrackedItem, error) {
	return s.repo.List(ctx)
}

// Get returns one tracked record, or repository.ErrNotTracked.
func (s *ItemService) Get(ctx context.Context, itemID, sid int) (*model.TrackedItem, error) {
	return s.repo.Get(ctx, itemID, sid)
}

// Track starts tracking a pair. The remote source must resolve the item so
// the stored record starts from a real snapshot; an unresolvable identifier
// fails with market.ErrItemNotFound. An already-tracked pair fails with
// repository.ErrAlreadyTracked before any fetch is made.
func (s *ItemService) Track(ctx context.Context, itemID, sid int) (*model.TrackedItem, error) {
	if _, err := s.repo.Get(ctx, itemID, sid); err == nil {
		return nil, repository.ErrAlreadyTracked
	} else if err != repository.ErrNotTracked {
		return nil, err
	}

	snap, err := s.source.FetchItem(ctx, itemID, sid)
	if err != nil {
		return nil, err
	}

	item := model.TrackedItem{
		ItemID:       itemID,
		SID:          sid,
		Name:         snap.Name,
		LastPrice:    snap.Price,
		LastStock:    snap.Stock,
		LastSoldTime: snap.LastSoldTime,
		AddedAt:      time.Now().UnixMilli(),
	}
	if err := s.repo.Add(ctx, item); err != nil {
		return nil, err
	}

	log.Printf("[ItemService] Now tracking %s (id=%d sid=%d) at %d", item.Name, itemID, sid, item.LastPrice)
	return &item, nil
}

// Untrack removes one pair when sid is non-nil, or every variant of itemID
// when sid is nil. Reports whether anything was removed.
func (s *ItemService) Untrack(ctx context.Context, itemID int, sid *int) (bool, error) {
	removed, err := s.repo.Remove(ctx, itemID, sid)
	if err != nil {
		return false, err
	}
	if removed {
		log.Printf("[ItemService] Stopped tracking item %d", itemID)
	}
	return removed, nil
}
