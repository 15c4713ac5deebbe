package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

var (
	// ErrNotPackage indicates components were supplied for a simple item.
	ErrNotPackage = errors.New("catalog: components only allowed on package items")
	// ErrNoComponents indicates a package item without components.
	ErrNoComponents = errors.New("catalog: package requires at least one component")
	// ErrSelfComponent indicates a package referencing itself.
	ErrSelfComponent = errors.New("catalog: package cannot contain itself")
)

// Service coordinates catalog operations.
type Service struct {
	repo   Repository
	cache  *Cache
	logger *slog.Logger
}

// NewService builds Service. cache may be nil.
func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger}
}

func (s *Service) Get(ctx context.Context, id int64) (Item, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListItemsRequest) ([]Item, int, error) {
	return s.repo.List(ctx, req)
}

// ListPublic serves the storefront listing through the Redis cache.
func (s *Service) ListPublic(ctx context.Context) ([]Item, error) {
	if items, ok, err := s.cache.GetItems(ctx); err != nil {
		s.logWarn("catalog cache read", err)
	} else if ok {
		return items, nil
	}

	items, _, err := s.repo.List(ctx, ListItemsRequest{})
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetItems(ctx, items); err != nil {
		s.logWarn("catalog cache write", err)
	}
	return items, nil
}

func (s *Service) Create(ctx context.Context, req CreateItemRequest) (Item, error) {
	item := Item{
		Name:                     req.Name,
		Kind:                     req.Kind,
		TotalQuantity:            req.TotalQuantity,
		SetSize:                  req.SetSize,
		RentalStep:               req.RentalStep,
		UnitPurchaseCost:         req.UnitPurchaseCost,
		DefaultRentalPricePerDay: req.DefaultRentalPricePerDay,
	}
	if item.Kind == "" {
		item.Kind = ItemKindSimple
	}
	if item.SetSize < 1 {
		item.SetSize = 1
	}
	if item.RentalStep < 1 {
		item.RentalStep = 1
	}

	components, err := s.checkComponents(ctx, 0, item.Kind, req.Components)
	if err != nil {
		return Item{}, err
	}
	if item.Kind == ItemKindPackage {
		// Package stock is derived from components, never stored.
		item.TotalQuantity = 0
	}

	var id int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		id, err = repo.Create(ctx, item)
		if err != nil {
			return err
		}
		if len(components) > 0 {
			return repo.ReplaceComponents(ctx, id, components)
		}
		return nil
	})
	if err != nil {
		return Item{}, err
	}

	s.invalidate(ctx)
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateItemRequest) (Item, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return Item{}, fmt.Errorf("get item: %w", err)
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}
	if req.TotalQuantity != nil {
		existing.TotalQuantity = *req.TotalQuantity
	}
	if req.SetSize != nil {
		existing.SetSize = *req.SetSize
	}
	if req.RentalStep != nil {
		existing.RentalStep = *req.RentalStep
	}
	if req.UnitPurchaseCost != nil {
		existing.UnitPurchaseCost = *req.UnitPurchaseCost
	}
	if req.DefaultRentalPricePerDay != nil {
		existing.DefaultRentalPricePerDay = *req.DefaultRentalPricePerDay
	}

	var components []Component
	if req.Components != nil {
		components, err = s.checkComponents(ctx, id, existing.Kind, *req.Components)
		if err != nil {
			return Item{}, err
		}
	}
	if existing.Kind == ItemKindPackage {
		existing.TotalQuantity = 0
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.Update(ctx, id, existing); err != nil {
			return err
		}
		if req.Components != nil {
			return repo.ReplaceComponents(ctx, id, components)
		}
		return nil
	})
	if err != nil {
		return Item{}, err
	}

	s.invalidate(ctx)
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// AddRevenue books earned rental revenue onto an item. Called by the quote
// lifecycle when quotes are paid (positive delta) or un-paid (negative).
func (s *Service) AddRevenue(ctx context.Context, id int64, delta float64) error {
	return s.repo.AddRevenue(ctx, id, delta)
}

func (s *Service) checkComponents(ctx context.Context, selfID int64, kind ItemKind, reqs []ComponentRequest) ([]Component, error) {
	if kind != ItemKindPackage {
		if len(reqs) > 0 {
			return nil, ErrNotPackage
		}
		return nil, nil
	}
	if len(reqs) == 0 {
		return nil, ErrNoComponents
	}

	components := make([]Component, 0, len(reqs))
	for _, req := range reqs {
		if selfID != 0 && req.ItemID == selfID {
			return nil, ErrSelfComponent
		}
		if _, err := s.repo.Get(ctx, req.ItemID); err != nil {
			return nil, fmt.Errorf("component %d: %w", req.ItemID, err)
		}
		components = append(components, Component{ItemID: req.ItemID, QtyPerUnit: req.QtyPerUnit})
	}
	return components, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logWarn("catalog cache invalidate", err)
	}
}

func (s *Service) logWarn(msg string, err error) {
	if s.logger != nil {
		s.logger.Warn(msg, slog.Any("error", err))
	}
}
