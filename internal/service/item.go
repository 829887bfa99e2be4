package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"clan-rental-backend/internal/domain"
	"clan-rental-backend/internal/logger"
	"clan-rental-backend/internal/repository"
	"clan-rental-backend/internal/utils"
)

type itemService struct {
	tx           repository.Transactor
	itemRepo     repository.ItemRepository
	categoryRepo repository.CategoryRepository
	userRepo     repository.UserRepository
}

func NewItemService(
	tx repository.Transactor,
	itemRepo repository.ItemRepository,
	categoryRepo repository.CategoryRepository,
	userRepo repository.UserRepository,
) ItemService {
	return &itemService{
		tx:           tx,
		itemRepo:     itemRepo,
		categoryRepo: categoryRepo,
		userRepo:     userRepo,
	}
}

func (s *itemService) validate(ctx context.Context, in *ItemInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	if in.Name == "" {
		return invalid("item name is required")
	}
	if in.Quantity < 1 {
		return invalid("quantity must be at least 1")
	}
	if in.MarketRate < 0 {
		return invalid("market rate must not be negative")
	}
	if in.Availability != "" && !in.Availability.Valid() {
		return invalid("unknown availability %q", in.Availability)
	}
	if in.Category != "" {
		c, err := s.categoryRepo.GetByName(ctx, in.Category)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return invalid("unknown category %q", in.Category)
			}
			return err
		}
		in.Category = c.Name
	}
	return nil
}

func (s *itemService) CreateItem(ctx context.Context, actorID string, in ItemInput) (*domain.Item, error) {
	logger.EnterMethod("itemService.CreateItem", "actorID", actorID, "name", in.Name)
	if err := requireAdmin(ctx, s.userRepo, actorID); err != nil {
		return nil, err
	}
	if err := s.validate(ctx, &in); err != nil {
		logger.ExitMethodWithError("itemService.CreateItem", err)
		return nil, err
	}

	rates := utils.DeriveRates(in.MarketRate)
	availability := in.Availability
	if availability == "" {
		availability = domain.ItemAvailable
	}
	item := &domain.Item{
		Name:               in.Name,
		Category:           in.Category,
		ImageURL:           in.ImageURL,
		Availability:       availability,
		DailyRate:          rates.Daily,
		WeeklyRate:         rates.Weekly,
		MarketRate:         in.MarketRate,
		RequiredCollateral: rates.Collateral,
		Quantity:           in.Quantity,
		AvailableQuantity:  in.Quantity,
		CreatedBy:          actorID,
	}
	if err := s.itemRepo.Create(ctx, item); err != nil {
		logger.ExitMethodWithError("itemService.CreateItem", err)
		return nil, err
	}
	logger.ExitMethod("itemService.CreateItem", "itemID", item.ID)
	return item, nil
}

// UpdateItem re-derives the rates and reconciles the available quantity so the
// units currently out on rent are preserved.
func (s *itemService) UpdateItem(ctx context.Context, actorID string, id int32, in ItemInput) (*domain.Item, error) {
	logger.EnterMethod("itemService.UpdateItem", "actorID", actorID, "itemID", id)
	if err := requireAdmin(ctx, s.userRepo, actorID); err != nil {
		return nil, err
	}
	if err := s.validate(ctx, &in); err != nil {
		logger.ExitMethodWithError("itemService.UpdateItem", err)
		return nil, err
	}

	var item *domain.Item
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.itemRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return mapRepoErr(err, fmt.Sprintf("item %d", id))
		}

		rates := utils.DeriveRates(in.MarketRate)
		current.Name = in.Name
		current.Category = in.Category
		current.ImageURL = in.ImageURL
		current.MarketRate = in.MarketRate
		current.DailyRate = rates.Daily
		current.WeeklyRate = rates.Weekly
		current.RequiredCollateral = rates.Collateral
		soldOut := current.AvailableQuantity == 0
		current.AvailableQuantity = utils.ReconcileAvailable(current.Quantity, current.AvailableQuantity, in.Quantity)
		current.Quantity = in.Quantity
		if in.Availability != "" {
			current.Availability = in.Availability
		}
		switch {
		case current.AvailableQuantity == 0 && current.Availability == domain.ItemAvailable:
			current.Availability = domain.ItemUnavailable
		case soldOut && current.AvailableQuantity > 0 && current.Availability == domain.ItemUnavailable && in.Availability == "":
			// restocked after selling out
			current.Availability = domain.ItemAvailable
		}

		if err := s.itemRepo.Update(ctx, current); err != nil {
			return mapRepoErr(err, fmt.Sprintf("item %d", id))
		}
		item = current
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("itemService.UpdateItem", err, "itemID", id)
		return nil, err
	}
	logger.ExitMethod("itemService.UpdateItem", "itemID", id)
	return item, nil
}

// DeleteItem does not touch rentals referencing the item.
func (s *itemService) DeleteItem(ctx context.Context, actorID string, id int32) error {
	if err := requireAdmin(ctx, s.userRepo, actorID); err != nil {
		return err
	}
	return mapRepoErr(s.itemRepo.Delete(ctx, id), fmt.Sprintf("item %d", id))
}

func (s *itemService) GetItem(ctx context.Context, id int32) (*domain.Item, error) {
	item, err := s.itemRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, fmt.Sprintf("item %d", id))
	}
	return item, nil
}

func (s *itemService) ListItems(ctx context.Context, availability domain.ItemAvailability) ([]domain.Item, error) {
	if availability != "" && !availability.Valid() {
		return nil, invalid("unknown availability %q", availability)
	}
	return s.itemRepo.List(ctx, availability)
}
