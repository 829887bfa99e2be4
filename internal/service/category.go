package service

import (
	"context"
	"errors"
	"strings"

	"clan-rental-backend/internal/domain"
	"clan-rental-backend/internal/repository"
)

type categoryService struct {
	categoryRepo repository.CategoryRepository
	userRepo     repository.UserRepository
}

func NewCategoryService(categoryRepo repository.CategoryRepository, userRepo repository.UserRepository) CategoryService {
	return &categoryService{categoryRepo: categoryRepo, userRepo: userRepo}
}

func (s *categoryService) CreateCategory(ctx context.Context, actorID, name string) (*domain.Category, error) {
	if err := requireAdmin(ctx, s.userRepo, actorID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("category name is required")
	}
	// Names are unique by convention only; reuse an existing one instead of duplicating.
	if existing, err := s.categoryRepo.GetByName(ctx, name); err == nil {
		return existing, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	c := &domain.Category{Name: name, CreatedBy: actorID}
	if err := s.categoryRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *categoryService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.categoryRepo.List(ctx)
}

// DeleteCategory leaves items that still carry the name untouched.
func (s *categoryService) DeleteCategory(ctx context.Context, actorID string, id int32) error {
	if err := requireAdmin(ctx, s.userRepo, actorID); err != nil {
		return err
	}
	return mapRepoErr(s.categoryRepo.Delete(ctx, id), "category")
}
