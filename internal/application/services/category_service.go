package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tasklist/core/internal/domain/entities"
	"github.com/tasklist/core/internal/infrastructure/logger"
	"github.com/tasklist/core/internal/ports"
)

const categoriesKey = "categories"

// CategoryService serves the shared category catalogue
type CategoryService struct {
	categoryRepo ports.CategoryRepository
	cache        ports.CacheRepository
	ttl          time.Duration
	logger       *logger.Logger
}

// NewCategoryService creates a new category service
func NewCategoryService(categoryRepo ports.CategoryRepository, cache ports.CacheRepository, ttl time.Duration, logger *logger.Logger) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		cache:        cache,
		ttl:          ttl,
		logger:       logger.WithComponent("categories"),
	}
}

// List returns all categories by name
func (s *CategoryService) List(ctx context.Context) ([]*entities.Category, error) {
	var cached []*entities.Category
	err := s.cache.Get(ctx, categoriesKey, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ports.ErrCacheMiss) {
		s.logger.Warnw("Category cache read failed", "error", err)
	}

	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	if categories == nil {
		categories = []*entities.Category{}
	}

	if err := s.cache.Set(ctx, categoriesKey, categories, s.ttl); err != nil {
		s.logger.Warnw("Category cache write failed", "error", err)
	}
	return categories, nil
}

// Seed upserts categories by name and drops the cached catalogue
func (s *CategoryService) Seed(ctx context.Context, categories []*entities.Category) error {
	for _, c := range categories {
		if err := s.categoryRepo.Upsert(ctx, c); err != nil {
			return fmt.Errorf("seed category %q: %w", c.Name, err)
		}
	}
	if err := s.cache.Delete(ctx, categoriesKey); err != nil {
		s.logger.Warnw("Category cache invalidation failed", "error", err)
	}
	return nil
}
