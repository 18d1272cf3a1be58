package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/tasklist/core/internal/domain/entities"
	"github.com/tasklist/core/internal/infrastructure/logger"
	"github.com/tasklist/core/internal/ports"
)

// TagService handles per-user tags
type TagService struct {
	tagRepo  ports.TagRepository
	todoRepo ports.TodoRepository
	logger   *logger.Logger
}

// NewTagService creates a new tag service
func NewTagService(tagRepo ports.TagRepository, todoRepo ports.TodoRepository, logger *logger.Logger) *TagService {
	return &TagService{
		tagRepo:  tagRepo,
		todoRepo: todoRepo,
		logger:   logger.WithComponent("tags"),
	}
}

func (s *TagService) Create(ctx context.Context, userID uuid.UUID, req ports.CreateTagRequest) (*entities.Tag, error) {
	existing, err := s.tagRepo.GetByName(ctx, userID, req.Name)
	if err == nil && existing != nil {
		return nil, entities.ErrDuplicateTag
	}
	if err != nil && !errors.Is(err, entities.ErrTagNotFound) {
		return nil, fmt.Errorf("failed to check tag name: %w", err)
	}

	tag := &entities.Tag{
		ID:     uuid.New(),
		Name:   req.Name,
		Color:  req.Color,
		UserID: userID,
	}
	if err := s.tagRepo.Create(ctx, tag); err != nil {
		if errors.Is(err, entities.ErrDuplicateTag) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}

	return tag, nil
}

func (s *TagService) List(ctx context.Context, userID uuid.UUID) ([]*entities.TagWithCount, error) {
	tags, err := s.tagRepo.ListWithCounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	if tags == nil {
		tags = []*entities.TagWithCount{}
	}
	return tags, nil
}

// Attach links one of the caller's tags to one of the caller's todos
func (s *TagService) Attach(ctx context.Context, userID uuid.UUID, req ports.TagTodoRequest) error {
	if err := s.checkOwnership(ctx, userID, req); err != nil {
		return err
	}
	if err := s.tagRepo.Attach(ctx, req.TodoID, req.TagID); err != nil {
		return fmt.Errorf("failed to attach tag: %w", err)
	}
	return nil
}

func (s *TagService) Detach(ctx context.Context, userID uuid.UUID, req ports.TagTodoRequest) error {
	if err := s.checkOwnership(ctx, userID, req); err != nil {
		return err
	}
	if err := s.tagRepo.Detach(ctx, req.TodoID, req.TagID); err != nil {
		return fmt.Errorf("failed to detach tag: %w", err)
	}
	return nil
}

func (s *TagService) checkOwnership(ctx context.Context, userID uuid.UUID, req ports.TagTodoRequest) error {
	todo, err := s.todoRepo.GetByID(ctx, req.TodoID)
	if err != nil {
		return err
	}
	if !todo.IsOwnedBy(userID) {
		return entities.ErrTodoNotFound
	}

	tag, err := s.tagRepo.GetByID(ctx, req.TagID)
	if err != nil {
		return err
	}
	if tag.UserID != userID {
		return entities.ErrTagNotFound
	}
	return nil
}
