package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tasklist/core/internal/domain/entities"
	"github.com/tasklist/core/internal/ports"
)

// CommentService handles comments on the caller's todos
type CommentService struct {
	commentRepo ports.CommentRepository
	todoRepo    ports.TodoRepository
}

// NewCommentService creates a new comment service
func NewCommentService(commentRepo ports.CommentRepository, todoRepo ports.TodoRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		todoRepo:    todoRepo,
	}
}

func (s *CommentService) Create(ctx context.Context, userID uuid.UUID, req ports.CreateCommentRequest) (*entities.Comment, error) {
	if err := requireOwnedTodo(ctx, s.todoRepo, userID, req.TodoID); err != nil {
		return nil, err
	}

	comment := &entities.Comment{
		ID:      uuid.New(),
		Content: req.Content,
		TodoID:  req.TodoID,
		UserID:  userID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return comment, nil
}

// List returns a todo's comments newest first
func (s *CommentService) List(ctx context.Context, userID uuid.UUID, todoID uuid.UUID) ([]*entities.Comment, error) {
	if err := requireOwnedTodo(ctx, s.todoRepo, userID, todoID); err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.ListByTodo(ctx, todoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	if comments == nil {
		comments = []*entities.Comment{}
	}
	return comments, nil
}

func requireOwnedTodo(ctx context.Context, todoRepo ports.TodoRepository, userID, todoID uuid.UUID) error {
	todo, err := todoRepo.GetByID(ctx, todoID)
	if err != nil {
		return err
	}
	if !todo.IsOwnedBy(userID) {
		return entities.ErrTodoNotFound
	}
	return nil
}
