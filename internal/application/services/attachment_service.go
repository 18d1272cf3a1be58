package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tasklist/core/internal/domain/entities"
	"github.com/tasklist/core/internal/infrastructure/logger"
	"github.com/tasklist/core/internal/ports"
)

// AttachmentService handles file references on the caller's todos
type AttachmentService struct {
	attachmentRepo ports.AttachmentRepository
	todoRepo       ports.TodoRepository
	logger         *logger.Logger
}

// NewAttachmentService creates a new attachment service
func NewAttachmentService(attachmentRepo ports.AttachmentRepository, todoRepo ports.TodoRepository, logger *logger.Logger) *AttachmentService {
	return &AttachmentService{
		attachmentRepo: attachmentRepo,
		todoRepo:       todoRepo,
		logger:         logger.WithComponent("attachments"),
	}
}

func (s *AttachmentService) Create(ctx context.Context, userID uuid.UUID, req ports.CreateAttachmentRequest) (*entities.Attachment, error) {
	if err := requireOwnedTodo(ctx, s.todoRepo, userID, req.TodoID); err != nil {
		return nil, err
	}

	attachment := &entities.Attachment{
		ID:       uuid.New(),
		Filename: req.Filename,
		FileURL:  req.FileURL,
		FileType: req.FileType,
		FileSize: req.FileSize,
		TodoID:   req.TodoID,
		UserID:   userID,
	}
	if err := s.attachmentRepo.Create(ctx, attachment); err != nil {
		return nil, fmt.Errorf("failed to create attachment: %w", err)
	}

	s.logger.LogUserAction(userID, "create_attachment", "todo_id", req.TodoID, "file_type", req.FileType, "file_size", req.FileSize)
	return attachment, nil
}

// List returns a todo's attachments newest first with their combined size
func (s *AttachmentService) List(ctx context.Context, userID uuid.UUID, todoID uuid.UUID) (*ports.AttachmentListResponse, error) {
	if err := requireOwnedTodo(ctx, s.todoRepo, userID, todoID); err != nil {
		return nil, err
	}

	attachments, err := s.attachmentRepo.ListByTodo(ctx, todoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	if attachments == nil {
		attachments = []*entities.Attachment{}
	}

	var total int64
	for _, a := range attachments {
		total += a.FileSize
	}

	return &ports.AttachmentListResponse{
		Attachments: attachments,
		Count:       len(attachments),
		TotalSize:   total,
	}, nil
}

// Delete removes an attachment uploaded by the caller
func (s *AttachmentService) Delete(ctx context.Context, userID uuid.UUID, attachmentID uuid.UUID) error {
	attachment, err := s.attachmentRepo.GetByID(ctx, attachmentID)
	if err != nil {
		return err
	}
	if attachment.UserID != userID {
		return entities.ErrAttachmentNotFound
	}

	if err := s.attachmentRepo.Delete(ctx, attachmentID); err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	return nil
}
