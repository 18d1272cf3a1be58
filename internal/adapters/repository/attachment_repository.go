package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tasklist/core/internal/domain/entities"
	"github.com/tasklist/core/internal/ports"
)

const attachmentColumns = `id, filename, file_url, file_type, file_size, todo_id, user_id, created_at`

// AttachmentRepositoryImpl implements the AttachmentRepository interface
type AttachmentRepositoryImpl struct {
	db *sqlx.DB
}

// NewAttachmentRepository creates a new attachment repository
func NewAttachmentRepository(db *sqlx.DB) ports.AttachmentRepository {
	return &AttachmentRepositoryImpl{db: db}
}

func (r *AttachmentRepositoryImpl) Create(ctx context.Context, attachment *entities.Attachment) error {
	query := `
		INSERT INTO attachments (id, filename, file_url, file_type, file_size, todo_id, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	if attachment.ID == uuid.Nil {
		attachment.ID = uuid.New()
	}

	err := r.db.QueryRowContext(ctx, query,
		attachment.ID, attachment.Filename, attachment.FileURL, attachment.FileType,
		attachment.FileSize, attachment.TodoID, attachment.UserID,
	).Scan(&attachment.CreatedAt)
	if err != nil {
		return fmt.Errorf("create attachment: %w", err)
	}
	return nil
}

func (r *AttachmentRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.Attachment, error) {
	query := `SELECT ` + attachmentColumns + ` FROM attachments WHERE id = $1`

	var attachment entities.Attachment
	if err := r.db.GetContext(ctx, &attachment, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrAttachmentNotFound
		}
		return nil, fmt.Errorf("get attachment by id: %w", err)
	}
	return &attachment, nil
}

func (r *AttachmentRepositoryImpl) ListByTodo(ctx context.Context, todoID uuid.UUID) ([]*entities.Attachment, error) {
	query := `SELECT ` + attachmentColumns + ` FROM attachments WHERE todo_id = $1 ORDER BY created_at DESC`

	var attachments []*entities.Attachment
	if err := r.db.SelectContext(ctx, &attachments, query, todoID); err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	return attachments, nil
}

func (r *AttachmentRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM attachments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.ErrAttachmentNotFound
	}
	return nil
}
