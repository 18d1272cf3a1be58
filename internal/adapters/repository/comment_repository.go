package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tasklist/core/internal/domain/entities"
	"github.com/tasklist/core/internal/ports"
)

type commentRow struct {
	entities.Comment
	AuthorName         string  `db:"author_name"`
	AuthorEmail        string  `db:"author_email"`
	AuthorProfilePhoto *string `db:"author_profile_photo"`
}

func (row *commentRow) toEntity() *entities.Comment {
	comment := row.Comment
	comment.User = &entities.CommentAuthor{
		ID:           comment.UserID,
		Name:         row.AuthorName,
		Email:        row.AuthorEmail,
		ProfilePhoto: row.AuthorProfilePhoto,
	}
	return &comment
}

// CommentRepositoryImpl implements the CommentRepository interface
type CommentRepositoryImpl struct {
	db *sqlx.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *sqlx.DB) ports.CommentRepository {
	return &CommentRepositoryImpl{db: db}
}

// Create inserts the comment and fills in its author
func (r *CommentRepositoryImpl) Create(ctx context.Context, comment *entities.Comment) error {
	query := `
		WITH inserted AS (
			INSERT INTO comments (id, content, todo_id, user_id)
			VALUES ($1, $2, $3, $4)
			RETURNING created_at, updated_at, user_id
		)
		SELECT i.created_at, i.updated_at, u.name, u.email, u.profile_photo
		FROM inserted i JOIN users u ON u.id = i.user_id`

	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}

	var (
		createdAt, updatedAt time.Time
		author               entities.CommentAuthor
	)
	err := r.db.QueryRowContext(ctx, query,
		comment.ID, comment.Content, comment.TodoID, comment.UserID,
	).Scan(&createdAt, &updatedAt, &author.Name, &author.Email, &author.ProfilePhoto)
	if err != nil {
		return fmt.Errorf("create comment: %w", err)
	}

	author.ID = comment.UserID
	comment.CreatedAt = createdAt
	comment.UpdatedAt = updatedAt
	comment.User = &author
	return nil
}

func (r *CommentRepositoryImpl) ListByTodo(ctx context.Context, todoID uuid.UUID) ([]*entities.Comment, error) {
	query := `
		SELECT cm.id, cm.content, cm.todo_id, cm.user_id, cm.created_at, cm.updated_at,
			u.name AS author_name, u.email AS author_email, u.profile_photo AS author_profile_photo
		FROM comments cm
		JOIN users u ON u.id = cm.user_id
		WHERE cm.todo_id = $1
		ORDER BY cm.created_at DESC`

	var rows []commentRow
	if err := r.db.SelectContext(ctx, &rows, query, todoID); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	comments := make([]*entities.Comment, 0, len(rows))
	for i := range rows {
		comments = append(comments, rows[i].toEntity())
	}
	return comments, nil
}
