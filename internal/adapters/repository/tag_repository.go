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

// TagRepositoryImpl implements the TagRepository interface
type TagRepositoryImpl struct {
	db *sqlx.DB
}

// NewTagRepository creates a new tag repository
func NewTagRepository(db *sqlx.DB) ports.TagRepository {
	return &TagRepositoryImpl{db: db}
}

func (r *TagRepositoryImpl) Create(ctx context.Context, tag *entities.Tag) error {
	query := `
		INSERT INTO tags (id, name, color, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	if tag.ID == uuid.Nil {
		tag.ID = uuid.New()
	}

	err := r.db.QueryRowContext(ctx, query, tag.ID, tag.Name, tag.Color, tag.UserID).Scan(&tag.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return entities.ErrDuplicateTag
		}
		return fmt.Errorf("create tag: %w", err)
	}
	return nil
}

func (r *TagRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.Tag, error) {
	query := `SELECT id, name, color, user_id, created_at FROM tags WHERE id = $1`

	var tag entities.Tag
	if err := r.db.GetContext(ctx, &tag, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrTagNotFound
		}
		return nil, fmt.Errorf("get tag by id: %w", err)
	}
	return &tag, nil
}

func (r *TagRepositoryImpl) GetByName(ctx context.Context, userID uuid.UUID, name string) (*entities.Tag, error) {
	query := `SELECT id, name, color, user_id, created_at FROM tags WHERE user_id = $1 AND name = $2`

	var tag entities.Tag
	if err := r.db.GetContext(ctx, &tag, query, userID, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrTagNotFound
		}
		return nil, fmt.Errorf("get tag by name: %w", err)
	}
	return &tag, nil
}

func (r *TagRepositoryImpl) ListWithCounts(ctx context.Context, userID uuid.UUID) ([]*entities.TagWithCount, error) {
	query := `
		SELECT tg.id, tg.name, tg.color, tg.created_at, COUNT(tt.todo_id) AS todo_count
		FROM tags tg
		LEFT JOIN todo_tags tt ON tt.tag_id = tg.id
		WHERE tg.user_id = $1
		GROUP BY tg.id, tg.name, tg.color, tg.created_at
		ORDER BY tg.name ASC`

	var tags []*entities.TagWithCount
	if err := r.db.SelectContext(ctx, &tags, query, userID); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// Attach links a tag to a todo; attaching twice is a no-op
func (r *TagRepositoryImpl) Attach(ctx context.Context, todoID, tagID uuid.UUID) error {
	query := `INSERT INTO todo_tags (todo_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, todoID, tagID); err != nil {
		return fmt.Errorf("attach tag: %w", err)
	}
	return nil
}

func (r *TagRepositoryImpl) Detach(ctx context.Context, todoID, tagID uuid.UUID) error {
	query := `DELETE FROM todo_tags WHERE todo_id = $1 AND tag_id = $2`
	if _, err := r.db.ExecContext(ctx, query, todoID, tagID); err != nil {
		return fmt.Errorf("detach tag: %w", err)
	}
	return nil
}
