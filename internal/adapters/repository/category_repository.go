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

// CategoryRepositoryImpl implements the CategoryRepository interface
type CategoryRepositoryImpl struct {
	db *sqlx.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *sqlx.DB) ports.CategoryRepository {
	return &CategoryRepositoryImpl{db: db}
}

func (r *CategoryRepositoryImpl) List(ctx context.Context) ([]*entities.Category, error) {
	query := `SELECT id, name, color, icon, created_at, updated_at FROM categories ORDER BY name ASC`

	var categories []*entities.Category
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (r *CategoryRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.Category, error) {
	query := `SELECT id, name, color, icon, created_at, updated_at FROM categories WHERE id = $1`

	var category entities.Category
	if err := r.db.GetContext(ctx, &category, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("get category by id: %w", err)
	}
	return &category, nil
}

// ListWithTodoCounts returns every category with the number of the user's todos in it, by name
func (r *CategoryRepositoryImpl) ListWithTodoCounts(ctx context.Context, userID uuid.UUID) ([]entities.CategoryTodoCount, error) {
	query := `
		SELECT c.id::text AS category_id, c.name AS category_name, c.color AS category_color,
			c.icon AS category_icon, COUNT(t.id) AS todo_count
		FROM categories c
		LEFT JOIN todos t ON t.category_id = c.id AND t.user_id = $1
		GROUP BY c.id, c.name, c.color, c.icon
		ORDER BY c.name ASC`

	var counts []entities.CategoryTodoCount
	if err := r.db.SelectContext(ctx, &counts, query, userID); err != nil {
		return nil, fmt.Errorf("list category todo counts: %w", err)
	}
	return counts, nil
}

// Upsert inserts the category or refreshes color and icon when the name exists
func (r *CategoryRepositoryImpl) Upsert(ctx context.Context, category *entities.Category) error {
	query := `
		INSERT INTO categories (id, name, color, icon)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE
			SET color = EXCLUDED.color, icon = EXCLUDED.icon, updated_at = CURRENT_TIMESTAMP
		RETURNING id, created_at, updated_at`

	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}

	err := r.db.QueryRowContext(ctx, query,
		category.ID, category.Name, category.Color, category.Icon,
	).Scan(&category.ID, &category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert category: %w", err)
	}
	return nil
}
