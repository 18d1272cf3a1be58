package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tasklist/core/internal/domain/entities"
	"github.com/tasklist/core/internal/ports"
)

var todoColumns = []string{
	"t.id", "t.title", "t.completed", "t.priority", "t.due_date",
	"t.user_id", "t.category_id", "t.created_at", "t.updated_at",
	"c.name AS category_name", "c.color AS category_color", "c.icon AS category_icon",
	"c.created_at AS category_created_at", "c.updated_at AS category_updated_at",
}

var todoSortColumns = map[string]string{
	"created_at": "t.created_at",
	"updated_at": "t.updated_at",
	"due_date":   "t.due_date",
	"title":      "t.title",
}

// todoRow is a todo joined with its optional category
type todoRow struct {
	entities.Todo
	CategoryName      *string    `db:"category_name"`
	CategoryColor     *string    `db:"category_color"`
	CategoryIcon      *string    `db:"category_icon"`
	CategoryCreatedAt *time.Time `db:"category_created_at"`
	CategoryUpdatedAt *time.Time `db:"category_updated_at"`
}

func (row *todoRow) toEntity() *entities.Todo {
	todo := row.Todo
	if todo.CategoryID != nil && row.CategoryName != nil {
		category := &entities.Category{
			ID:   *todo.CategoryID,
			Name: *row.CategoryName,
			Icon: row.CategoryIcon,
		}
		if row.CategoryColor != nil {
			category.Color = *row.CategoryColor
		}
		if row.CategoryCreatedAt != nil {
			category.CreatedAt = *row.CategoryCreatedAt
		}
		if row.CategoryUpdatedAt != nil {
			category.UpdatedAt = *row.CategoryUpdatedAt
		}
		todo.Category = category
	}
	return &todo
}

// TodoRepositoryImpl implements the TodoRepository interface
type TodoRepositoryImpl struct {
	db *sqlx.DB
}

// NewTodoRepository creates a new todo repository
func NewTodoRepository(db *sqlx.DB) ports.TodoRepository {
	return &TodoRepositoryImpl{db: db}
}

func (r *TodoRepositoryImpl) Create(ctx context.Context, todo *entities.Todo) error {
	query := `
		INSERT INTO todos (id, title, completed, priority, due_date, user_id, category_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	if todo.ID == uuid.Nil {
		todo.ID = uuid.New()
	}

	err := r.db.QueryRowContext(ctx, query,
		todo.ID, todo.Title, todo.Completed, todo.Priority,
		todo.DueDate, todo.UserID, todo.CategoryID,
	).Scan(&todo.CreatedAt, &todo.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create todo: %w", err)
	}

	return nil
}

func (r *TodoRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.Todo, error) {
	query, args, err := r.selectTodos().Where(squirrel.Eq{"t.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build todo query: %w", err)
	}

	var row todoRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrTodoNotFound
		}
		return nil, fmt.Errorf("get todo by id: %w", err)
	}

	return row.toEntity(), nil
}

func (r *TodoRepositoryImpl) Update(ctx context.Context, todo *entities.Todo) error {
	query := `
		UPDATE todos
		SET title = $2, completed = $3, priority = $4, due_date = $5,
			category_id = $6, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		todo.ID, todo.Title, todo.Completed, todo.Priority, todo.DueDate, todo.CategoryID,
	).Scan(&todo.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entities.ErrTodoNotFound
		}
		return fmt.Errorf("update todo: %w", err)
	}

	return nil
}

func (r *TodoRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.ErrTodoNotFound
	}

	return nil
}

// List returns the filtered todos of one owner, newest first unless SortBy says otherwise
func (r *TodoRepositoryImpl) List(ctx context.Context, filter ports.TodoFilter) ([]*entities.Todo, error) {
	qb := r.selectTodos().Where(squirrel.Eq{"t.user_id": filter.UserID})

	if filter.Completed != nil {
		qb = qb.Where(squirrel.Eq{"t.completed": *filter.Completed})
	}
	if filter.Priority != nil {
		qb = qb.Where(squirrel.Eq{"t.priority": *filter.Priority})
	}
	if filter.TitleContains != nil {
		qb = qb.Where(squirrel.ILike{"t.title": "%" + escapeLike(*filter.TitleContains) + "%"})
	}
	if filter.DueBefore != nil {
		qb = qb.Where(squirrel.Lt{"t.due_date": *filter.DueBefore})
	}
	if filter.CreatedFrom != nil {
		qb = qb.Where(squirrel.GtOrEq{"t.created_at": *filter.CreatedFrom})
	}
	if filter.CreatedTo != nil {
		qb = qb.Where(squirrel.Lt{"t.created_at": *filter.CreatedTo})
	}
	if filter.UpdatedFrom != nil {
		qb = qb.Where(squirrel.GtOrEq{"t.updated_at": *filter.UpdatedFrom})
	}
	if filter.UpdatedTo != nil {
		qb = qb.Where(squirrel.Lt{"t.updated_at": *filter.UpdatedTo})
	}

	qb = qb.OrderBy(orderClause(filter.SortBy, filter.SortOrder))

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build todo list query: %w", err)
	}

	var rows []todoRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}

	todos := make([]*entities.Todo, 0, len(rows))
	for i := range rows {
		todos = append(todos, rows[i].toEntity())
	}
	return todos, nil
}

// Statistics counts a user's todos in one pass. Urgent includes completed todos.
func (r *TodoRepositoryImpl) Statistics(ctx context.Context, userID uuid.UUID, now time.Time) (*entities.TodoStatistics, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE completed) AS completed,
			COUNT(*) FILTER (WHERE NOT completed) AS active,
			COUNT(*) FILTER (WHERE priority = 'urgent') AS urgent,
			COUNT(*) FILTER (WHERE NOT completed AND due_date < $2) AS overdue,
			MIN(due_date) FILTER (WHERE NOT completed AND due_date >= $2) AS next_due
		FROM todos
		WHERE user_id = $1`

	var stats entities.TodoStatistics
	if err := r.db.GetContext(ctx, &stats, query, userID, now); err != nil {
		return nil, fmt.Errorf("todo statistics: %w", err)
	}

	return &stats, nil
}

func (r *TodoRepositoryImpl) CountUncategorized(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM todos WHERE user_id = $1 AND category_id IS NULL`
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("count uncategorized todos: %w", err)
	}
	return count, nil
}

func (r *TodoRepositoryImpl) selectTodos() squirrel.SelectBuilder {
	return psql.Select(todoColumns...).
		From("todos t").
		LeftJoin("categories c ON c.id = t.category_id")
}

func orderClause(sortBy, sortOrder string) string {
	column, ok := todoSortColumns[sortBy]
	if !ok {
		column = "t.created_at"
	}

	direction := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		direction = "ASC"
	}

	return column + " " + direction
}
