package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tasklist/core/internal/domain/entities"
	"github.com/tasklist/core/internal/infrastructure/logger"
	"github.com/tasklist/core/internal/ports"
)

func statisticsKey(userID uuid.UUID) string {
	return "stats:" + userID.String()
}

// TodoService handles todo operations
type TodoService struct {
	todoRepo      ports.TodoRepository
	categoryRepo  ports.CategoryRepository
	cache         ports.CacheRepository
	reminders     *ReminderDispatcher
	statisticsTTL time.Duration
	logger        *logger.Logger
	now           func() time.Time
}

// NewTodoService creates a new todo service
func NewTodoService(
	todoRepo ports.TodoRepository,
	categoryRepo ports.CategoryRepository,
	cache ports.CacheRepository,
	reminders *ReminderDispatcher,
	statisticsTTL time.Duration,
	logger *logger.Logger,
) *TodoService {
	return &TodoService{
		todoRepo:      todoRepo,
		categoryRepo:  categoryRepo,
		cache:         cache,
		reminders:     reminders,
		statisticsTTL: statisticsTTL,
		logger:        logger.WithComponent("todos"),
		now:           time.Now,
	}
}

// Create creates a new todo owned by userID
func (s *TodoService) Create(ctx context.Context, userID uuid.UUID, req ports.CreateTodoRequest) (*entities.Todo, error) {
	if !req.Priority.IsValid() {
		return nil, entities.ErrInvalidPriority
	}

	var category *entities.Category
	if req.CategoryID != nil {
		c, err := s.categoryRepo.GetByID(ctx, *req.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("resolve category: %w", err)
		}
		category = c
	}

	todo := &entities.Todo{
		ID:         uuid.New(),
		Title:      req.Title,
		Priority:   req.Priority,
		DueDate:    req.DueDate,
		UserID:     userID,
		CategoryID: req.CategoryID,
	}

	if err := s.todoRepo.Create(ctx, todo); err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}
	todo.Category = category

	s.invalidateStatistics(ctx, userID)
	if todo.NeedsReminder(s.now()) {
		s.reminders.Schedule(reminderFor(todo))
	}

	s.logger.LogUserAction(userID, "create_todo", "todo_id", todo.ID, "priority", todo.Priority)

	return todo, nil
}

// List returns the caller's todos, newest first
func (s *TodoService) List(ctx context.Context, userID uuid.UUID, req ports.ListTodosRequest) ([]*entities.Todo, error) {
	filter := ports.TodoFilter{
		UserID:    userID,
		Completed: req.Filter.CompletedValue(),
		SortBy:    "created_at",
		SortOrder: "desc",
	}

	if req.PriorityFilter != "" && req.PriorityFilter != string(entities.StatusFilterAll) {
		p := entities.Priority(req.PriorityFilter)
		if !p.IsValid() {
			return nil, entities.ErrInvalidPriority
		}
		filter.Priority = &p
	}

	todos, err := s.todoRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	return todos, nil
}

// Update applies a partial update to one of the caller's todos
func (s *TodoService) Update(ctx context.Context, userID uuid.UUID, req ports.UpdateTodoRequest) (*entities.Todo, error) {
	todo, err := s.ownedTodo(ctx, userID, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		todo.Title = *req.Title
	}
	if req.Completed != nil {
		todo.Completed = *req.Completed
	}
	if req.Priority != nil {
		if !req.Priority.IsValid() {
			return nil, entities.ErrInvalidPriority
		}
		todo.Priority = *req.Priority
	}
	if req.DueDate.Set {
		todo.DueDate = req.DueDate.Value
	}
	if req.CategoryID.Set {
		todo.CategoryID = req.CategoryID.Value
		todo.Category = nil
		if req.CategoryID.Value != nil {
			category, err := s.categoryRepo.GetByID(ctx, *req.CategoryID.Value)
			if err != nil {
				return nil, fmt.Errorf("resolve category: %w", err)
			}
			todo.Category = category
		}
	}

	if err := s.todoRepo.Update(ctx, todo); err != nil {
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}

	s.invalidateStatistics(ctx, userID)
	s.syncReminder(todo)

	return todo, nil
}

// Delete permanently removes one of the caller's todos
func (s *TodoService) Delete(ctx context.Context, userID uuid.UUID, id uuid.UUID) error {
	if _, err := s.ownedTodo(ctx, userID, id); err != nil {
		return err
	}

	if err := s.todoRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}

	s.invalidateStatistics(ctx, userID)
	s.reminders.Cancel(id)

	s.logger.LogUserAction(userID, "delete_todo", "todo_id", id)
	return nil
}

// Search matches titles case-insensitively against the query as typed,
// surrounding spaces included. A blank query never reaches the store.
func (s *TodoService) Search(ctx context.Context, userID uuid.UUID, query string) ([]*entities.Todo, error) {
	if strings.TrimSpace(query) == "" {
		return []*entities.Todo{}, nil
	}

	todos, err := s.todoRepo.List(ctx, ports.TodoFilter{
		UserID:        userID,
		TitleContains: &query,
		SortBy:        "created_at",
		SortOrder:     "desc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search todos: %w", err)
	}
	return todos, nil
}

// Statistics aggregates the caller's todos, served from cache when possible
func (s *TodoService) Statistics(ctx context.Context, userID uuid.UUID) (*entities.TodoStatistics, error) {
	key := statisticsKey(userID)

	var cached entities.TodoStatistics
	err := s.cache.Get(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, ports.ErrCacheMiss) {
		s.logger.Warnw("Statistics cache read failed", "user_id", userID, "error", err)
	}

	now := s.now()
	stats, err := s.todoRepo.Statistics(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to compute statistics: %w", err)
	}
	stats.CompletionRate = entities.CompletionRate(stats.Completed, stats.Total, 1)

	// The overdue count goes stale once the next due date passes
	ttl := s.statisticsTTL
	if stats.NextDue != nil {
		if untilDue := stats.NextDue.Sub(now); untilDue < ttl {
			ttl = untilDue
		}
	}
	if ttl <= 0 {
		return stats, nil
	}

	if err := s.cache.Set(ctx, key, stats, ttl); err != nil {
		s.logger.Warnw("Statistics cache write failed", "user_id", userID, "error", err)
	}

	return stats, nil
}

// Overdue lists incomplete todos past their due date, earliest first
func (s *TodoService) Overdue(ctx context.Context, userID uuid.UUID) (*ports.OverdueResponse, error) {
	completed := false
	now := s.now()

	todos, err := s.todoRepo.List(ctx, ports.TodoFilter{
		UserID:    userID,
		Completed: &completed,
		DueBefore: &now,
		SortBy:    "due_date",
		SortOrder: "asc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue todos: %w", err)
	}

	resp := &ports.OverdueResponse{Todos: todos, Count: len(todos)}
	for _, todo := range todos {
		resp.GroupedByPriority.Add(todo.Priority)
	}
	return resp, nil
}

// ByCategory counts the caller's todos per category, with uncategorized last
func (s *TodoService) ByCategory(ctx context.Context, userID uuid.UUID) ([]entities.CategoryTodoCount, error) {
	counts, err := s.categoryRepo.ListWithTodoCounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count todos by category: %w", err)
	}

	uncategorized, err := s.todoRepo.CountUncategorized(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count uncategorized todos: %w", err)
	}

	return append(counts, entities.CategoryTodoCount{
		CategoryID:    entities.UncategorizedID,
		CategoryName:  entities.UncategorizedLabel,
		CategoryColor: entities.UncategorizedColor,
		TodoCount:     uncategorized,
	}), nil
}

// ownedTodo loads a todo and hides other owners' todos as not found
func (s *TodoService) ownedTodo(ctx context.Context, userID, id uuid.UUID) (*entities.Todo, error) {
	todo, err := s.todoRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !todo.IsOwnedBy(userID) {
		s.logger.LogSecurityEvent("foreign_todo_access", "user_id", userID, "todo_id", id)
		return nil, entities.ErrTodoNotFound
	}
	return todo, nil
}

func (s *TodoService) syncReminder(todo *entities.Todo) {
	if todo.NeedsReminder(s.now()) {
		s.reminders.Schedule(reminderFor(todo))
		return
	}
	s.reminders.Cancel(todo.ID)
}

func (s *TodoService) invalidateStatistics(ctx context.Context, userID uuid.UUID) {
	if err := s.cache.Delete(ctx, statisticsKey(userID)); err != nil {
		s.logger.Warnw("Statistics cache invalidation failed", "user_id", userID, "error", err)
	}
}

func reminderFor(todo *entities.Todo) ports.Reminder {
	return ports.Reminder{
		TodoID: todo.ID,
		UserID: todo.UserID,
		Title:  todo.Title,
		DueAt:  *todo.DueDate,
	}
}
