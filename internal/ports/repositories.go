package ports

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tasklist/core/internal/domain/entities"
)

// ErrCacheMiss is returned by CacheRepository.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	UpdateProfilePhoto(ctx context.Context, id uuid.UUID, photo *string) (*entities.User, error)
}

// TodoRepository defines the interface for todo data operations
type TodoRepository interface {
	Create(ctx context.Context, todo *entities.Todo) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Todo, error)
	Update(ctx context.Context, todo *entities.Todo) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter TodoFilter) ([]*entities.Todo, error)
	Statistics(ctx context.Context, userID uuid.UUID, now time.Time) (*entities.TodoStatistics, error)
	CountUncategorized(ctx context.Context, userID uuid.UUID) (int, error)
}

// CategoryRepository defines the interface for category data operations
type CategoryRepository interface {
	List(ctx context.Context) ([]*entities.Category, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Category, error)
	ListWithTodoCounts(ctx context.Context, userID uuid.UUID) ([]entities.CategoryTodoCount, error)
	Upsert(ctx context.Context, category *entities.Category) error
}

// TagRepository defines the interface for tag data operations
type TagRepository interface {
	Create(ctx context.Context, tag *entities.Tag) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Tag, error)
	GetByName(ctx context.Context, userID uuid.UUID, name string) (*entities.Tag, error)
	ListWithCounts(ctx context.Context, userID uuid.UUID) ([]*entities.TagWithCount, error)
	Attach(ctx context.Context, todoID, tagID uuid.UUID) error
	Detach(ctx context.Context, todoID, tagID uuid.UUID) error
}

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *entities.Comment) error
	ListByTodo(ctx context.Context, todoID uuid.UUID) ([]*entities.Comment, error)
}

// AttachmentRepository defines the interface for attachment data operations
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *entities.Attachment) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Attachment, error)
	ListByTodo(ctx context.Context, todoID uuid.UUID) ([]*entities.Attachment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) error
}

// ReminderScheduler hands due-date reminders to the notification side.
// Calls are one-way: callers never depend on the outcome.
type ReminderScheduler interface {
	Schedule(ctx context.Context, reminder Reminder) error
	Cancel(ctx context.Context, todoID uuid.UUID) error
}

// Reminder is a one-shot notification request for a todo's due date
type Reminder struct {
	TodoID uuid.UUID `json:"todo_id"`
	UserID uuid.UUID `json:"user_id"`
	Title  string    `json:"title"`
	DueAt  time.Time `json:"due_at"`
}

// TodoFilter narrows todo queries. Time windows are half-open: [From, To).
type TodoFilter struct {
	UserID        uuid.UUID
	Completed     *bool
	Priority      *entities.Priority
	TitleContains *string
	DueBefore     *time.Time
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	UpdatedFrom   *time.Time
	UpdatedTo     *time.Time
	SortBy        string
	SortOrder     string
}
