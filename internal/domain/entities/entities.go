package entities

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrTodoNotFound       = errors.New("todo not found")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrTagNotFound        = errors.New("tag not found")
	ErrCommentNotFound    = errors.New("comment not found")
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrDuplicateTag       = errors.New("you already have a tag with this name")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidPriority    = errors.New("invalid priority")
	ErrInvalidPeriod      = errors.New("invalid report period")
)

// Uncategorized bucket used by category breakdowns.
const (
	UncategorizedID    = "uncategorized"
	UncategorizedLabel = "Sem categoria"
	UncategorizedColor = "#9CA3AF"
)

type Priority string

const (
	PriorityUrgent       Priority = "urgent"
	PriorityIntermediate Priority = "intermediate"
	PriorityNotUrgent    Priority = "not-urgent"
)

// Priorities lists every priority in display order.
var Priorities = []Priority{PriorityUrgent, PriorityIntermediate, PriorityNotUrgent}

// StatusFilter narrows todo listings by completion state.
type StatusFilter string

const (
	StatusFilterAll       StatusFilter = "all"
	StatusFilterActive    StatusFilter = "active"
	StatusFilterCompleted StatusFilter = "completed"
)

// User represents a registered account
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Name         string    `json:"name" db:"name"`
	Age          int       `json:"age" db:"age"`
	HowFound     string    `json:"howFound" db:"how_found"`
	ProfilePhoto *string   `json:"profilePhoto" db:"profile_photo"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// Category is a global, shared grouping for todos
type Category struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Color     string    `json:"color" db:"color"`
	Icon      *string   `json:"icon" db:"icon"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Todo represents a user-owned task
type Todo struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	Title      string     `json:"title" db:"title"`
	Completed  bool       `json:"completed" db:"completed"`
	Priority   Priority   `json:"priority" db:"priority"`
	DueDate    *time.Time `json:"dueDate" db:"due_date"`
	UserID     uuid.UUID  `json:"userId" db:"user_id"`
	CategoryID *uuid.UUID `json:"categoryId" db:"category_id"`
	Category   *Category  `json:"category" db:"-"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time  `json:"updatedAt" db:"updated_at"`
}

// Tag is a per-user label that can be attached to todos
type Tag struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Color     string    `json:"color" db:"color"`
	UserID    uuid.UUID `json:"userId" db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// TagWithCount is a tag together with the number of todos carrying it
type TagWithCount struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Color     string    `json:"color" db:"color"`
	TodoCount int       `json:"todoCount" db:"todo_count"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// CommentAuthor holds the public profile fields of a commenter
type CommentAuthor struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	ProfilePhoto *string   `json:"profilePhoto"`
}

// Comment is a note left on a todo
type Comment struct {
	ID        uuid.UUID      `json:"id" db:"id"`
	Content   string         `json:"content" db:"content"`
	TodoID    uuid.UUID      `json:"todoId" db:"todo_id"`
	UserID    uuid.UUID      `json:"userId" db:"user_id"`
	User      *CommentAuthor `json:"user" db:"-"`
	CreatedAt time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time      `json:"updatedAt" db:"updated_at"`
}

// Attachment is a file reference attached to a todo. FileURL may be a data URI.
type Attachment struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Filename  string    `json:"filename" db:"filename"`
	FileURL   string    `json:"fileUrl" db:"file_url"`
	FileType  string    `json:"fileType" db:"file_type"`
	FileSize  int64     `json:"fileSize" db:"file_size"`
	TodoID    uuid.UUID `json:"todoId" db:"todo_id"`
	UserID    uuid.UUID `json:"userId" db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// TodoStatistics aggregates a user's todos
type TodoStatistics struct {
	Total          int     `json:"total" db:"total"`
	Completed      int     `json:"completed" db:"completed"`
	Active         int     `json:"active" db:"active"`
	Urgent         int     `json:"urgent" db:"urgent"`
	Overdue        int     `json:"overdue" db:"overdue"`
	CompletionRate float64 `json:"completionRate" db:"-"`

	// NextDue is the earliest due date of an open todo not yet overdue.
	// Overdue changes when it passes.
	NextDue *time.Time `json:"-" db:"next_due"`
}

// CategoryTodoCount is the number of a user's todos in one category
type CategoryTodoCount struct {
	CategoryID    string  `json:"categoryId" db:"category_id"`
	CategoryName  string  `json:"categoryName" db:"category_name"`
	CategoryColor string  `json:"categoryColor" db:"category_color"`
	CategoryIcon  *string `json:"categoryIcon" db:"category_icon"`
	TodoCount     int     `json:"todoCount" db:"todo_count"`
}

// PriorityBreakdown counts todos per priority
type PriorityBreakdown struct {
	Urgent       int `json:"urgent"`
	Intermediate int `json:"intermediate"`
	NotUrgent    int `json:"notUrgent"`
}

// Add increments the counter for p. Unknown priorities are ignored.
func (b *PriorityBreakdown) Add(p Priority) {
	switch p {
	case PriorityUrgent:
		b.Urgent++
	case PriorityIntermediate:
		b.Intermediate++
	case PriorityNotUrgent:
		b.NotUrgent++
	}
}

// Business logic methods for Todo
func (t *Todo) IsOwnedBy(userID uuid.UUID) bool {
	return t.UserID == userID
}

func (t *Todo) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Completed {
		return false
	}
	return t.DueDate.Before(now)
}

// NeedsReminder reports whether a reminder should be pending for the todo.
func (t *Todo) NeedsReminder(now time.Time) bool {
	return !t.Completed && t.DueDate != nil && t.DueDate.After(now)
}

// Utility methods
func (p Priority) IsValid() bool {
	switch p {
	case PriorityUrgent, PriorityIntermediate, PriorityNotUrgent:
		return true
	default:
		return false
	}
}

func (f StatusFilter) IsValid() bool {
	switch f {
	case StatusFilterAll, StatusFilterActive, StatusFilterCompleted:
		return true
	default:
		return false
	}
}

// CompletedValue maps the filter onto a completed-column predicate; nil means no predicate.
func (f StatusFilter) CompletedValue() *bool {
	var v bool
	switch f {
	case StatusFilterActive:
		v = false
	case StatusFilterCompleted:
		v = true
	default:
		return nil
	}
	return &v
}

// CompletionRate returns part/total as a percentage rounded to the given decimals, or 0 when total is 0.
func CompletionRate(part, total, decimals int) float64 {
	if total <= 0 {
		return 0
	}
	scale := 1.0
	for i := 0; i < decimals; i++ {
		scale *= 10
	}
	return math.Round(float64(part)/float64(total)*100*scale) / scale
}
