package ports

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/tasklist/core/internal/domain/entities"
)

// AuthService interface for authentication operations
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// UserService interface for profile operations
type UserService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*entities.User, error)
	UpdateProfilePhoto(ctx context.Context, userID uuid.UUID, req UpdateProfilePhotoRequest) (*entities.User, error)
}

// TodoService interface for todo operations
type TodoService interface {
	Create(ctx context.Context, userID uuid.UUID, req CreateTodoRequest) (*entities.Todo, error)
	List(ctx context.Context, userID uuid.UUID, req ListTodosRequest) ([]*entities.Todo, error)
	Update(ctx context.Context, userID uuid.UUID, req UpdateTodoRequest) (*entities.Todo, error)
	Delete(ctx context.Context, userID uuid.UUID, id uuid.UUID) error
	Search(ctx context.Context, userID uuid.UUID, query string) ([]*entities.Todo, error)
	Statistics(ctx context.Context, userID uuid.UUID) (*entities.TodoStatistics, error)
	Overdue(ctx context.Context, userID uuid.UUID) (*OverdueResponse, error)
	ByCategory(ctx context.Context, userID uuid.UUID) ([]entities.CategoryTodoCount, error)
}

// CategoryService interface for category operations
type CategoryService interface {
	List(ctx context.Context) ([]*entities.Category, error)
}

// TagService interface for tag operations
type TagService interface {
	Create(ctx context.Context, userID uuid.UUID, req CreateTagRequest) (*entities.Tag, error)
	List(ctx context.Context, userID uuid.UUID) ([]*entities.TagWithCount, error)
	Attach(ctx context.Context, userID uuid.UUID, req TagTodoRequest) error
	Detach(ctx context.Context, userID uuid.UUID, req TagTodoRequest) error
}

// CommentService interface for comment operations
type CommentService interface {
	Create(ctx context.Context, userID uuid.UUID, req CreateCommentRequest) (*entities.Comment, error)
	List(ctx context.Context, userID uuid.UUID, todoID uuid.UUID) ([]*entities.Comment, error)
}

// AttachmentService interface for attachment operations
type AttachmentService interface {
	Create(ctx context.Context, userID uuid.UUID, req CreateAttachmentRequest) (*entities.Attachment, error)
	List(ctx context.Context, userID uuid.UUID, todoID uuid.UUID) (*AttachmentListResponse, error)
	Delete(ctx context.Context, userID uuid.UUID, attachmentID uuid.UUID) error
}

// ReportService interface for reporting operations
type ReportService interface {
	Monthly(ctx context.Context, userID uuid.UUID, req MonthlyReportRequest) (*MonthlyReport, error)
}

// Request/Response Types

// Auth related types
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required,min=1"`
	Age      int    `json:"age" validate:"required,min=1"`
	HowFound string `json:"howFound" validate:"required,min=1"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Success   bool           `json:"success"`
	User      *entities.User `json:"user"`
	Token     string         `json:"token"`
	TokenType string         `json:"tokenType"`
	ExpiresIn int64          `json:"expiresIn"`
}

type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}

type UpdateProfilePhotoRequest struct {
	ProfilePhoto *string `json:"profilePhoto" validate:"omitempty,min=1"`
}

// Todo related types
type CreateTodoRequest struct {
	Title      string            `json:"title" validate:"required,min=1"`
	Priority   entities.Priority `json:"priority" validate:"required,oneof=urgent intermediate not-urgent"`
	DueDate    *time.Time        `json:"dueDate"`
	CategoryID *uuid.UUID        `json:"categoryId"`
}

type ListTodosRequest struct {
	Filter         entities.StatusFilter `json:"filter" validate:"omitempty,oneof=all active completed"`
	PriorityFilter string                `json:"priorityFilter" validate:"omitempty,oneof=all urgent intermediate not-urgent"`
}

// UpdateTodoRequest is a partial update. DueDate and CategoryID distinguish
// an explicit null (clear) from an omitted field (keep).
type UpdateTodoRequest struct {
	ID         uuid.UUID           `json:"id" validate:"required"`
	Completed  *bool               `json:"completed"`
	Title      *string             `json:"title" validate:"omitempty,min=1"`
	Priority   *entities.Priority  `json:"priority" validate:"omitempty,oneof=urgent intermediate not-urgent"`
	DueDate    Nullable[time.Time] `json:"dueDate"`
	CategoryID Nullable[uuid.UUID] `json:"categoryId"`
}

type TodoIDRequest struct {
	ID uuid.UUID `json:"id" validate:"required"`
}

type SearchTodosRequest struct {
	Query string `json:"query"`
}

type TodoResponse struct {
	Success bool           `json:"success"`
	Todo    *entities.Todo `json:"todo"`
}

type TodoListResponse struct {
	Todos []*entities.Todo `json:"todos"`
}

type SearchResponse struct {
	Todos []*entities.Todo `json:"todos"`
	Count int              `json:"count"`
}

type StatisticsResponse struct {
	Statistics *entities.TodoStatistics `json:"statistics"`
}

type OverdueResponse struct {
	Todos             []*entities.Todo           `json:"todos"`
	Count             int                        `json:"count"`
	GroupedByPriority entities.PriorityBreakdown `json:"groupedByPriority"`
}

type ByCategoryResponse struct {
	Categories []entities.CategoryTodoCount `json:"categories"`
}

type CategoryListResponse struct {
	Categories []*entities.Category `json:"categories"`
}

// Tag related types
type CreateTagRequest struct {
	Name  string `json:"name" validate:"required,min=1"`
	Color string `json:"color" validate:"required,rgbhex"`
}

type TagTodoRequest struct {
	TodoID uuid.UUID `json:"todoId" validate:"required"`
	TagID  uuid.UUID `json:"tagId" validate:"required"`
}

type TagResponse struct {
	Tag *entities.Tag `json:"tag"`
}

type TagListResponse struct {
	Tags []*entities.TagWithCount `json:"tags"`
}

// Comment related types
type CreateCommentRequest struct {
	TodoID  uuid.UUID `json:"todoId" validate:"required"`
	Content string    `json:"content" validate:"required,min=1"`
}

type TodoScopedRequest struct {
	TodoID uuid.UUID `json:"todoId" validate:"required"`
}

type CommentResponse struct {
	Comment *entities.Comment `json:"comment"`
}

type CommentListResponse struct {
	Comments []*entities.Comment `json:"comments"`
	Count    int                 `json:"count"`
}

// Attachment related types
type CreateAttachmentRequest struct {
	TodoID   uuid.UUID `json:"todoId" validate:"required"`
	Filename string    `json:"filename" validate:"required,min=1"`
	FileURL  string    `json:"fileUrl" validate:"required,min=1"`
	FileType string    `json:"fileType" validate:"required,min=1"`
	FileSize int64     `json:"fileSize" validate:"required,min=1"`
}

type DeleteAttachmentRequest struct {
	AttachmentID uuid.UUID `json:"attachmentId" validate:"required"`
}

type AttachmentListResponse struct {
	Attachments []*entities.Attachment `json:"attachments"`
	Count       int                    `json:"count"`
	TotalSize   int64                  `json:"totalSize"`
}

// Report related types
type MonthlyReportRequest struct {
	Year  int `json:"year" validate:"required,min=2020,max=2100"`
	Month int `json:"month" validate:"required,min=1,max=12"`
}

type MonthlyReport struct {
	Period     ReportPeriod               `json:"period"`
	Summary    ReportSummary              `json:"summary"`
	ByPriority entities.PriorityBreakdown `json:"byPriority"`
	ByCategory map[string]int             `json:"byCategory"`
}

type ReportPeriod struct {
	Month     int       `json:"month"`
	Year      int       `json:"year"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

type ReportSummary struct {
	TotalCreated   int     `json:"totalCreated"`
	TotalCompleted int     `json:"totalCompleted"`
	CompletionRate float64 `json:"completionRate"`
	Pending        int     `json:"pending"`
}

type MonthlyReportResponse struct {
	Report *MonthlyReport `json:"report"`
}

// Common response types
type SuccessResponse struct {
	Success bool `json:"success"`
}

type UserResponse struct {
	Success bool           `json:"success,omitempty"`
	User    *entities.User `json:"user"`
}

// Nullable carries a JSON field that may be absent, null, or a value.
// Set is true whenever the key was present; Value is nil for an explicit null.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// NullOf returns a Nullable holding v.
func NullOf[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

// Null returns a Nullable holding an explicit null.
func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}
