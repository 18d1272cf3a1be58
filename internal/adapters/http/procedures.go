package http

import (
	"context"

	"github.com/tasklist/core/internal/domain/entities"
	"github.com/tasklist/core/internal/ports"
)

// Services are the application services exposed over RPC.
type Services struct {
	Auth        ports.AuthService
	Users       ports.UserService
	Todos       ports.TodoService
	Categories  ports.CategoryService
	Tags        ports.TagService
	Comments    ports.CommentService
	Attachments ports.AttachmentService
	Reports     ports.ReportService
}

// RegisterProcedures mounts the full procedure catalogue on r.
func RegisterProcedures(r *Router, s Services) {
	registerAuth(r, s)
	registerTodos(r, s.Todos)
	registerCategories(r, s.Categories)
	registerTags(r, s.Tags)
	registerComments(r, s.Comments)
	registerAttachments(r, s.Attachments)
	registerReports(r, s.Reports)
}

func registerAuth(r *Router, s Services) {
	PublicMutation(r, "auth.register", s.Auth.Register)
	PublicMutation(r, "auth.login", s.Auth.Login)

	ProtectedQuery(r, "users.me", func(ctx context.Context, session Session, _ NoInput) (*ports.UserResponse, error) {
		user, err := s.Users.GetProfile(ctx, session.UserID)
		if err != nil {
			return nil, err
		}
		return &ports.UserResponse{User: user}, nil
	})

	ProtectedMutation(r, "users.updateProfilePhoto", func(ctx context.Context, session Session, in ports.UpdateProfilePhotoRequest) (*ports.UserResponse, error) {
		user, err := s.Users.UpdateProfilePhoto(ctx, session.UserID, in)
		if err != nil {
			return nil, err
		}
		return &ports.UserResponse{Success: true, User: user}, nil
	})
}

func registerTodos(r *Router, todos ports.TodoService) {
	ProtectedMutation(r, "todos.create", func(ctx context.Context, session Session, in ports.CreateTodoRequest) (*ports.TodoResponse, error) {
		todo, err := todos.Create(ctx, session.UserID, in)
		if err != nil {
			return nil, err
		}
		return &ports.TodoResponse{Success: true, Todo: todo}, nil
	})

	ProtectedQuery(r, "todos.list", func(ctx context.Context, session Session, in ports.ListTodosRequest) (*ports.TodoListResponse, error) {
		list, err := todos.List(ctx, session.UserID, in)
		if err != nil {
			return nil, err
		}
		return &ports.TodoListResponse{Todos: nonNil(list)}, nil
	})

	ProtectedMutation(r, "todos.update", func(ctx context.Context, session Session, in ports.UpdateTodoRequest) (*ports.TodoResponse, error) {
		todo, err := todos.Update(ctx, session.UserID, in)
		if err != nil {
			return nil, err
		}
		return &ports.TodoResponse{Success: true, Todo: todo}, nil
	})

	ProtectedMutation(r, "todos.delete", func(ctx context.Context, session Session, in ports.TodoIDRequest) (*ports.SuccessResponse, error) {
		if err := todos.Delete(ctx, session.UserID, in.ID); err != nil {
			return nil, err
		}
		return &ports.SuccessResponse{Success: true}, nil
	})

	ProtectedQuery(r, "todos.search", func(ctx context.Context, session Session, in ports.SearchTodosRequest) (*ports.SearchResponse, error) {
		found, err := todos.Search(ctx, session.UserID, in.Query)
		if err != nil {
			return nil, err
		}
		return &ports.SearchResponse{Todos: nonNil(found), Count: len(found)}, nil
	})

	ProtectedQuery(r, "todos.statistics", func(ctx context.Context, session Session, _ NoInput) (*ports.StatisticsResponse, error) {
		stats, err := todos.Statistics(ctx, session.UserID)
		if err != nil {
			return nil, err
		}
		return &ports.StatisticsResponse{Statistics: stats}, nil
	})

	ProtectedQuery(r, "todos.overdue", func(ctx context.Context, session Session, _ NoInput) (*ports.OverdueResponse, error) {
		overdue, err := todos.Overdue(ctx, session.UserID)
		if err != nil {
			return nil, err
		}
		overdue.Todos = nonNil(overdue.Todos)
		return overdue, nil
	})

	ProtectedQuery(r, "todos.byCategory", func(ctx context.Context, session Session, _ NoInput) (*ports.ByCategoryResponse, error) {
		counts, err := todos.ByCategory(ctx, session.UserID)
		if err != nil {
			return nil, err
		}
		return &ports.ByCategoryResponse{Categories: nonNil(counts)}, nil
	})
}

func registerCategories(r *Router, categories ports.CategoryService) {
	PublicQuery(r, "categories.list", func(ctx context.Context, _ NoInput) (*ports.CategoryListResponse, error) {
		list, err := categories.List(ctx)
		if err != nil {
			return nil, err
		}
		return &ports.CategoryListResponse{Categories: nonNil(list)}, nil
	})
}

func registerTags(r *Router, tags ports.TagService) {
	ProtectedMutation(r, "tags.create", func(ctx context.Context, session Session, in ports.CreateTagRequest) (*ports.TagResponse, error) {
		tag, err := tags.Create(ctx, session.UserID, in)
		if err != nil {
			return nil, err
		}
		return &ports.TagResponse{Tag: tag}, nil
	})

	ProtectedQuery(r, "tags.list", func(ctx context.Context, session Session, _ NoInput) (*ports.TagListResponse, error) {
		list, err := tags.List(ctx, session.UserID)
		if err != nil {
			return nil, err
		}
		return &ports.TagListResponse{Tags: nonNil(list)}, nil
	})

	ProtectedMutation(r, "tags.attach", func(ctx context.Context, session Session, in ports.TagTodoRequest) (*ports.SuccessResponse, error) {
		if err := tags.Attach(ctx, session.UserID, in); err != nil {
			return nil, err
		}
		return &ports.SuccessResponse{Success: true}, nil
	})

	ProtectedMutation(r, "tags.detach", func(ctx context.Context, session Session, in ports.TagTodoRequest) (*ports.SuccessResponse, error) {
		if err := tags.Detach(ctx, session.UserID, in); err != nil {
			return nil, err
		}
		return &ports.SuccessResponse{Success: true}, nil
	})
}

func registerComments(r *Router, comments ports.CommentService) {
	ProtectedMutation(r, "comments.create", func(ctx context.Context, session Session, in ports.CreateCommentRequest) (*ports.CommentResponse, error) {
		comment, err := comments.Create(ctx, session.UserID, in)
		if err != nil {
			return nil, err
		}
		return &ports.CommentResponse{Comment: comment}, nil
	})

	ProtectedQuery(r, "comments.list", func(ctx context.Context, session Session, in ports.TodoScopedRequest) (*ports.CommentListResponse, error) {
		list, err := comments.List(ctx, session.UserID, in.TodoID)
		if err != nil {
			return nil, err
		}
		return &ports.CommentListResponse{Comments: nonNil(list), Count: len(list)}, nil
	})
}

func registerAttachments(r *Router, attachments ports.AttachmentService) {
	ProtectedMutation(r, "attachments.create", func(ctx context.Context, session Session, in ports.CreateAttachmentRequest) (*entities.Attachment, error) {
		return attachments.Create(ctx, session.UserID, in)
	})

	ProtectedQuery(r, "attachments.list", func(ctx context.Context, session Session, in ports.TodoScopedRequest) (*ports.AttachmentListResponse, error) {
		list, err := attachments.List(ctx, session.UserID, in.TodoID)
		if err != nil {
			return nil, err
		}
		list.Attachments = nonNil(list.Attachments)
		return list, nil
	})

	ProtectedMutation(r, "attachments.delete", func(ctx context.Context, session Session, in ports.DeleteAttachmentRequest) (*ports.SuccessResponse, error) {
		if err := attachments.Delete(ctx, session.UserID, in.AttachmentID); err != nil {
			return nil, err
		}
		return &ports.SuccessResponse{Success: true}, nil
	})
}

func registerReports(r *Router, reports ports.ReportService) {
	ProtectedQuery(r, "reports.monthly", func(ctx context.Context, session Session, in ports.MonthlyReportRequest) (*ports.MonthlyReportResponse, error) {
		report, err := reports.Monthly(ctx, session.UserID, in)
		if err != nil {
			return nil, err
		}
		return &ports.MonthlyReportResponse{Report: report}, nil
	})
}

// nonNil keeps empty lists serialised as [] instead of null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
