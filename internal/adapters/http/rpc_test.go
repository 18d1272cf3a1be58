package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasklist/core/internal/domain/entities"
	"github.com/tasklist/core/internal/infrastructure/logger"
	"github.com/tasklist/core/internal/infrastructure/validation"
	"github.com/tasklist/core/internal/ports"
)

var testUserID = uuid.MustParse("5f1c1c1e-8a4b-4d0c-9a55-0c3b3b7f2a10")

const validToken = "valid-token"

type stubAuth struct{}

func (stubAuth) Register(_ context.Context, req ports.RegisterRequest) (*ports.AuthResponse, error) {
	if req.Email == "taken@example.com" {
		return nil, fmt.Errorf("register: %w", entities.ErrDuplicateEmail)
	}
	return &ports.AuthResponse{Success: true, User: &entities.User{ID: testUserID, Email: req.Email}, Token: validToken, TokenType: "Bearer"}, nil
}

func (stubAuth) Login(context.Context, ports.LoginRequest) (*ports.AuthResponse, error) {
	return nil, entities.ErrInvalidCredentials
}

func (stubAuth) ValidateToken(token string) (*ports.Claims, error) {
	if token != validToken {
		return nil, entities.ErrUnauthorized
	}
	return &ports.Claims{UserID: testUserID, Email: "ana@example.com"}, nil
}

type stubTodos struct {
	ports.TodoService
	lastUpdate ports.UpdateTodoRequest
}

func (s *stubTodos) List(_ context.Context, userID uuid.UUID, _ ports.ListTodosRequest) ([]*entities.Todo, error) {
	if userID != testUserID {
		return nil, errors.New("wrong session")
	}
	return nil, nil
}

func (s *stubTodos) Update(_ context.Context, userID uuid.UUID, req ports.UpdateTodoRequest) (*entities.Todo, error) {
	s.lastUpdate = req
	// only the todo sharing the test user's id exists
	if req.ID != testUserID {
		return nil, fmt.Errorf("update todo: %w", entities.ErrTodoNotFound)
	}
	return &entities.Todo{ID: req.ID, Title: "updated", UserID: userID, Priority: entities.PriorityUrgent}, nil
}

func (s *stubTodos) Statistics(context.Context, uuid.UUID) (*entities.TodoStatistics, error) {
	return nil, errors.New("connection refused")
}

type echoInput struct {
	Text string `json:"text" validate:"required"`
}

func newTestServer(t *testing.T) (*echo.Echo, *stubTodos) {
	t.Helper()

	todos := &stubTodos{}
	router := NewRouter(stubAuth{}, validation.New(), logger.NewNop())
	RegisterProcedures(router, Services{Auth: stubAuth{}, Todos: todos})
	PublicQuery(router, "test.echo", func(_ context.Context, in echoInput) (map[string]string, error) {
		return map[string]string{"text": strings.ToUpper(in.Text)}, nil
	})

	e := echo.New()
	e.GET("/trpc/:path", router.Handle)
	e.POST("/trpc/:path", router.Handle)
	return e, todos
}

func query(e *echo.Echo, path, input, token string) *httptest.ResponseRecorder {
	target := "/trpc/" + path
	if input != "" {
		target += "?input=" + url.QueryEscape(input)
	}
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func mutate(e *echo.Echo, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/trpc/"+path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type wireError struct {
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
		Data    struct {
			Kind       string `json:"kind"`
			Code       string `json:"code"`
			HTTPStatus int    `json:"httpStatus"`
			Path       string `json:"path"`
		} `json:"data"`
	} `json:"error"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) wireError {
	t.Helper()
	var out wireError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestRouterSuccessEnvelope(t *testing.T) {
	e, _ := newTestServer(t)

	rec := query(e, "test.echo", `{"text":"hello"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"result":{"data":{"text":"HELLO"}}}`, rec.Body.String())
}

func TestRouterRegisterMapsDuplicateEmail(t *testing.T) {
	e, _ := newTestServer(t)

	ok := mutate(e, "auth.register", `{"email":"ana@example.com","password":"secret1","name":"Ana","age":30,"howFound":"Friend"}`, "")
	require.Equal(t, http.StatusOK, ok.Code)

	dup := mutate(e, "auth.register", `{"email":"taken@example.com","password":"secret1","name":"Ana","age":30,"howFound":"Friend"}`, "")
	assert.Equal(t, http.StatusConflict, dup.Code)
	out := decodeError(t, dup)
	assert.Equal(t, KindDuplicateEmail, out.Error.Data.Kind)
	assert.Equal(t, CodeConflict, out.Error.Data.Code)
	assert.Equal(t, -32009, out.Error.Code)
	assert.Equal(t, "auth.register", out.Error.Data.Path)
}

func TestRouterValidation(t *testing.T) {
	e, _ := newTestServer(t)

	cases := map[string]string{
		"short password":  `{"email":"ana@example.com","password":"123","name":"Ana","age":30,"howFound":"Friend"}`,
		"malformed json":  `{"email":`,
		"missing payload": ``,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := mutate(e, "auth.register", body, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, KindValidation, decodeError(t, rec).Error.Data.Kind)
		})
	}
}

func TestRouterProtectedProcedures(t *testing.T) {
	e, _ := newTestServer(t)

	t.Run("missing token", func(t *testing.T) {
		rec := query(e, "todos.list", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		out := decodeError(t, rec)
		assert.Equal(t, KindUnauthorized, out.Error.Data.Kind)
		assert.Equal(t, "todos.list", out.Error.Data.Path)
	})

	t.Run("bad token", func(t *testing.T) {
		rec := query(e, "todos.list", "", "forged")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token reaches the service with the session user", func(t *testing.T) {
		rec := query(e, "todos.list", `{"filter":"active"}`, validToken)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"result":{"data":{"todos":[]}}}`, rec.Body.String())
	})

	t.Run("public procedure ignores a bad token", func(t *testing.T) {
		rec := query(e, "test.echo", `{"text":"x"}`, "forged")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRouterMethodAndPathErrors(t *testing.T) {
	e, _ := newTestServer(t)

	rec := query(e, "auth.login", `{"email":"a@b.co","password":"x"}`, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, KindMethodNotSupported, decodeError(t, rec).Error.Data.Kind)

	rec = mutate(e, "todos.list", `{}`, validToken)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = query(e, "todos.nope", "", validToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	out := decodeError(t, rec)
	assert.Equal(t, KindNotFound, out.Error.Data.Kind)
	assert.Contains(t, out.Error.Message, "todos.nope")
}

func TestRouterHidesInternalErrors(t *testing.T) {
	e, _ := newTestServer(t)

	rec := query(e, "todos.statistics", "", validToken)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	out := decodeError(t, rec)
	assert.Equal(t, KindInternal, out.Error.Data.Kind)
	assert.Equal(t, internalMessage, out.Error.Message)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestRouterUpdateDistinguishesNullFromOmitted(t *testing.T) {
	e, todos := newTestServer(t)

	body := fmt.Sprintf(`{"id":%q,"dueDate":null}`, testUserID)
	rec := mutate(e, "todos.update", body, validToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, todos.lastUpdate.DueDate.Set)
	assert.Nil(t, todos.lastUpdate.DueDate.Value)
	assert.False(t, todos.lastUpdate.CategoryID.Set)

	body = fmt.Sprintf(`{"id":%q,"dueDate":"2024-02-01T10:00:00Z"}`, testUserID)
	rec = mutate(e, "todos.update", body, validToken)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, todos.lastUpdate.DueDate.Value)
	assert.True(t, todos.lastUpdate.DueDate.Value.Equal(time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)))

	rec = mutate(e, "todos.update", fmt.Sprintf(`{"id":%q}`, uuid.New()), validToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, entities.ErrTodoNotFound.Error(), decodeError(t, rec).Error.Message)
}

func TestRouterBatch(t *testing.T) {
	e, _ := newTestServer(t)

	t.Run("all succeed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			"/trpc/test.echo,todos.list?batch=1&input="+url.QueryEscape(`{"0":{"text":"a"},"1":{}}`), nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+validToken)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[{"result":{"data":{"text":"A"}}},{"result":{"data":{"todos":[]}}}]`, rec.Body.String())
	})

	t.Run("mixed outcomes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			"/trpc/test.echo,todos.list?batch=1&input="+url.QueryEscape(`{"0":{"text":"a"}}`), nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusMultiStatus, rec.Code)
		var out []json.RawMessage
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		require.Len(t, out, 2)
		assert.Contains(t, string(out[1]), KindUnauthorized)
	})

	t.Run("malformed batch input", func(t *testing.T) {
		rec := mutate(e, "auth.login,auth.register?batch=1", `[1,2]`, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err    error
		kind   string
		status int
	}{
		{fmt.Errorf("x: %w", entities.ErrDuplicateEmail), KindDuplicateEmail, http.StatusConflict},
		{entities.ErrInvalidCredentials, KindInvalidCredentials, http.StatusUnauthorized},
		{entities.ErrUnauthorized, KindUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("get: %w", entities.ErrTagNotFound), KindNotFound, http.StatusNotFound},
		{entities.ErrAttachmentNotFound, KindNotFound, http.StatusNotFound},
		{entities.ErrCategoryNotFound, KindNotFound, http.StatusNotFound},
		{entities.ErrDuplicateTag, KindDuplicateTag, http.StatusConflict},
		{entities.ErrInvalidPeriod, KindValidation, http.StatusBadRequest},
		{validation.New().Struct(ports.CreateTagRequest{Name: "x", Color: "red"}), KindValidation, http.StatusBadRequest},
		{errors.New("boom"), KindInternal, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		got := classify(tc.err)
		assert.Equal(t, tc.kind, got.Kind, tc.err.Error())
		assert.Equal(t, tc.status, got.HTTPStatus, tc.err.Error())
	}
}

func TestRegisterTwicePanics(t *testing.T) {
	router := NewRouter(stubAuth{}, validation.New(), logger.NewNop())
	PublicQuery(router, "a.b", func(context.Context, NoInput) (bool, error) { return true, nil })

	assert.Panics(t, func() {
		PublicQuery(router, "a.b", func(context.Context, NoInput) (bool, error) { return true, nil })
	})
}
