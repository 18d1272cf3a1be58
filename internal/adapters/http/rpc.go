package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tasklist/core/internal/domain/entities"
	"github.com/tasklist/core/internal/infrastructure/logger"
	"github.com/tasklist/core/internal/ports"
)

// ProcedureType is either a query (GET) or a mutation (POST).
type ProcedureType string

const (
	Query    ProcedureType = "query"
	Mutation ProcedureType = "mutation"
)

// Session identifies the caller of a protected procedure.
type Session struct {
	UserID uuid.UUID
	Email  string
}

// NoInput is the input of procedures that take no arguments.
type NoInput struct{}

// TokenValidator verifies bearer tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*ports.Claims, error)
}

type handlerFunc func(ctx context.Context, session *Session, input json.RawMessage) (interface{}, error)

type procedure struct {
	typ       ProcedureType
	protected bool
	handler   handlerFunc
}

// Router dispatches RPC calls by dotted procedure name.
type Router struct {
	procedures map[string]*procedure
	tokens     TokenValidator
	validate   *validator.Validate
	logger     *logger.Logger
	calls      *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewRouter creates an empty router.
func NewRouter(tokens TokenValidator, validate *validator.Validate, log *logger.Logger) *Router {
	return &Router{
		procedures: make(map[string]*procedure),
		tokens:     tokens,
		validate:   validate,
		logger:     log.WithComponent("rpc"),
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rpc_procedure_calls_total",
				Help: "Total number of RPC procedure calls by outcome",
			},
			[]string{"procedure", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rpc_procedure_duration_seconds",
				Help:    "RPC procedure duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"procedure"},
		),
	}
}

// Collectors returns the router's metrics for registration.
func (r *Router) Collectors() []prometheus.Collector {
	return []prometheus.Collector{r.calls, r.duration}
}

// PublicQuery registers a query callable without a token.
func PublicQuery[In, Out any](r *Router, name string, fn func(ctx context.Context, in In) (Out, error)) {
	register(r, name, Query, false, func(ctx context.Context, _ *Session, in In) (Out, error) {
		return fn(ctx, in)
	})
}

// PublicMutation registers a mutation callable without a token.
func PublicMutation[In, Out any](r *Router, name string, fn func(ctx context.Context, in In) (Out, error)) {
	register(r, name, Mutation, false, func(ctx context.Context, _ *Session, in In) (Out, error) {
		return fn(ctx, in)
	})
}

// ProtectedQuery registers a query that requires a valid session.
func ProtectedQuery[In, Out any](r *Router, name string, fn func(ctx context.Context, session Session, in In) (Out, error)) {
	register(r, name, Query, true, func(ctx context.Context, session *Session, in In) (Out, error) {
		return fn(ctx, *session, in)
	})
}

// ProtectedMutation registers a mutation that requires a valid session.
func ProtectedMutation[In, Out any](r *Router, name string, fn func(ctx context.Context, session Session, in In) (Out, error)) {
	register(r, name, Mutation, true, func(ctx context.Context, session *Session, in In) (Out, error) {
		return fn(ctx, *session, in)
	})
}

func register[In, Out any](r *Router, name string, typ ProcedureType, protected bool, fn func(ctx context.Context, session *Session, in In) (Out, error)) {
	if _, exists := r.procedures[name]; exists {
		panic(fmt.Sprintf("rpc: procedure %q registered twice", name))
	}

	r.procedures[name] = &procedure{
		typ:       typ,
		protected: protected,
		handler: func(ctx context.Context, session *Session, raw json.RawMessage) (interface{}, error) {
			var in In
			if err := r.decode(raw, &in); err != nil {
				return nil, err
			}
			return fn(ctx, session, in)
		},
	}
}

func (r *Router) decode(raw json.RawMessage, dst interface{}) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		if err := json.Unmarshal(raw, dst); err != nil {
			return validationError("Invalid request format: " + err.Error())
		}
	}
	return r.validate.Struct(dst)
}

type response struct {
	status int
	body   interface{}
}

type resultEnvelope struct {
	Result resultBody `json:"result"`
}

type resultBody struct {
	Data interface{} `json:"data"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Message string    `json:"message"`
	Code    int       `json:"code"`
	Data    errorData `json:"data"`
}

type errorData struct {
	Kind       string `json:"kind"`
	Code       string `json:"code"`
	HTTPStatus int    `json:"httpStatus"`
	Path       string `json:"path"`
}

func errorResponse(path string, e *Error) response {
	return response{
		status: e.HTTPStatus,
		body: errorEnvelope{Error: errorBody{
			Message: e.Message,
			Code:    jsonRPCCodes[e.Code],
			Data: errorData{
				Kind:       e.Kind,
				Code:       e.Code,
				HTTPStatus: e.HTTPStatus,
				Path:       path,
			},
		}},
	}
}

// Handle serves GET and POST /trpc/:path, single or batched.
func (r *Router) Handle(c echo.Context) error {
	path := c.Param("path")
	batch := c.QueryParam("batch") == "1" || c.QueryParam("batch") == "true"

	raw, err := readInput(c)
	if errors.Is(err, echo.ErrStatusRequestEntityTooLarge) {
		return err
	}
	if err != nil {
		res := errorResponse(path, validationError("Invalid request format"))
		return c.JSON(res.status, res.body)
	}

	session := r.session(c)
	userID := uuid.Nil
	if session != nil {
		userID = session.UserID
	}
	log := r.logger.ForRequest(c.Response().Header().Get(echo.HeaderXRequestID), userID)
	ctx := c.Request().Context()
	method := c.Request().Method

	if !batch {
		res := r.call(ctx, log, method, path, session, raw)
		return c.JSON(res.status, res.body)
	}

	inputs := map[string]json.RawMessage{}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 {
		if err := json.Unmarshal(trimmed, &inputs); err != nil {
			res := errorResponse(path, validationError("Invalid request format: batch input must be an object keyed by call index"))
			return c.JSON(res.status, res.body)
		}
	}

	names := strings.Split(path, ",")
	results := make([]response, len(names))
	bodies := make([]interface{}, len(names))
	for i, name := range names {
		results[i] = r.call(ctx, log, method, name, session, inputs[strconv.Itoa(i)])
		bodies[i] = results[i].body
	}

	return c.JSON(batchStatus(results), bodies)
}

func readInput(c echo.Context) (json.RawMessage, error) {
	if c.Request().Method == http.MethodGet {
		return json.RawMessage(c.QueryParam("input")), nil
	}
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// batchStatus is 200 when every call succeeded, the shared status when all
// calls failed alike, and 207 otherwise.
func batchStatus(results []response) int {
	status := results[0].status
	for _, res := range results[1:] {
		if res.status != status {
			return http.StatusMultiStatus
		}
	}
	return status
}

func (r *Router) session(c echo.Context) *Session {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return nil
	}

	token := strings.TrimPrefix(header, "Bearer ")
	if token == header {
		r.logger.LogSecurityEvent("malformed_authorization_header", "ip", c.RealIP())
		return nil
	}

	claims, err := r.tokens.ValidateToken(token)
	if err != nil {
		r.logger.LogSecurityEvent("invalid_token", "ip", c.RealIP(), "error", err.Error())
		return nil
	}

	return &Session{UserID: claims.UserID, Email: claims.Email}
}

func (r *Router) call(ctx context.Context, log *logger.Logger, method, name string, session *Session, input json.RawMessage) response {
	start := time.Now()

	label := name
	if _, ok := r.procedures[name]; !ok {
		label = "unknown"
	}

	data, err := r.invoke(ctx, method, name, session, input)
	elapsed := time.Since(start)

	outcome := "OK"
	var rpcErr *Error
	var internal error
	if err != nil {
		rpcErr = classify(err)
		outcome = rpcErr.Kind
		if rpcErr.Kind == KindInternal {
			internal = err
		}
	}

	r.calls.WithLabelValues(label, outcome).Inc()
	r.duration.WithLabelValues(label).Observe(elapsed.Seconds())
	log.LogProcedureCall(name, outcome, elapsed, internal)

	if rpcErr != nil {
		return errorResponse(name, rpcErr)
	}
	return response{status: http.StatusOK, body: resultEnvelope{Result: resultBody{Data: data}}}
}

func (r *Router) invoke(ctx context.Context, method, name string, session *Session, input json.RawMessage) (interface{}, error) {
	expected := Mutation
	if method == http.MethodGet {
		expected = Query
	}

	proc, ok := r.procedures[name]
	if !ok {
		return nil, notFoundError(fmt.Sprintf("No %q-procedure on path %q", expected, name))
	}
	if proc.typ != expected {
		return nil, methodNotSupportedError(fmt.Sprintf("Unsupported %s-request to %s procedure at path %q", method, proc.typ, name))
	}
	if proc.protected && session == nil {
		return nil, fmt.Errorf("%w: missing or invalid token", entities.ErrUnauthorized)
	}

	return proc.handler(ctx, session, input)
}
