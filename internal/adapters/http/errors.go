package http

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/tasklist/core/internal/domain/entities"
)

// Error kinds reported in data.kind of an error envelope.
const (
	KindDuplicateEmail     = "DuplicateEmail"
	KindInvalidCredentials = "InvalidCredentials"
	KindUnauthorized       = "Unauthorized"
	KindNotFound           = "NotFound"
	KindDuplicateTag       = "DuplicateTag"
	KindValidation         = "ValidationError"
	KindMethodNotSupported = "MethodNotSupported"
	KindInternal           = "InternalError"
)

// RPC error codes, paired with their JSON-RPC numeric form.
const (
	CodeBadRequest         = "BAD_REQUEST"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeNotFound           = "NOT_FOUND"
	CodeMethodNotSupported = "METHOD_NOT_SUPPORTED"
	CodeConflict           = "CONFLICT"
	CodeInternal           = "INTERNAL_SERVER_ERROR"
)

var jsonRPCCodes = map[string]int{
	CodeBadRequest:         -32600,
	CodeUnauthorized:       -32001,
	CodeNotFound:           -32004,
	CodeMethodNotSupported: -32005,
	CodeConflict:           -32009,
	CodeInternal:           -32603,
}

const internalMessage = "Internal server error"

// Error is a classified procedure failure.
type Error struct {
	Kind       string
	Code       string
	HTTPStatus int
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind, code string, status int, message string) *Error {
	return &Error{Kind: kind, Code: code, HTTPStatus: status, Message: message}
}

func validationError(message string) *Error {
	return newError(KindValidation, CodeBadRequest, http.StatusBadRequest, message)
}

func notFoundError(message string) *Error {
	return newError(KindNotFound, CodeNotFound, http.StatusNotFound, message)
}

func methodNotSupportedError(message string) *Error {
	return newError(KindMethodNotSupported, CodeMethodNotSupported, http.StatusMethodNotAllowed, message)
}

var notFoundErrors = []error{
	entities.ErrTodoNotFound,
	entities.ErrTagNotFound,
	entities.ErrCommentNotFound,
	entities.ErrAttachmentNotFound,
	entities.ErrCategoryNotFound,
	entities.ErrUserNotFound,
}

// classify maps any error returned by a procedure onto its wire kind.
// Unknown errors become InternalError and keep their text out of the reply.
func classify(err error) *Error {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}

	switch {
	case errors.Is(err, entities.ErrDuplicateEmail):
		return newError(KindDuplicateEmail, CodeConflict, http.StatusConflict, entities.ErrDuplicateEmail.Error())
	case errors.Is(err, entities.ErrInvalidCredentials):
		return newError(KindInvalidCredentials, CodeUnauthorized, http.StatusUnauthorized, entities.ErrInvalidCredentials.Error())
	case errors.Is(err, entities.ErrUnauthorized):
		return newError(KindUnauthorized, CodeUnauthorized, http.StatusUnauthorized, entities.ErrUnauthorized.Error())
	case errors.Is(err, entities.ErrDuplicateTag):
		return newError(KindDuplicateTag, CodeConflict, http.StatusConflict, entities.ErrDuplicateTag.Error())
	case errors.Is(err, entities.ErrInvalidPeriod), errors.Is(err, entities.ErrInvalidPriority):
		return validationError(err.Error())
	}

	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return notFoundError(target.Error())
		}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return validationError(verrs.Error())
	}

	return newError(KindInternal, CodeInternal, http.StatusInternalServerError, internalMessage)
}
