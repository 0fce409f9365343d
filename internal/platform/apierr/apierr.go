package apierr

import (
	"errors"
	"fmt"
	"net/http"

	domainagg "github.com/yungbote/skillhub-backend/internal/domain/aggregates"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// From classifies err for transport. *Error values pass through; aggregate
// errors map by code; anything else is a 500.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	var aggErr *domainagg.Error
	if !errors.As(err, &aggErr) {
		return New(http.StatusInternalServerError, "internal", errors.New("internal error"))
	}
	msg := aggErr.Message
	if msg == "" {
		msg = string(aggErr.Code)
	}
	switch aggErr.Code {
	case domainagg.CodeValidation:
		return New(http.StatusBadRequest, string(aggErr.Code), errors.New(msg))
	case domainagg.CodeUnauthorized:
		return New(http.StatusUnauthorized, string(aggErr.Code), errors.New("unauthorized"))
	case domainagg.CodeForbidden:
		return New(http.StatusForbidden, string(aggErr.Code), errors.New(msg))
	case domainagg.CodeNotFound:
		return New(http.StatusNotFound, string(aggErr.Code), errors.New(msg))
	case domainagg.CodeGone:
		return New(http.StatusGone, string(aggErr.Code), errors.New(msg))
	case domainagg.CodeConflict:
		return New(http.StatusConflict, string(aggErr.Code), errors.New(msg))
	case domainagg.CodePreconditionFailed:
		return New(http.StatusPreconditionFailed, string(aggErr.Code), errors.New(msg))
	case domainagg.CodeDependency:
		return New(http.StatusBadGateway, string(aggErr.Code), errors.New(msg))
	case domainagg.CodeRetryable:
		return New(http.StatusServiceUnavailable, string(aggErr.Code), errors.New("temporarily unavailable, retry"))
	default:
		return New(http.StatusInternalServerError, "internal", errors.New("internal error"))
	}
}
