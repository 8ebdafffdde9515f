package api

import (
	"errors"
	"net/http"

	"github.com/okian/cupstats/internal/domain/aggregate"
	"github.com/okian/cupstats/internal/domain/model"
	"github.com/okian/cupstats/internal/domain/view"
)

// Sentinel kinds for API errors.
var (
	ErrServe      = errors.New("api serve failed")
	ErrBadRequest = errors.New("bad request")
	ErrNotFound   = errors.New("not found")
)

// Error carries the failing operation and its kind alongside the cause.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewKind builds an error of kind with no underlying cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// Wrap attaches op to err and derives the kind from the domain sentinels.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return WrapKind(op, kindOf(err), err)
}

// WrapKind attaches op and an explicit kind to err.
func WrapKind(op string, kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

func kindOf(err error) error {
	switch {
	case errors.Is(err, view.ErrUnknownView), errors.Is(err, aggregate.ErrUnknownQuery):
		return ErrNotFound
	case errors.Is(err, aggregate.ErrUnknownOrder):
		return ErrBadRequest
	case errors.Is(err, model.ErrSchema):
		return model.ErrSchema
	}
	return ErrServe
}

// statusOf maps an error to its HTTP status and envelope code.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, model.ErrSchema):
		return http.StatusUnprocessableEntity, "schema_error"
	}
	return http.StatusInternalServerError, "internal"
}
