// Package apperr defines the error kinds surfaced to API callers and their HTTP statuses.
package apperr

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type Kind int

const (
	Unknown Kind = iota
	Unauthorized
	Forbidden
	NotFound
	InsufficientStock
	InvalidInput
	StorageFailure
)

func (k Kind) String() string {
	switch k {
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case InsufficientStock:
		return "insufficient_stock"
	case InvalidInput:
		return "invalid_input"
	case StorageFailure:
		return "storage_failure"
	}
	return "unknown"
}

// Status is the HTTP status a kind is reported with.
func (k Kind) Status() int {
	switch k {
	case Unauthorized:
		return fiber.StatusUnauthorized
	case Forbidden:
		return fiber.StatusForbidden
	case NotFound:
		return fiber.StatusNotFound
	case InsufficientStock, InvalidInput:
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

// Error is a message tagged with a Kind.
type Error struct {
	kind Kind
	msg  string
}

func (e *Error) Error() string { return e.msg }
func (e *Error) Kind() Kind    { return e.kind }

func New(kind Kind, format string, args ...any) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func Invalid(format string, args ...any) error { return New(InvalidInput, format, args...) }

func NotFoundf(format string, args ...any) error { return New(NotFound, format, args...) }

// Storage tags a driver error as a StorageFailure while keeping it as the cause.
func Storage(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &storageError{cause: errors.Wrap(err, msg)}
}

type storageError struct{ cause error }

func (e *storageError) Error() string { return e.cause.Error() }
func (e *storageError) Unwrap() error { return e.cause }
func (e *storageError) Kind() Kind    { return StorageFailure }

type kinded interface{ Kind() Kind }

// KindOf returns the kind of the first error in err's chain that carries one.
func KindOf(err error) Kind {
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return Unknown
}

func Is(err error, kind Kind) bool { return KindOf(err) == kind }

// ToFiber converts err into a *fiber.Error with the kind's status.
// Storage and unknown errors keep a generic message; the caller logs the detail.
func ToFiber(err error) error {
	if err == nil {
		return nil
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe
	}
	switch kind := KindOf(err); kind {
	case Unknown:
		return err
	case StorageFailure:
		log.WithError(err).Error("storage failure")
		return fiber.NewError(kind.Status(), "storage failure")
	default:
		return fiber.NewError(kind.Status(), err.Error())
	}
}
