package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint rejected the write.
	ErrAlreadyExists = errors.New("already exists")
)

// Kind classifies errors surfaced to callers.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is a classified, client-safe error. Message is shown to callers
// as-is, so it must never carry driver or stack details.
type Error struct {
	Kind    Kind
	Message string
	// Fields maps input field names to problems with them.
	Fields map[string]string
	// Items lists offending entities, e.g. product names short on stock.
	Items []string
}

func (e *Error) Error() string {
	if len(e.Items) > 0 {
		return e.Message + strings.Join(e.Items, ", ")
	}
	return e.Message
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// FieldError reports a single invalid input field.
func FieldError(field, problem string) *Error {
	return &Error{Kind: KindValidation, Message: "invalid input", Fields: map[string]string{field: problem}}
}

// InsufficientStock lists the products whose stock cannot cover the order.
func InsufficientStock(names []string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: "the following products are out of stock or insufficient: ",
		Items:   names,
	}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// Internal is the opaque error returned for every unclassified failure.
func Internal() *Error {
	return &Error{Kind: KindInternal, Message: "internal server error"}
}

// KindOf classifies err. Repository sentinels map onto their kinds; any
// other error is KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadyExists):
		return KindConflict
	}
	return KindUnknown
}

// IsKnown reports whether err already carries a client-facing classification.
func IsKnown(err error) bool {
	return KindOf(err) != KindUnknown
}
