package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalid   = errors.New("invalid")
	ErrMalformed = errors.New("malformed post")
)

type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type ValidationError struct {
	Items []FieldError
}

func (e ValidationError) Error() string {
	if len(e.Items) == 0 {
		return "validation failed"
	}

	var b strings.Builder
	b.WriteString("validation failed:\n")
	for _, item := range e.Items {
		b.WriteString(" - ")
		b.WriteString(item.Error())
		b.WriteString("\n")
	}
	return b.String()
}

func (e *ValidationError) Add(field, msg string) {
	e.Items = append(e.Items, FieldError{
		Field:   field,
		Message: msg,
	})
}

func (e ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

func (e ValidationError) HasAny() bool {
	return len(e.Items) > 0
}

// Invalid builds a single-field ValidationError.
func Invalid(field, msg string) ValidationError {
	var ve ValidationError
	ve.Add(field, msg)
	return ve
}

type Reason string

const (
	ReasonNoSeparator     Reason = "no-separator"
	ReasonMalformedHeader Reason = "malformed-header"
	ReasonMissingTitle    Reason = "missing-title"
	ReasonEmptyBody       Reason = "empty-body"
	ReasonBadDate         Reason = "bad-date"
)

// FormatError reports post text that cannot be decoded.
type FormatError struct {
	Reason Reason
	Detail string
}

func (e FormatError) Error() string {
	msg := reasonText(e.Reason)
	if e.Detail == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", msg, e.Detail)
}

func (e FormatError) Is(target error) bool {
	return target == ErrMalformed
}

func Malformed(reason Reason, detail string) FormatError {
	return FormatError{Reason: reason, Detail: detail}
}

func reasonText(r Reason) string {
	switch r {
	case ReasonNoSeparator:
		return "no header/body separator"
	case ReasonMalformedHeader:
		return "malformed header line"
	case ReasonMissingTitle:
		return "missing title"
	case ReasonEmptyBody:
		return "empty body"
	case ReasonBadDate:
		return "unparseable date"
	default:
		return "malformed post"
	}
}
