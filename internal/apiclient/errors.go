package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/fjod/go_pos/internal/domain"
)

type Kind string

const (
	KindTransport   Kind = "transport"
	KindTimeout     Kind = "timeout"
	KindUnavailable Kind = "unavailable"
	KindValidation  Kind = "validation"
	KindNotFound    Kind = "not_found"
	KindConflict    Kind = "conflict"
	KindServer      Kind = "server"
	KindUnexpected  Kind = "unexpected"
)

// Error is the normalised failure of every API call.
type Error struct {
	Kind    Kind
	Op      string
	Status  int
	Message string
	Fields  map[string][]string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(string(e.Kind))
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation converts per-field messages into the domain form error, or
// returns nil when the API did not report any.
func (e *Error) Validation() *domain.ValidationError {
	if len(e.Fields) == 0 {
		return nil
	}
	return &domain.ValidationError{Fields: e.Fields}
}

// OperatorMessage is the text shown in the non-blocking notification.
func (e *Error) OperatorMessage() string {
	switch e.Kind {
	case KindTransport, KindTimeout:
		return "The server could not be reached. Please retry."
	case KindUnavailable:
		return "The server is temporarily unavailable. Please retry shortly."
	case KindValidation:
		if len(e.Fields) > 0 {
			return combineFields(e.Fields)
		}
	case KindNotFound:
		return "The record no longer exists."
	case KindConflict:
		if e.Message == "" {
			return "The record was changed or is still in use."
		}
	}
	if e.Message != "" {
		return e.Message
	}
	return "The request failed."
}

func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

type errorBody struct {
	Message string              `json:"message"`
	Error   string              `json:"error"`
	Errors  map[string][]string `json:"errors"`
}

func statusError(op string, status int, body []byte) *Error {
	e := &Error{Op: op, Status: status}

	var parsed errorBody
	if len(body) > 0 && json.Unmarshal(body, &parsed) == nil {
		e.Message = parsed.Message
		if e.Message == "" {
			e.Message = parsed.Error
		}
		e.Fields = parsed.Errors
	}

	switch {
	case status == http.StatusUnprocessableEntity || status == http.StatusBadRequest:
		e.Kind = KindValidation
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
	case status == http.StatusConflict:
		e.Kind = KindConflict
	case status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable:
		e.Kind = KindUnavailable
	case status >= http.StatusInternalServerError:
		e.Kind = KindServer
	default:
		e.Kind = KindUnexpected
	}
	return e
}

func transportError(op string, err error) *Error {
	kind := KindTransport
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func combineFields(fields map[string][]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	msgs := make([]string, 0, len(names))
	for _, name := range names {
		msgs = append(msgs, fields[name]...)
	}
	return strings.Join(msgs, " ")
}
