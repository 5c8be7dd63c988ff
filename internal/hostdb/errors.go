package hostdb

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error codes the adapter reacts to. Postgres SQLSTATEs and PostgREST codes share the field.
const (
	CodeUndefinedTable          = "42P01"
	CodeSchemaCacheMissingTable = "PGRST205"
	CodeInsufficientPrivilege   = "42501"
	CodeUniqueViolation         = "23505"
	CodeUndefinedFunction       = "42883"
	CodeSchemaCacheMissingFunc  = "PGRST202"
	CodeTimeout                 = "TIMEOUT"
	CodeNotConfigured           = "NOT_CONFIGURED"
)

// ErrNotConfigured is returned by every operation of an unconfigured client.
var ErrNotConfigured = &Error{Code: CodeNotConfigured, Message: "hosted database is not configured"}

// Error carries the fields a PostgREST error body or a Postgres error exposes.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("hostdb")
	if e.Code != "" {
		b.WriteString(" [" + e.Code + "]")
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	} else if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	if e.Details != "" {
		b.WriteString(" (" + e.Details + ")")
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors with the same code so errors.Is(err, ErrNotConfigured) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// LogAttrs returns code, message, details and hint as slog key/value pairs.
func (e *Error) LogAttrs() []any {
	return []any{"code", e.Code, "message", e.Message, "details", e.Details, "hint", e.Hint, "status", e.Status}
}

// AsError extracts a *Error from err, wrapping unknown errors.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Message: err.Error(), Err: err}
}

func codeOf(err error) (string, int, string) {
	var e *Error
	if !errors.As(err, &e) {
		if err == nil {
			return "", 0, ""
		}
		return "", 0, strings.ToLower(err.Error())
	}
	return e.Code, e.Status, strings.ToLower(e.Message + " " + e.Details)
}

func IsUndefinedTable(err error) bool {
	code, _, msg := codeOf(err)
	return code == CodeUndefinedTable || code == CodeSchemaCacheMissingTable ||
		(code == "" && strings.Contains(msg, "does not exist") && strings.Contains(msg, "relation"))
}

func IsPermissionDenied(err error) bool {
	code, status, msg := codeOf(err)
	if code == CodeInsufficientPrivilege || status == http.StatusForbidden {
		return true
	}
	return strings.Contains(msg, "permission denied") || strings.Contains(msg, "row-level security")
}

func IsUniqueViolation(err error) bool {
	code, status, _ := codeOf(err)
	return code == CodeUniqueViolation || status == http.StatusConflict
}

func IsUndefinedFunction(err error) bool {
	code, _, _ := codeOf(err)
	return code == CodeUndefinedFunction || code == CodeSchemaCacheMissingFunc
}

func IsTimeout(err error) bool {
	code, _, _ := codeOf(err)
	return code == CodeTimeout
}

func IsNotConfigured(err error) bool {
	return errors.Is(err, ErrNotConfigured)
}

func timeoutError(err error) *Error {
	return &Error{Code: CodeTimeout, Message: fmt.Sprintf("connection test timed out: %v", err), Err: err}
}
