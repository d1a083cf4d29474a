package sqlguard

import (
	"fmt"

	"github.com/NunoFAntunes/realtor-buddy/internal/apperrors"
)

// Code names the check a statement failed.
type Code string

const (
	CodeEmpty             Code = "empty_statement"
	CodeMalformed         Code = "malformed_statement"
	CodeMultipleStatement Code = "multiple_statements"
	CodeNotReadOnly       Code = "not_read_only"
	CodeUnknownTable      Code = "unknown_table"
	CodeUnknownColumn     Code = "unknown_column"
	CodeForbiddenPattern  Code = "forbidden_pattern"
	CodeForbiddenFunction Code = "forbidden_function"
	CodeInvalidLimit      Code = "invalid_limit"
)

// ValidationError reports why generated SQL was rejected. Every
// ValidationError matches apperrors.ErrSQLValidation.
type ValidationError struct {
	Code   Code
	Reason string
}

var (
	ErrMultipleStatements = &ValidationError{Code: CodeMultipleStatement}
	ErrNotReadOnly        = &ValidationError{Code: CodeNotReadOnly}
	ErrUnknownTable       = &ValidationError{Code: CodeUnknownTable}
	ErrUnknownColumn      = &ValidationError{Code: CodeUnknownColumn}
	ErrForbiddenPattern   = &ValidationError{Code: CodeForbiddenPattern}
	ErrForbiddenFunction  = &ValidationError{Code: CodeForbiddenFunction}
	ErrInvalidLimit       = &ValidationError{Code: CodeInvalidLimit}
)

func newError(code Code, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Reason: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("sql validation failed: %s", e.Code)
	}
	return fmt.Sprintf("sql validation failed: %s: %s", e.Code, e.Reason)
}

// Is matches apperrors.ErrSQLValidation and any ValidationError sentinel
// with the same code.
func (e *ValidationError) Is(target error) bool {
	if target == apperrors.ErrSQLValidation {
		return true
	}
	t, ok := target.(*ValidationError)
	return ok && t.Reason == "" && t.Code == e.Code
}
