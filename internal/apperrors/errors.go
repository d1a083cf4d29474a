// Package apperrors defines the error taxonomy shared by the search pipeline
// and maps it to codes, user-facing messages and HTTP statuses.
package apperrors

import (
	"errors"
	"net/http"
)

// ErrorCode is a stable identifier used in logs and metrics.
type ErrorCode string

const (
	CodeEmptyQuery        ErrorCode = "EMPTY_QUERY"
	CodeUnknownField      ErrorCode = "UNKNOWN_FIELD"
	CodeUnsupportedValue  ErrorCode = "UNSUPPORTED_VALUE"
	CodeSQLValidation     ErrorCode = "SQL_VALIDATION_FAILED"
	CodeGenerationTimeout ErrorCode = "GENERATION_TIMEOUT"
	CodeGeneration        ErrorCode = "GENERATION_FAILED"
	CodeGeneratorBusy     ErrorCode = "GENERATOR_BUSY"
	CodeDatabase          ErrorCode = "DATABASE_ERROR"
	CodeResultTooLarge    ErrorCode = "RESULT_TOO_LARGE"
	CodeNotUnderstood     ErrorCode = "QUERY_NOT_UNDERSTOOD"
	CodeInternal          ErrorCode = "INTERNAL_ERROR"
)

var (
	ErrEmptyQuery        = errors.New("EMPTY_QUERY")
	ErrUnknownField      = errors.New("UNKNOWN_FIELD")
	ErrUnsupportedValue  = errors.New("UNSUPPORTED_VALUE")
	ErrSQLValidation     = errors.New("SQL_VALIDATION_FAILED")
	ErrGenerationTimeout = errors.New("GENERATION_TIMEOUT")
	ErrGeneration        = errors.New("GENERATION_FAILED")
	ErrGeneratorBusy     = errors.New("GENERATOR_BUSY")
	ErrDatabase          = errors.New("DATABASE_ERROR")
	ErrResultTooLarge    = errors.New("RESULT_TOO_LARGE")

	// ErrNotUnderstood is returned after the corrective retry also produced
	// SQL that failed validation.
	ErrNotUnderstood = errors.New("QUERY_NOT_UNDERSTOOD")
)

type classification struct {
	sentinel error
	code     ErrorCode
	message  string
	status   int
}

// Order matters: ErrNotUnderstood wraps a validation error and must be
// matched before it.
var classifications = []classification{
	{ErrEmptyQuery, CodeEmptyQuery, "Please enter a search query.", http.StatusBadRequest},
	{ErrNotUnderstood, CodeNotUnderstood, "Sorry, we could not understand that search. Try rephrasing it.", http.StatusOK},
	{ErrSQLValidation, CodeSQLValidation, "Sorry, we could not understand that search. Try rephrasing it.", http.StatusOK},
	{ErrGenerationTimeout, CodeGenerationTimeout, "The search took too long. Please try again.", http.StatusGatewayTimeout},
	{ErrGeneratorBusy, CodeGeneratorBusy, "The search service is busy. Please try again shortly.", http.StatusServiceUnavailable},
	{ErrGeneration, CodeGeneration, "The search service is temporarily unavailable.", http.StatusServiceUnavailable},
	{ErrResultTooLarge, CodeResultTooLarge, "The search matched too many properties. Try narrowing it down.", http.StatusInternalServerError},
	{ErrDatabase, CodeDatabase, "The property database is temporarily unavailable.", http.StatusInternalServerError},
	{ErrUnknownField, CodeUnknownField, "An internal error occurred.", http.StatusInternalServerError},
	{ErrUnsupportedValue, CodeUnsupportedValue, "An internal error occurred.", http.StatusInternalServerError},
}

func classify(err error) classification {
	for _, c := range classifications {
		if errors.Is(err, c.sentinel) {
			return c
		}
	}
	return classification{code: CodeInternal, message: "An internal error occurred.", status: http.StatusInternalServerError}
}

// Code returns the taxonomy code for err, or CodeInternal.
func Code(err error) ErrorCode {
	if err == nil {
		return ""
	}
	return classify(err).code
}

// UserMessage returns a generic, client-safe message. Details of the
// underlying error are never included.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return classify(err).message
}

// HTTPStatus returns the status the API answers with for err.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return classify(err).status
}
