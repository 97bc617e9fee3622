package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors returned by repositories and matched with errors.Is.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrStorage      = errors.New("storage failure")
	ErrInternal     = errors.New("internal error")
)

// Error codes carried in the JSON error body.
const (
	CodeNotFound      = "NOT_FOUND"
	CodeInvalidInput  = "INVALID_INPUT"
	CodeConflict      = "CONFLICT"
	CodeStorageWrite  = "STORAGE_WRITE_ERROR"
	CodeStorageUpdate = "STORAGE_UPDATE_ERROR"
	CodeStorageDelete = "STORAGE_DELETE_ERROR"
	CodeRetrieval     = "RETRIEVAL_ERROR"
	CodeScan          = "SCAN_ERROR"
	CodeInternal      = "INTERNAL_ERROR"
	CodeForbidden     = "FORBIDDEN"
)

// AppError is an error with a stable code, a client-safe message and the
// HTTP status it maps to. The wrapped Err is never sent to clients.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    CodeInvalidInput,
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// Conflict creates a 409 error.
func Conflict(message string) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: message,
		Status:  http.StatusConflict,
		Err:     ErrConflict,
	}
}

// storage builds the 400 family used for every failed store round-trip.
// Clients only ever see the static message.
func storage(code, message string, err error) *AppError {
	if err == nil {
		err = ErrStorage
	}
	return &AppError{
		Code:    code,
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     fmt.Errorf("%w: %w", ErrStorage, err),
	}
}

// StorageWrite reports a failed create.
func StorageWrite(message string, err error) *AppError {
	return storage(CodeStorageWrite, message, err)
}

// StorageUpdate reports a failed update.
func StorageUpdate(message string, err error) *AppError {
	return storage(CodeStorageUpdate, message, err)
}

// StorageDelete reports a failed delete.
func StorageDelete(message string, err error) *AppError {
	return storage(CodeStorageDelete, message, err)
}

// Retrieval reports a failed single-item read.
func Retrieval(message string, err error) *AppError {
	return storage(CodeRetrieval, message, err)
}

// Scan reports a failed table scan.
func Scan(message string, err error) *AppError {
	return storage(CodeScan, message, err)
}

// Internal creates a 500 error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrStorage):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
