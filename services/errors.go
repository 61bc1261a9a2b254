package services

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindNotFound             ErrorKind = "not_found"
	KindUnauthorized         ErrorKind = "unauthorized"
	KindInvalidInput         ErrorKind = "invalid_input"
	KindUnprocessableContent ErrorKind = "unprocessable_content"
	KindAllProvidersFailed   ErrorKind = "all_providers_failed"
	KindValidationFailed     ErrorKind = "validation_failed"
	KindPersistence          ErrorKind = "persistence_error"
)

// AppError là lỗi có phân loại, controller dựa vào Kind để chọn HTTP status
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func newAppError(kind ErrorKind, err error, format string, args ...any) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func ErrNotFound(format string, args ...any) *AppError {
	return newAppError(KindNotFound, nil, format, args...)
}

func ErrUnauthorized(format string, args ...any) *AppError {
	return newAppError(KindUnauthorized, nil, format, args...)
}

func ErrInvalidInput(format string, args ...any) *AppError {
	return newAppError(KindInvalidInput, nil, format, args...)
}

func ErrUnprocessable(format string, args ...any) *AppError {
	return newAppError(KindUnprocessableContent, nil, format, args...)
}

func ErrPersistence(err error, format string, args ...any) *AppError {
	return newAppError(KindPersistence, err, format, args...)
}

func errValidation(format string, args ...any) *AppError {
	return newAppError(KindValidationFailed, nil, format, args...)
}

// KindOf trả về loại lỗi; lỗi không phân loại được coi là lỗi lưu trữ
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	var cascadeErr *CascadeError
	if errors.As(err, &cascadeErr) {
		return KindAllProvidersFailed
	}
	return KindPersistence
}
