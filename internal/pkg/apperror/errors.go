package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeInvalidState ErrorCode = "INVALID_STATE"
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
)

// AppError типизированная бизнес-ошибка, поднимаемая движком переговоров.
// Транспортный слой опирается на HTTPStatus, не разбирая текст сообщения.
type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeInvalidState, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeNotFound
}

func IsForbidden(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeForbidden
}

func IsInvalidState(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeInvalidState
}

func IsValidation(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeValidation
}

func IsConflict(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeConflict
}

var (
	ErrConversationNotFound   = New(ErrCodeNotFound, "беседа не найдена")
	ErrMessageRequestNotFound = New(ErrCodeNotFound, "запрос на переписку не найден")
	ErrServiceRequestNotFound = New(ErrCodeNotFound, "заявка не найдена")
	ErrDeadlineChangeNotFound = New(ErrCodeNotFound, "предложение о переносе дедлайна не найдено")
	ErrDeliveryNotFound       = New(ErrCodeNotFound, "выдача не найдена")
	ErrProductNotFound        = New(ErrCodeNotFound, "продукт не найден")
	ErrNotificationNotFound   = New(ErrCodeNotFound, "уведомление не найдено")
)
