package service

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"taskDeck/internal/repository"
)

// Коды бизнес-ошибок; по ним HTTP слой выбирает статус ответа.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeInvalidReference = "INVALID_REFERENCE"
	CodeInvalidRule      = "INVALID_RULE"
	CodeTransport        = "TRANSPORT_FAILURE"
	CodePartialFailure   = "PARTIAL_FAILURE"
	CodeBulkFailed       = "BULK_FAILED"
	CodeBulkInProgress   = "BULK_IN_PROGRESS"
	CodeEmptySelection   = "EMPTY_SELECTION"
)

type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

type Detail struct {
	Key     string
	Payload any
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

func ToDetail(key string, payload any) Detail {
	return Detail{
		Key:     key,
		Payload: payload,
	}
}

func NewBusinessError(code string, message string, details ...Detail) *BusinessError {
	busErr := &BusinessError{
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}

	for _, detail := range details {
		busErr.Details[detail.Key] = detail.Payload
	}

	return busErr
}

// AsBusinessError достаёт бизнес-ошибку из цепочки обёрток.
func AsBusinessError(err error) (*BusinessError, bool) {
	var busErr *BusinessError
	if errors.As(err, &busErr) {
		return busErr, true
	}
	return nil, false
}

func NewNotFound(resource string, id any) *BusinessError {
	return &BusinessError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %v не найден(а)", resource, id),
		Details: map[string]any{
			"resource": resource,
			"id":       id,
		},
	}
}

func NewValidationError(field, reason string) *BusinessError {
	return &BusinessError{
		Code:    CodeValidation,
		Message: fmt.Sprintf("Неверное значение поля '%s': %s", field, reason),
		Details: map[string]any{
			"field":  field,
			"reason": reason,
		},
	}
}

// NewValidationErrors собирает все нарушения черновика в одну ошибку.
func NewValidationErrors(problems map[string]string) *BusinessError {
	fields := make([]string, 0, len(problems))
	for field := range problems {
		fields = append(fields, field)
	}
	slices.Sort(fields)

	return &BusinessError{
		Code:    CodeValidation,
		Message: "Неверные значения полей: " + strings.Join(fields, ", "),
		Details: map[string]any{
			"fields": problems,
		},
	}
}

func newTransportFailure(operation string, err error) *BusinessError {
	return &BusinessError{
		Code:    CodeTransport,
		Message: fmt.Sprintf("Хранилище недоступно: %s", operation),
		Details: map[string]any{"operation": operation},
		Err:     err,
	}
}

func newBulkInProgress() *BusinessError {
	return NewBusinessError(CodeBulkInProgress, "Групповая операция уже выполняется")
}

func newEmptySelection() *BusinessError {
	return NewBusinessError(CodeEmptySelection, "Не выбрано ни одной задачи")
}

// fromRepositoryError переводит ошибки репозитория в бизнес-ошибки.
func fromRepositoryError(operation, resource string, id any, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		notFound := NewNotFound(resource, id)
		notFound.Err = err
		return notFound
	case errors.Is(err, repository.ErrInvalidReference):
		return &BusinessError{
			Code:    CodeInvalidReference,
			Message: "Категория или подкатегория не существует",
			Details: map[string]any{"operation": operation},
			Err:     err,
		}
	default:
		return newTransportFailure(operation, err)
	}
}
