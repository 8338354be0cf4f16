package apperrors

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrEmptyQuery        = errors.New("query is empty")
	ErrProfileIncomplete = errors.New("scent profile incomplete")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidInput      = errors.New("invalid input")
)
