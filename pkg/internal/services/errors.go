package services

import "errors"

var (
	ErrInvalidHost          = errors.New("invalid host")
	ErrInvalidAuthorPayload = errors.New("invalid author payload")
	ErrConflict             = errors.New("conflict")
	ErrNotFound             = errors.New("not found")
)
