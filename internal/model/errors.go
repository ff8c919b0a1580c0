package model

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation error")
	ErrOwnership   = errors.New("ownership error")
	ErrBatchSize   = errors.New("batch size error")
	ErrUnavailable = errors.New("store unavailable")
)
