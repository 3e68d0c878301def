package apperrors

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateSnapshot = errors.New("snapshot already recorded for this key")
	ErrUnknownAgeGroup   = errors.New("age group not present in ratio policy")
	ErrDataUnavailable   = errors.New("presence data source unavailable")
	ErrInvalidParameters = errors.New("invalid parameters")
)
