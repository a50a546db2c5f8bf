package errors

import "errors"

var (
	ErrNotFound = errors.New("resource not found")

	ErrInvalidID = errors.New("invalid resource ID format")

	ErrRetired = errors.New("resource is retired")
)
