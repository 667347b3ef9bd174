package api

import "errors"

var (
	ErrNotFound       = errors.New("requested item not found")
	ErrConflict       = errors.New("item already exists or conflict")
	ErrInvalidRequest = errors.New("invalid request")
)
