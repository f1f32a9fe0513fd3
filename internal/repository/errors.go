package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrAlreadyExists indicates a uniqueness constraint rejected the write.
	ErrAlreadyExists = errors.New("repository: already exists")
	// ErrConflict indicates a multi-row change could not commit consistently
	// and was rolled back.
	ErrConflict = errors.New("repository: conflict")
)
