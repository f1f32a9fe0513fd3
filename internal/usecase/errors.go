package usecase

import "errors"

var (
	// ErrUnauthorized indicates the caller is not authenticated.
	ErrUnauthorized = errors.New("authentication required")
	// ErrForbidden indicates the decision engine denied the operation.
	ErrForbidden = errors.New("insufficient permissions")
	// ErrNotFound indicates the referenced resource does not resolve
	// (including soft-deleted documents).
	ErrNotFound = errors.New("resource not found")
	// ErrIntegrity indicates an invariant breach such as a dangling owner
	// reference or a cyclic folder parent. It signals a bug, not user error.
	ErrIntegrity = errors.New("integrity violation")
	// ErrReassignmentConflict indicates a folder deletion failed partway
	// through child reassignment and was rolled back.
	ErrReassignmentConflict = errors.New("conflict during content reassignment")
	// ErrInvalidInput indicates a malformed request payload.
	ErrInvalidInput = errors.New("invalid input")
)
