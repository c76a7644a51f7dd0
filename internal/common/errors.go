// Package common defines shared constants and sentinel errors used across
// storage, schema and pack layers of formdoc. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound   = errors.New("not found")
	ErrorSaveFailed = errors.New("save failed")
	ErrInvalidID    = errors.New("invalid id")

	// Workspace and capability errors. ErrNoWorkspace means the grant flow
	// has never run; ErrPermissionDenied means a previously granted
	// workspace can no longer be written to.
	ErrNoWorkspace      = errors.New("no workspace configured")
	ErrUnsupported      = errors.New("unsupported environment")
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors.
	ErrorValidation = errors.New("validation error")
)
