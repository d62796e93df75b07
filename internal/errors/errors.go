package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the expected failure modes of the core.
var (
	// ErrConfirmationRequired - a write action must wait for an approve reaction before it runs
	ErrConfirmationRequired = errors.New("confirmation required")

	// ErrPermissionDenied - the safety guard rejected the operation (distinct from not-found)
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound - a candidate/job/stage/application could not be resolved
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput - a write action is missing a required argument
	ErrInvalidInput = errors.New("invalid input")

	// ErrStaleSession - lookup against an expired or never-created session; callers treat this as a normal negative result, not a failure
	ErrStaleSession = errors.New("stale session")

	// ErrTransient - downstream (ATS or Slack) hiccup worth retrying
	ErrTransient = errors.New("transient error")
)

// Wrap adds context while preserving the wrapped category.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// NotFound wraps a message as not found.
func NotFound(message string) error {
	return fmt.Errorf("%s: %w", message, ErrNotFound)
}

// PermissionDenied wraps a message as permission denied.
func PermissionDenied(message string) error {
	return fmt.Errorf("%s: %w", message, ErrPermissionDenied)
}

// InvalidInput wraps a message as invalid input.
func InvalidInput(message string) error {
	return fmt.Errorf("%s: %w", message, ErrInvalidInput)
}

// Transient wraps a message as transient.
func Transient(message string) error {
	return fmt.Errorf("%s: %w", message, ErrTransient)
}
