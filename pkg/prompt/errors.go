package prompt

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("prompt: aborted")
	// ErrInvalid is returned when the form still reports messages and the
	// user declined to submit it.
	ErrInvalid = errors.New("prompt: form is invalid")
	// ErrTooManyAttempts is returned when a field keeps rejecting answers.
	ErrTooManyAttempts = errors.New("prompt: too many attempts")
)
