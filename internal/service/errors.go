package service

import "errors"

var (
	ErrNotFound           = errors.New("task not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidInput       = errors.New("invalid input")
	ErrRateLimited        = errors.New("too many submissions")
)

// InputError carries a user-facing validation message and matches
// ErrInvalidInput under errors.Is.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

func invalid(message string) error {
	return &InputError{Message: message}
}
