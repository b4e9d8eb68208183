package account

import (
	"errors"
	"fmt"
)

var (
	ErrHashBackend              = errors.New("hash backend failure")
	ErrBadCredentials           = errors.New("invalid credentials")
	ErrInvalidConfirmationToken = errors.New("invalid or expired confirmation token")
	ErrAlreadyConfirmed         = errors.New("email already confirmed")
	ErrPasswordRequired         = errors.New("password required")
	ErrPasswordTooLong          = errors.New("password longer than 72 bytes")
	ErrMissingAccountID         = errors.New("account id required")
	ErrInvalidHashCost          = errors.New("invalid hash cost")
)

// HashBackendError reports a failure of the bcrypt primitive itself, as opposed
// to a plain mismatch. Callers should surface it as an internal error only.
type HashBackendError struct {
	Op  string
	Err error
}

func (e *HashBackendError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *HashBackendError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrHashBackend) match any HashBackendError.
func (e *HashBackendError) Is(target error) bool { return target == ErrHashBackend }
