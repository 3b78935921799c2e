package services

import "fmt"

// ValidationError reports bad, missing, or conflicting input.
// The message is safe to return to API callers.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// StoreError wraps an infrastructure failure from the record store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

var (
	ErrEmailInUse          = &ValidationError{Message: "email already in use"}
	ErrNameRequired        = &ValidationError{Message: "name is required"}
	ErrEmailRequired       = &ValidationError{Message: "email is required"}
	ErrPasswordRequired    = &ValidationError{Message: "password is required"}
	ErrPasswordTooLong     = &ValidationError{Message: "password must be at most 72 bytes"}
	ErrNoUsers             = &ValidationError{Message: "no users registered"}
	ErrUserNotFound        = &ValidationError{Message: "user not found"}
	ErrOldPasswordRequired = &ValidationError{Message: "old password is required"}
	ErrNewPasswordRequired = &ValidationError{Message: "new password is required"}
	ErrIncorrectPassword   = &ValidationError{Message: "current password incorrect"}
	ErrPasswordUnchanged   = &ValidationError{Message: "new password must differ from current password"}
)

func storeError(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
