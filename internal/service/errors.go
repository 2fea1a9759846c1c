package service

import "errors"

// Error kinds. Every error returned by this package that callers should
// react to unwraps to exactly one of them.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalid      = errors.New("invalid request")
)

// Error is a domain error with a user-facing message and a kind.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }
func (e *Error) Unwrap() error { return e.Kind }

var (
	ErrUserNotFound       = &Error{Kind: ErrNotFound, Msg: "user not found"}
	ErrAddressNotFound    = &Error{Kind: ErrNotFound, Msg: "address not found"}
	ErrEmailTaken         = &Error{Kind: ErrConflict, Msg: "user with this email already exists"}
	ErrInvalidCredentials = &Error{Kind: ErrUnauthorized, Msg: "invalid credentials"}
	ErrEmailRequired      = &Error{Kind: ErrInvalid, Msg: "email is required"}
	ErrPasswordRequired   = &Error{Kind: ErrInvalid, Msg: "password is required"}
)
