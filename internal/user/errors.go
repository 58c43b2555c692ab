package user

import "errors"

var (
	ErrNotFound           = errors.New("user: not found")
	ErrConflict           = errors.New("user: email already registered")
	ErrInvalidCredentials = errors.New("user: invalid credentials")
	ErrForbidden          = errors.New("user: insufficient permissions")
	ErrFlagsImmutable     = errors.New("user: cannot change permission flags")
	ErrInvalidInput       = errors.New("user: invalid input")
)
