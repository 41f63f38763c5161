package domain

import "errors"

// Error taxonomy. Wrap with fmt.Errorf("%w: ...") and match with errors.Is.
var (
	ErrValidation     = errors.New("validation failed")
	ErrAuthentication = errors.New("authentication failed")
	ErrAuthorization  = errors.New("access forbidden")
	ErrStorage        = errors.New("media storage failure")
	ErrPersistence    = errors.New("record store failure")
	ErrNotFound       = errors.New("not found")
)

// Identity collaborator errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
)
