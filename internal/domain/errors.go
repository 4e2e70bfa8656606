package domain

import "errors"

// Domain errors translated to stable error kinds at the HTTP boundary.
// Messages are user-visible; none of them may disclose whether an email
// address exists or who owns a resource.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email is not verified")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrInvalidRole        = errors.New("invalid role")
	ErrAdminsOnly         = errors.New("admins only")
	ErrContactEmailTaken  = errors.New("contact with this email already exists")
	ErrContactNameTaken   = errors.New("contact with this name already exists")
	ErrInvalidWindow      = errors.New("days must be between 1 and 366")
	ErrUpstream           = errors.New("upstream service unavailable")
)
