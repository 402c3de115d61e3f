package identity

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid identity token")
	ErrNoProvider         = errors.New("sign-in provider not configured")
	ErrNotSignedIn        = errors.New("not signed in")
)
