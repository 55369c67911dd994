package session

import (
	"errors"
	"fmt"
)

// AuthFailure tells why a credential verification failed.
type AuthFailure int

const (
	InvalidCredentials AuthFailure = iota
	UserNotFound
	WrongPassword
)

func (f AuthFailure) String() string {
	switch f {
	case UserNotFound:
		return "user not found"
	case WrongPassword:
		return "wrong password"
	default:
		return "invalid credentials"
	}
}

// AuthenticationError is returned by CredentialVerifier.Verify for bad credentials.
type AuthenticationError struct {
	Kind AuthFailure
	Err  error
}

func NewAuthenticationError(kind AuthFailure, err ...error) error {
	aErr := &AuthenticationError{Kind: kind}
	if len(err) > 0 {
		aErr.Err = err[0]
	}
	return aErr
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return "authentication failed: " + e.Kind.String() + ": " + e.Err.Error()
	}
	return "authentication failed: " + e.Kind.String()
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// IsAuthenticationError reports whether err is an AuthenticationError and returns its kind.
func IsAuthenticationError(err error) (AuthFailure, bool) {
	var aErr *AuthenticationError
	if errors.As(err, &aErr) {
		return aErr.Kind, true
	}
	return 0, false
}

// ErrProfileNotFound means the principal was verified but holds no profile in the directory.
var ErrProfileNotFound = errors.New("profile not found")

// DirectoryError wraps a failure to reach the role directory.
type DirectoryError struct {
	Err error
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("role directory: %v", e.Err)
}

func (e *DirectoryError) Unwrap() error { return e.Err }
