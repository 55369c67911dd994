// Package session holds who is logged in, with what role, and which section they may enter.
package session

import (
	"context"

	"github.com/trezcool/maintenance/core/user"
)

// Principal is the authenticated identity recognized by a Store.
type Principal struct {
	ID   string    `json:"id"`
	Role user.Role `json:"role"`
}

// Session is a snapshot of a Store. Principal must not be trusted while Loading is true.
type Session struct {
	Principal *Principal
	Loading   bool
}

func (s Session) Authenticated() bool {
	return !s.Loading && s.Principal != nil
}

func (s Session) Equal(other Session) bool {
	if s.Loading != other.Loading {
		return false
	}
	if s.Principal == nil || other.Principal == nil {
		return s.Principal == other.Principal
	}
	return *s.Principal == *other.Principal
}

func (s Session) copy() Session {
	if s.Principal != nil {
		p := *s.Principal
		s.Principal = &p
	}
	return s
}

// Profile is the directory record of a principal.
type Profile struct {
	PrincipalID string    `json:"id"`
	Role        user.Role `json:"role"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
}

type (
	// CredentialVerifier validates email/password pairs and reports sign-in/out events.
	CredentialVerifier interface {
		// Verify returns the principal id, or an *AuthenticationError.
		Verify(ctx context.Context, email, pwd string) (string, error)
		SignOut(ctx context.Context) error
		// Subscribe registers onChange for every authentication state change.
		// An empty principal id means no one is signed in.
		Subscribe(onChange func(principalID string)) (unsubscribe func())
	}

	// RoleDirectory maps a principal id to its profile.
	RoleDirectory interface {
		// FindProfileByPrincipalID returns ErrProfileNotFound when no profile exists.
		FindProfileByPrincipalID(ctx context.Context, id string) (Profile, error)
	}
)
