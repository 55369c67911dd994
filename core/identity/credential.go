// Package identity is the credential verifier of the API: it owns sign-in emails and password hashes.
package identity

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound = errors.New("credential not found")
	ErrExists   = errors.New("a credential with this email already exists")
)

type Credential struct {
	PrincipalID  string    `db:"principal_id"`
	Email        string    `db:"email"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"` // UTC
	LastLogin    time.Time `db:"last_login"` // UTC
}

func (c *Credential) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	c.PasswordHash = hash
	return nil
}

func (c *Credential) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(c.PasswordHash, []byte(pwd))
}

type Repository interface {
	// CreateCredential returns ErrExists when the email is taken.
	CreateCredential(ctx context.Context, cred Credential) (Credential, error)
	GetCredentialByEmail(ctx context.Context, email string) (Credential, error)
	GetCredentialByPrincipalID(ctx context.Context, id string) (Credential, error)
	UpdateCredential(ctx context.Context, cred Credential) (Credential, error)
	DeleteCredentials(ctx context.Context, principalIDs ...string) error
}
