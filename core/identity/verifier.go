package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/maintenance/core"
	"github.com/trezcool/maintenance/core/session"
)

// Verifier checks email/password pairs against the stored credentials.
// It also registers and removes credentials on behalf of the user service.
type Verifier struct {
	repo   Repository
	logger core.Logger
}

func NewVerifier(repo Repository, logger core.Logger) *Verifier {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	return &Verifier{repo: repo, logger: logger}
}

// Verify returns the principal id of the credential, or a *session.AuthenticationError.
func (v *Verifier) Verify(ctx context.Context, email, pwd string) (string, error) {
	email = core.CleanString(email, true /* lower */)
	if email == "" || pwd == "" {
		return "", session.NewAuthenticationError(session.InvalidCredentials)
	}

	cred, err := v.repo.GetCredentialByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return "", session.NewAuthenticationError(session.UserNotFound)
		}
		return "", errors.Wrap(err, "finding credential by email")
	}
	if err = cred.CheckPassword(pwd); err != nil {
		return "", session.NewAuthenticationError(session.WrongPassword)
	}

	cred.LastLogin = time.Now().UTC()
	if _, err = v.repo.UpdateCredential(ctx, cred); err != nil {
		// not worth failing the login for
		v.logger.Warn("setting last login", err, map[string]interface{}{"principal_id": cred.PrincipalID})
	}
	return cred.PrincipalID, nil
}

// Register creates a credential and issues its principal id.
func (v *Verifier) Register(ctx context.Context, email, pwd string) (string, error) {
	cred := Credential{
		PrincipalID: uuid.New().String(),
		Email:       core.CleanString(email, true /* lower */),
		CreatedAt:   time.Now().UTC(),
	}
	if err := cred.SetPassword(pwd); err != nil {
		return "", errors.Wrap(err, "hashing password")
	}
	cred, err := v.repo.CreateCredential(ctx, cred)
	if err != nil {
		if errors.Cause(err) == ErrExists {
			return "", core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return "", errors.Wrap(err, "creating credential")
	}
	return cred.PrincipalID, nil
}

// Remove deletes the credentials of the principals.
func (v *Verifier) Remove(ctx context.Context, principalIDs ...string) error {
	return v.repo.DeleteCredentials(ctx, principalIDs...)
}

// SetPassword replaces the password of the credential registered with email.
func (v *Verifier) SetPassword(ctx context.Context, email, pwd string) error {
	cred, err := v.repo.GetCredentialByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}
	if err = cred.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	_, err = v.repo.UpdateCredential(ctx, cred)
	return err
}
