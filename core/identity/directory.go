package identity

import (
	"context"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/maintenance/core/session"
	"github.com/trezcool/maintenance/core/user"
)

type ProfileGetter interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

// Directory resolves principals to their user profile.
type Directory struct {
	users ProfileGetter
}

var _ session.RoleDirectory = (*Directory)(nil)

func NewDirectory(users ProfileGetter) *Directory {
	vala.BeginValidation().Validate(
		vala.IsNotNil(users, "users"),
	).CheckAndPanic()

	return &Directory{users: users}
}

func (d *Directory) FindProfileByPrincipalID(ctx context.Context, id string) (session.Profile, error) {
	usr, err := d.users.GetByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return session.Profile{}, session.ErrProfileNotFound
		}
		return session.Profile{}, errors.Wrap(err, "finding user by ID")
	}
	return ProfileOf(usr), nil
}

func ProfileOf(usr user.User) session.Profile {
	return session.Profile{
		PrincipalID: usr.ID,
		Role:        usr.Role,
		Email:       usr.Email,
		Name:        usr.FullName(),
	}
}
