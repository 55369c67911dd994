package client

import (
	"context"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/maintenance/core/session"
)

// Directory resolves profiles through the API with the stored token.
type Directory struct {
	api   *API
	files *FileStore
}

var _ session.RoleDirectory = (*Directory)(nil)

func NewDirectory(api *API, files *FileStore) *Directory {
	vala.BeginValidation().Validate(
		vala.IsNotNil(api, "api"),
		vala.IsNotNil(files, "files"),
	).CheckAndPanic()

	return &Directory{api: api, files: files}
}

func (d *Directory) FindProfileByPrincipalID(ctx context.Context, id string) (session.Profile, error) {
	creds, err := d.files.Load()
	if err != nil {
		return session.Profile{}, &session.DirectoryError{Err: err}
	}
	profile, err := d.api.Profile(ctx, creds.Token, id)
	if err != nil {
		if errors.Is(err, session.ErrProfileNotFound) {
			return session.Profile{}, session.ErrProfileNotFound
		}
		return session.Profile{}, &session.DirectoryError{Err: err}
	}
	return profile, nil
}
