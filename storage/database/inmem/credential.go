package inmemdb

import (
	"context"

	"github.com/trezcool/maintenance/core/identity"
)

type credentialRepository struct {
	db *credentialTable
}

var _ identity.Repository = (*credentialRepository)(nil)

func NewCredentialRepository(db *DB) *credentialRepository {
	return &credentialRepository{db: db.credential}
}

func (repo *credentialRepository) CreateCredential(_ context.Context, cred identity.Credential) (identity.Credential, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, c := range repo.db.table {
		if c.Email == cred.Email {
			return identity.Credential{}, identity.ErrExists
		}
	}
	repo.db.table[cred.PrincipalID] = &cred
	return cred, nil
}

func (repo *credentialRepository) GetCredentialByEmail(_ context.Context, email string) (identity.Credential, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, c := range repo.db.table {
		if c.Email == email {
			return *c, nil
		}
	}
	return identity.Credential{}, identity.ErrNotFound
}

func (repo *credentialRepository) GetCredentialByPrincipalID(_ context.Context, id string) (identity.Credential, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.table[id]; ok {
		return *c, nil
	}
	return identity.Credential{}, identity.ErrNotFound
}

func (repo *credentialRepository) UpdateCredential(_ context.Context, cred identity.Credential) (identity.Credential, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[cred.PrincipalID]
	if !ok {
		return identity.Credential{}, identity.ErrNotFound
	}
	orig.PasswordHash = cred.PasswordHash
	orig.LastLogin = cred.LastLogin
	return *orig, nil
}

func (repo *credentialRepository) DeleteCredentials(_ context.Context, principalIDs ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range principalIDs {
		delete(repo.db.table, id)
	}
	return nil
}
