package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/maintenance/core/identity"
)

const uniqueViolation = "23505"

type credentialRow struct {
	PrincipalID  string    `db:"principal_id"`
	Email        string    `db:"email"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    null.Time `db:"created_at"`
	LastLogin    null.Time `db:"last_login"`
}

func newCredentialRow(c identity.Credential) credentialRow {
	return credentialRow{
		PrincipalID:  c.PrincipalID,
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		CreatedAt:    null.NewTime(c.CreatedAt.UTC(), !c.CreatedAt.IsZero()),
		LastLogin:    null.NewTime(c.LastLogin.UTC(), !c.LastLogin.IsZero()),
	}
}

func (r credentialRow) credential() identity.Credential {
	return identity.Credential{
		PrincipalID:  r.PrincipalID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.Time,
		LastLogin:    r.LastLogin.Time,
	}
}

type credentialRepository struct {
	db *sqlx.DB
}

var _ identity.Repository = (*credentialRepository)(nil)

func NewCredentialRepository(db *sqlx.DB) *credentialRepository {
	return &credentialRepository{db: db}
}

func (repo *credentialRepository) get(ctx context.Context, where string, arg interface{}) (identity.Credential, error) {
	var row credentialRow
	q := `SELECT principal_id, email, password_hash, created_at, last_login FROM credentials WHERE ` + where
	if err := repo.db.GetContext(ctx, &row, q, arg); err != nil {
		if err == sql.ErrNoRows {
			return identity.Credential{}, identity.ErrNotFound
		}
		return identity.Credential{}, errors.Wrap(err, "getting credential")
	}
	return row.credential(), nil
}

func (repo *credentialRepository) CreateCredential(ctx context.Context, cred identity.Credential) (identity.Credential, error) {
	q := `INSERT INTO credentials (principal_id, email, password_hash, created_at, last_login)
		VALUES (:principal_id, :email, :password_hash, COALESCE(:created_at, NOW()), :last_login)`
	if _, err := repo.db.NamedExecContext(ctx, q, newCredentialRow(cred)); err != nil {
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return identity.Credential{}, identity.ErrExists
		}
		return identity.Credential{}, errors.Wrap(err, "inserting credential")
	}
	return cred, nil
}

func (repo *credentialRepository) GetCredentialByEmail(ctx context.Context, email string) (identity.Credential, error) {
	return repo.get(ctx, `email = $1`, email)
}

func (repo *credentialRepository) GetCredentialByPrincipalID(ctx context.Context, id string) (identity.Credential, error) {
	if !isUUID(id) {
		return identity.Credential{}, identity.ErrNotFound
	}
	return repo.get(ctx, `principal_id = $1`, id)
}

func (repo *credentialRepository) UpdateCredential(ctx context.Context, cred identity.Credential) (identity.Credential, error) {
	q := `UPDATE credentials SET password_hash = :password_hash, last_login = :last_login WHERE principal_id = :principal_id`
	res, err := repo.db.NamedExecContext(ctx, q, newCredentialRow(cred))
	if err != nil {
		return identity.Credential{}, errors.Wrap(err, "updating credential")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return identity.Credential{}, identity.ErrNotFound
	}
	return cred, nil
}

func (repo *credentialRepository) DeleteCredentials(ctx context.Context, principalIDs ...string) error {
	q := `DELETE FROM credentials WHERE principal_id = ANY($1::uuid[])`
	if _, err := repo.db.ExecContext(ctx, q, pq.Array(principalIDs)); err != nil {
		return errors.Wrap(err, "deleting credentials")
	}
	return nil
}
