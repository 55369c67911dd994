package user_test

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/maintenance/core"
	"github.com/trezcool/maintenance/core/identity"
	"github.com/trezcool/maintenance/core/session"
	"github.com/trezcool/maintenance/core/user"
	logsvc "github.com/trezcool/maintenance/services/logger"
	inmemdb "github.com/trezcool/maintenance/storage/database/inmem"
)

const testPassword = "Maint3nance"

var ctxBg = context.Background()

type env struct {
	svc      *user.Service
	verifier *identity.Verifier
}

func setup(t *testing.T, wrap ...func(user.Repository) user.Repository) env {
	t.Helper()
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), core.NewTestConfig())
	db := inmemdb.Open()

	var repo user.Repository = inmemdb.NewUserRepository(db)
	for _, w := range wrap {
		repo = w(repo)
	}
	verifier := identity.NewVerifier(inmemdb.NewCredentialRepository(db), logger)
	return env{svc: user.NewService(repo, verifier, logger), verifier: verifier}
}

func newUser(username string, role user.Role) user.NewUser {
	return user.NewUser{
		Email:           username + "@test.cd",
		FirstName:       "First",
		LastName:        username,
		Username:        username,
		Password:        testPassword,
		PasswordConfirm: testPassword,
		Role:            role,
	}
}

// failingRepo refuses to store profiles.
type failingRepo struct {
	user.Repository
}

func (failingRepo) CreateUser(context.Context, user.User) (user.User, error) {
	return user.User{}, errors.New("disk full")
}

func TestService_Create(t *testing.T) {
	e := setup(t)

	usr, err := e.svc.Create(ctxBg, newUser("tech", user.RoleTechnician))
	require.NoError(t, err)
	assert.NotEmpty(t, usr.ID)
	assert.Equal(t, user.RoleTechnician, usr.Role)
	assert.False(t, usr.CreatedAt.IsZero())

	// the profile is keyed by the principal id of its credential
	id, err := e.verifier.Verify(ctxBg, "tech@test.cd", testPassword)
	require.NoError(t, err)
	assert.Equal(t, usr.ID, id)

	tests := []struct {
		name      string
		nu        user.NewUser
		wantField string
	}{
		{name: "username taken", nu: func() user.NewUser { nu := newUser("tech", user.RoleAdmin); nu.Email = "other@test.cd"; return nu }(), wantField: "username"},
		{name: "email taken", nu: func() user.NewUser { nu := newUser("other", user.RoleAdmin); nu.Email = "tech@test.cd"; return nu }(), wantField: "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.Create(ctxBg, tt.nu)
			var vErr *core.ValidationError
			require.ErrorAs(t, err, &vErr)
			require.Len(t, vErr.Fields, 1)
			assert.Equal(t, tt.wantField, vErr.Fields[0].Field)
		})
	}
}

func TestService_Create_removesOrphanCredential(t *testing.T) {
	e := setup(t, func(r user.Repository) user.Repository { return &failingRepo{r} })

	_, err := e.svc.Create(ctxBg, newUser("tech", user.RoleTechnician))
	require.Error(t, err)

	_, err = e.verifier.Verify(ctxBg, "tech@test.cd", testPassword)
	kind, ok := session.IsAuthenticationError(err)
	require.True(t, ok)
	assert.Equal(t, session.UserNotFound, kind)
}

func TestService_Query(t *testing.T) {
	e := setup(t)
	for _, nu := range []user.NewUser{
		newUser("alice", user.RoleAdmin),
		newUser("bob", user.RoleTechnician),
		newUser("carol", user.RoleTechnician),
	} {
		_, err := e.svc.Create(ctxBg, nu)
		require.NoError(t, err)
	}

	usernames := func(users []user.User) []string {
		names := make([]string, 0, len(users))
		for _, u := range users {
			names = append(names, u.Username)
		}
		return names
	}

	tests := []struct {
		name     string
		filter   *user.QueryFilter
		ordering []core.DBOrdering
		want     []string
	}{
		{name: "all by username", ordering: []core.DBOrdering{{Field: "username", Ascending: true}}, want: []string{"alice", "bob", "carol"}},
		{name: "role", filter: &user.QueryFilter{Roles: []user.Role{user.RoleTechnician}}, ordering: []core.DBOrdering{{Field: "username"}}, want: []string{"carol", "bob"}},
		{name: "search is cleaned", filter: &user.QueryFilter{Search: "  CAR "}, want: []string{"carol"}},
		{name: "no match", filter: &user.QueryFilter{Search: "zed"}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, err := e.svc.Query(ctxBg, tt.filter, tt.ordering)
			require.NoError(t, err)
			assert.Equal(t, tt.want, usernames(users))
		})
	}
}

func TestService_Update(t *testing.T) {
	e := setup(t)
	tech, err := e.svc.Create(ctxBg, newUser("tech", user.RoleTechnician))
	require.NoError(t, err)
	_, err = e.svc.Create(ctxBg, newUser("other", user.RoleTechnician))
	require.NoError(t, err)

	_, err = e.svc.Update(ctxBg, tech, user.UpdateUser{FirstName: "T", LastName: "Ech", Username: "other", Role: user.RoleTechnician})
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)

	usr, err := e.svc.Update(ctxBg, tech, user.UpdateUser{FirstName: "T", LastName: "Ech", Username: "tech", Role: user.RoleSupervisor})
	require.NoError(t, err)
	assert.Equal(t, user.RoleSupervisor, usr.Role)
	assert.Equal(t, "T Ech", usr.FullName())

	got, err := e.svc.GetByEmail(ctxBg, " TECH@test.cd")
	require.NoError(t, err)
	assert.Equal(t, user.RoleSupervisor, got.Role)
}

func TestService_Delete(t *testing.T) {
	e := setup(t)
	tech, err := e.svc.Create(ctxBg, newUser("tech", user.RoleTechnician))
	require.NoError(t, err)

	require.NoError(t, e.svc.Delete(ctxBg))
	require.NoError(t, e.svc.Delete(ctxBg, tech.ID))

	_, err = e.svc.GetByID(ctxBg, tech.ID)
	assert.Equal(t, user.ErrNotFound, err)
	_, err = e.verifier.Verify(ctxBg, "tech@test.cd", testPassword)
	kind, _ := session.IsAuthenticationError(err)
	assert.Equal(t, session.UserNotFound, kind)
}

func TestService_CountByRole(t *testing.T) {
	e := setup(t)
	for _, nu := range []user.NewUser{
		newUser("alice", user.RoleAdmin),
		newUser("bob", user.RoleTechnician),
		newUser("carol", user.RoleTechnician),
	} {
		_, err := e.svc.Create(ctxBg, nu)
		require.NoError(t, err)
	}

	counts, err := e.svc.CountByRole(ctxBg)
	require.NoError(t, err)
	assert.Equal(t, map[user.Role]int{user.RoleAdmin: 1, user.RoleTechnician: 2}, counts)
}
