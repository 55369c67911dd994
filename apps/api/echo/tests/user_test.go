package tests

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/maintenance/core/user"
)

func Test_adminApi_queryUsers(t *testing.T) {
	resetDB(t)

	path := func(search, ordering string, roles ...user.Role) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if ordering != "" {
			v.Add("ordering", ordering)
		}
		for _, r := range roles {
			v.Add("role", string(r))
		}
		return "/v1/admin/users?" + v.Encode()
	}

	admin := createUser(t, user.RoleAdmin, "admin")
	sup := createUser(t, user.RoleSupervisor, "boss")
	tech := createUser(t, user.RoleTechnician, "tech")
	tech2 := createUser(t, user.RoleTechnician, "bolt")
	adminToken := getToken(t, admin)

	tests := []httpTest{
		{name: "auth required", path: "/v1/admin/users", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{
			name: "admin required", path: "/v1/admin/users", token: getToken(t, sup), wantCode: http.StatusForbidden,
			wantData: marshallObj(t, denied{Error: "permission denied", Redirect: "/supervisor/dashboard"}),
		},
		{name: "get all", path: "/v1/admin/users", token: adminToken, wantCode: http.StatusOK, wantData: marshallList(t, tech2, tech, sup, admin)},
		{name: "search (unknown)", path: path("lol", ""), token: adminToken, wantCode: http.StatusOK, wantData: marshallList(t)},
		{name: "search=BO", path: path("BO", ""), token: adminToken, wantCode: http.StatusOK, wantData: marshallList(t, tech2, sup)},
		{name: "role=technician", path: path("", "", user.RoleTechnician), token: adminToken, wantCode: http.StatusOK, wantData: marshallList(t, tech2, tech)},
		{
			name: "role=admin,supervisor", path: path("", "", user.RoleAdmin, user.RoleSupervisor), token: adminToken,
			wantCode: http.StatusOK, wantData: marshallList(t, sup, admin),
		},
		{name: "ordering=username", path: path("", "username"), token: adminToken, wantCode: http.StatusOK, wantData: marshallList(t, admin, tech2, sup, tech)},
		{name: "ordering=-username", path: path("", "-username"), token: adminToken, wantCode: http.StatusOK, wantData: marshallList(t, tech, sup, tech2, admin)},
		{name: "roles", path: "/v1/admin/users/roles", token: adminToken, wantCode: http.StatusOK, wantData: marshallObj(t, user.Roles)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, tt.run(t))
		})
	}
}

func Test_adminApi_createUser(t *testing.T) {
	resetDB(t)

	admin := createUser(t, user.RoleAdmin, "admin")
	adminToken := getToken(t, admin)

	newUser := func(email, uname, pwd string, role user.Role) []byte {
		return marshallObj(t, user.NewUser{
			Email: email, FirstName: "Tom", LastName: "Tech", Username: uname,
			Password: pwd, PasswordConfirm: pwd, Role: role,
		})
	}

	tests := []httpTest{
		{
			name: "duplicate email", method: http.MethodPost, path: "/v1/admin/users", token: adminToken,
			body: newUser("admin@test.cd", "tom", testPassword, user.RoleTechnician), wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"email": user.ErrEmailExists.Error()}),
		},
		{
			name: "duplicate username", method: http.MethodPost, path: "/v1/admin/users", token: adminToken,
			body: newUser("tom@test.cd", "admin", testPassword, user.RoleTechnician), wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"username": user.ErrUsernameExists.Error()}),
		},
		{
			name: "unknown role", method: http.MethodPost, path: "/v1/admin/users", token: adminToken,
			body: newUser("tom@test.cd", "tom", testPassword, "janitor"), wantCode: http.StatusBadRequest,
		},
		{
			name: "weak password", method: http.MethodPost, path: "/v1/admin/users", token: adminToken,
			body: newUser("tom@test.cd", "tom", "abc", user.RoleTechnician), wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, tt.run(t))
		})
	}

	t.Run("created user can log in", func(t *testing.T) {
		rec := httpTest{
			method: http.MethodPost, path: "/v1/admin/users", token: adminToken,
			body: newUser("Tom@Test.cd", "tom", testPassword, user.RoleTechnician),
		}.run(t)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var created user.User
		unmarshall(t, rec, &created)
		assert.Equal(t, "tom@test.cd", created.Email)
		assert.Equal(t, user.RoleTechnician, created.Role)

		rec = httpTest{method: http.MethodPost, path: "/v1/auth/login", body: loginBody(t, "tom@test.cd", testPassword)}.run(t)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})
}

func Test_adminApi_updateAndDestroyUser(t *testing.T) {
	resetDB(t)

	admin := createUser(t, user.RoleAdmin, "admin")
	tech := createUser(t, user.RoleTechnician, "tech")
	adminToken := getToken(t, admin)

	t.Run("change role", func(t *testing.T) {
		rec := httpTest{
			method: http.MethodPut, path: "/v1/admin/users/" + tech.ID, token: adminToken,
			body: marshallObj(t, user.UpdateUser{Role: user.RoleSupervisor}),
		}.run(t)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var updated user.User
		unmarshall(t, rec, &updated)
		assert.Equal(t, user.RoleSupervisor, updated.Role)
		assert.Equal(t, tech.Username, updated.Username)
	})

	t.Run("cannot demote self", func(t *testing.T) {
		tt := httpTest{
			method: http.MethodPut, path: "/v1/admin/users/" + admin.ID, token: adminToken,
			body: marshallObj(t, user.UpdateUser{Role: user.RoleTechnician}), wantCode: http.StatusForbidden,
		}
		checkCodeAndData(t, tt, tt.run(t))
	})

	t.Run("unknown user", func(t *testing.T) {
		tt := httpTest{path: "/v1/admin/users/unknown", token: adminToken, wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "not found"})}
		checkCodeAndData(t, tt, tt.run(t))
	})

	t.Run("cannot delete self", func(t *testing.T) {
		tt := httpTest{method: http.MethodDelete, path: "/v1/admin/users/" + admin.ID, token: adminToken, wantCode: http.StatusForbidden}
		checkCodeAndData(t, tt, tt.run(t))

		tt = httpTest{method: http.MethodDelete, path: "/v1/admin/users?id=" + tech.ID + "&id=" + admin.ID, token: adminToken, wantCode: http.StatusForbidden}
		checkCodeAndData(t, tt, tt.run(t))
	})

	t.Run("delete", func(t *testing.T) {
		tt := httpTest{method: http.MethodDelete, path: "/v1/admin/users/" + tech.ID, token: adminToken, wantCode: http.StatusNoContent}
		assert.Equal(t, tt.wantCode, tt.run(t).Code)

		rec := httpTest{method: http.MethodPost, path: "/v1/auth/login", body: loginBody(t, tech.Email, testPassword)}.run(t)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "credential removed along with the profile")
	})
}
