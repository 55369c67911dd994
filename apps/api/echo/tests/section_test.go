package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/maintenance/core/dashboard"
	"github.com/trezcool/maintenance/core/session"
	"github.com/trezcool/maintenance/core/user"
)

type denied struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect"`
}

func TestSectionGuard(t *testing.T) {
	resetDB(t)

	users := map[user.Role]user.User{
		user.RoleAdmin:             createUser(t, user.RoleAdmin, "admin"),
		user.RoleSupervisor:        createUser(t, user.RoleSupervisor, "sup"),
		user.RoleTechnician:        createUser(t, user.RoleTechnician, "tech"),
		user.RoleInventoryEmployee: createUser(t, user.RoleInventoryEmployee, "inv"),
	}

	for _, section := range session.Sections() {
		path := "/v1" + section.Landing

		t.Run(section.Name+"/anonymous", func(t *testing.T) {
			tt := httpTest{path: path, wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)}
			checkCodeAndData(t, tt, tt.run(t))
		})

		for role, usr := range users {
			role, usr := role, usr
			t.Run(section.Name+"/"+string(role), func(t *testing.T) {
				rec := httpTest{path: path, token: getToken(t, usr)}.run(t)

				if role != section.Role {
					require.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
					var res denied
					unmarshall(t, rec, &res)
					assert.Equal(t, denied{Error: "permission denied", Redirect: session.RouteFor(role)}, res)
					return
				}

				require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
				var summary dashboard.Summary
				unmarshall(t, rec, &summary)
				assert.Equal(t, role, summary.Role)
				assert.NotEmpty(t, summary.Cards)
			})
		}
	}
}

func TestSectionGuard_unknownRole(t *testing.T) {
	resetDB(t)

	ghost := user.User{ID: "ghost", Role: "janitor", Email: "ghost@test.cd"}
	rec := httpTest{path: "/v1/technician/tasks", token: getToken(t, ghost)}.run(t)

	require.Equal(t, http.StatusForbidden, rec.Code)
	var res denied
	unmarshall(t, rec, &res)
	assert.Equal(t, session.RootPath, res.Redirect)
}

func TestSectionGuard_directoryRole(t *testing.T) {
	resetDB(t)

	t.Run("deleted profile", func(t *testing.T) {
		tech := createUser(t, user.RoleTechnician, "tech")
		token := getToken(t, tech)
		require.NoError(t, usrSvc.Delete(ctxBg, tech.ID))

		rec := httpTest{path: "/v1/technician/dashboard", token: token}.run(t)
		require.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
		var res denied
		unmarshall(t, rec, &res)
		assert.Equal(t, denied{Error: "permission denied", Redirect: session.RootPath}, res)
	})

	t.Run("demoted", func(t *testing.T) {
		sup := createUser(t, user.RoleSupervisor, "sup")
		token := getToken(t, sup)
		_, err := usrSvc.Update(ctxBg, sup, user.UpdateUser{
			FirstName: sup.FirstName, LastName: sup.LastName, Username: sup.Username, Role: user.RoleTechnician,
		})
		require.NoError(t, err)

		rec := httpTest{path: "/v1/supervisor/tasks", token: token}.run(t)
		require.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
		var res denied
		unmarshall(t, rec, &res)
		assert.Equal(t, denied{Error: "permission denied", Redirect: "/technician/dashboard"}, res)

		rec = httpTest{path: "/v1/technician/dashboard", token: token}.run(t)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var summary dashboard.Summary
		unmarshall(t, rec, &summary)
		assert.Equal(t, user.RoleTechnician, summary.Role)
	})

	t.Run("promoted", func(t *testing.T) {
		inv := createUser(t, user.RoleInventoryEmployee, "inv")
		token := getToken(t, inv)
		_, err := usrSvc.Update(ctxBg, inv, user.UpdateUser{
			FirstName: inv.FirstName, LastName: inv.LastName, Username: inv.Username, Role: user.RoleSupervisor,
		})
		require.NoError(t, err)

		rec := httpTest{path: "/v1/supervisor/tasks", token: token}.run(t)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})
}
