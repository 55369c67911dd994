package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/maintenance/core/user"
)

func TestRouteFor(t *testing.T) {
	tests := []struct {
		name string
		role user.Role
		want string
	}{
		{name: "admin", role: user.RoleAdmin, want: "/admin/dashboard"},
		{name: "supervisor", role: user.RoleSupervisor, want: "/supervisor/dashboard"},
		{name: "technician", role: user.RoleTechnician, want: "/technician/dashboard"},
		{name: "inventory employee", role: user.RoleInventoryEmployee, want: "/inventory-employee/dashboard"},
		{name: "empty role", role: "", want: "/"},
		{name: "unknown role", role: "janitor", want: "/"},
		{name: "case matters", role: "Admin", want: "/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RouteFor(tt.role))
		})
	}
}

func TestRouteFor_distinctPerRole(t *testing.T) {
	seen := make(map[string]user.Role)
	for _, role := range user.AllRoles {
		path := RouteFor(role)
		assert.NotEqual(t, RootPath, path, "role %q has no landing", role)
		if other, ok := seen[path]; ok {
			t.Errorf("roles %q and %q share landing %q", role, other, path)
		}
		seen[path] = role

		section, ok := SectionFor(role)
		if assert.True(t, ok) {
			assert.True(t, section.Contains(path), "landing %q outside section %q", path, section.Root)
			assert.Equal(t, role, section.Role)
			assert.NotEmpty(t, section.Nav)
		}
	}
}

func TestSectionByPath(t *testing.T) {
	tests := []struct {
		path     string
		wantRole user.Role
		wantOk   bool
	}{
		{path: "/admin", wantRole: user.RoleAdmin, wantOk: true},
		{path: "/admin/users", wantRole: user.RoleAdmin, wantOk: true},
		{path: "/supervisor/tasks", wantRole: user.RoleSupervisor, wantOk: true},
		{path: "/technician/request-materials", wantRole: user.RoleTechnician, wantOk: true},
		{path: "/inventory-employee/requested-materials", wantRole: user.RoleInventoryEmployee, wantOk: true},
		{path: "/administrator", wantOk: false},
		{path: "/", wantOk: false},
		{path: "", wantOk: false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			section, ok := SectionByPath(tt.path)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.wantRole, section.Role)
		})
	}
}

func TestSections(t *testing.T) {
	all := Sections()
	if assert.Len(t, all, len(user.AllRoles)) {
		assert.Equal(t, "/admin", all[0].Root)
		assert.Equal(t, "/technician", all[len(all)-1].Root)
	}
}
