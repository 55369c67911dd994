package session

import (
	"sort"
	"strings"

	"github.com/trezcool/maintenance/core/user"
)

// RootPath is where unknown roles and anonymous principals land.
const RootPath = "/"

type (
	NavItem struct {
		Name string `json:"name"`
		Path string `json:"path"`
	}

	// Section is one of the top-level areas of the application, reserved to a single role.
	Section struct {
		Name    string    `json:"name"`
		Role    user.Role `json:"role"`
		Root    string    `json:"root"`
		Landing string    `json:"landing"`
		Nav     []NavItem `json:"nav"`
	}
)

// Contains reports whether path belongs to the section.
func (s Section) Contains(path string) bool {
	return path == s.Root || strings.HasPrefix(path, s.Root+"/")
}

var sections = map[user.Role]Section{
	user.RoleAdmin: {
		Name:    "Admin",
		Role:    user.RoleAdmin,
		Root:    "/admin",
		Landing: "/admin/dashboard",
		Nav: []NavItem{
			{Name: "Dashboard", Path: "/admin/dashboard"},
			{Name: "Users", Path: "/admin/users"},
		},
	},
	user.RoleSupervisor: {
		Name:    "Supervisor",
		Role:    user.RoleSupervisor,
		Root:    "/supervisor",
		Landing: "/supervisor/dashboard",
		Nav: []NavItem{
			{Name: "Dashboard", Path: "/supervisor/dashboard"},
			{Name: "Tasks", Path: "/supervisor/tasks"},
			{Name: "Completed Tasks", Path: "/supervisor/completed-tasks"},
			{Name: "Overdue Tasks", Path: "/supervisor/overdue-tasks"},
			{Name: "Material Usage", Path: "/supervisor/material-usage"},
			{Name: "Machines", Path: "/supervisor/machines"},
			{Name: "Service Log", Path: "/supervisor/service-log"},
		},
	},
	user.RoleTechnician: {
		Name:    "Technician",
		Role:    user.RoleTechnician,
		Root:    "/technician",
		Landing: "/technician/dashboard",
		Nav: []NavItem{
			{Name: "Dashboard", Path: "/technician/dashboard"},
			{Name: "Tasks", Path: "/technician/tasks"},
			{Name: "Completed Tasks", Path: "/technician/completed-tasks"},
			{Name: "Overdue Tasks", Path: "/technician/overdue-tasks"},
			{Name: "Material Usage", Path: "/technician/material-usage"},
			{Name: "Service Log", Path: "/technician/service-log"},
			{Name: "Request Materials", Path: "/technician/request-materials"},
			{Name: "Meter Reading", Path: "/technician/meter-reading"},
			{Name: "Profile", Path: "/technician/profile"},
			{Name: "Settings", Path: "/technician/settings"},
		},
	},
	user.RoleInventoryEmployee: {
		Name:    "Inventory Employee",
		Role:    user.RoleInventoryEmployee,
		Root:    "/inventory-employee",
		Landing: "/inventory-employee/dashboard",
		Nav: []NavItem{
			{Name: "Dashboard", Path: "/inventory-employee/dashboard"},
			{Name: "Completed Tasks", Path: "/inventory-employee/completed-tasks"},
			{Name: "Overdue Tasks", Path: "/inventory-employee/overdue-tasks"},
			{Name: "Material Usage", Path: "/inventory-employee/material-usage"},
			{Name: "Requested Materials", Path: "/inventory-employee/requested-materials"},
		},
	},
}

// RouteFor returns the landing path of role, or RootPath for unknown roles.
func RouteFor(role user.Role) string {
	if s, ok := sections[role]; ok {
		return s.Landing
	}
	return RootPath
}

// SectionFor returns the section reserved to role.
func SectionFor(role user.Role) (Section, bool) {
	s, ok := sections[role]
	return s, ok
}

// SectionByPath returns the section path belongs to.
func SectionByPath(path string) (Section, bool) {
	for _, s := range sections {
		if s.Contains(path) {
			return s, true
		}
	}
	return Section{}, false
}

// Sections returns all sections, ordered by root path.
func Sections() []Section {
	all := make([]Section, 0, len(sections))
	for _, s := range sections {
		all = append(all, s)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Root < all[j].Root })
	return all
}
