// Package access decides which role may perform which action on which resource.
package access

import (
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/pkg/errors"

	"github.com/trezcool/maintenance/core/user"
)

type (
	Resource string
	Action   string
)

const (
	Dashboard   Resource = "dashboard"
	Users       Resource = "users"
	Technicians Resource = "technicians"
	Tasks       Resource = "tasks"
	Materials   Resource = "materials"
	Machines    Resource = "machines"
	Readings    Resource = "meter_readings"
	ServiceLogs Resource = "service_logs"

	Read     Action = "read"
	Write    Action = "write"
	Create   Action = "create"
	Complete Action = "complete"
	Review   Action = "review"
	Cancel   Action = "cancel"
	Any      Action = "*"
)

const modelConf = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj && (p.act == "*" || r.act == p.act)
`

var policies = map[user.Role][]struct {
	res Resource
	act Action
}{
	user.RoleAdmin: {
		{Dashboard, Read},
		{Users, Any},
		{Technicians, Read},
		{Tasks, Read},
		{Materials, Read},
		{Machines, Read},
	},
	user.RoleSupervisor: {
		{Dashboard, Read},
		{Technicians, Read},
		{Tasks, Any},
		{Materials, Read},
		{Machines, Any},
		{Readings, Read},
		{ServiceLogs, Read},
		{ServiceLogs, Review},
	},
	user.RoleTechnician: {
		{Dashboard, Read},
		{Tasks, Read},
		{Tasks, Complete},
		{Materials, Read},
		{Materials, Create},
		{Materials, Cancel},
		{Machines, Read},
		{Readings, Read},
		{Readings, Create},
		{Readings, Write},
		{ServiceLogs, Read},
		{ServiceLogs, Create},
		{ServiceLogs, Complete},
	},
	user.RoleInventoryEmployee: {
		{Dashboard, Read},
		{Tasks, Read},
		{Materials, Read},
		{Materials, Review},
	},
}

// Enforcer answers permission checks from the static role policy.
type Enforcer struct {
	e *casbin.Enforcer
}

func NewEnforcer() (*Enforcer, error) {
	m, err := model.NewModelFromString(modelConf)
	if err != nil {
		return nil, errors.Wrap(err, "parsing access model")
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, errors.Wrap(err, "creating access enforcer")
	}

	rules := make([][]string, 0, 32)
	for role, perms := range policies {
		for _, p := range perms {
			rules = append(rules, []string{string(role), string(p.res), string(p.act)})
		}
	}
	if _, err = e.AddPolicies(rules); err != nil {
		return nil, errors.Wrap(err, "loading access policies")
	}
	return &Enforcer{e: e}, nil
}

// Can reports whether role may perform act on res. Enforcement errors deny.
func (en *Enforcer) Can(role user.Role, res Resource, act Action) bool {
	ok, err := en.e.Enforce(string(role), string(res), string(act))
	return err == nil && ok
}
