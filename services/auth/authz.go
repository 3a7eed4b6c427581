package auth

import (
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

// NewEnforcer builds the role → route-group policy. Admins inherit
// technician permissions.
func NewEnforcer() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, err
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}

	if _, err := e.AddPolicies([][]string{
		{string(RoleTechnician), "/api/v1/portal/*", "*"},
		{string(RoleAdmin), "/api/v1/admin/*", "*"},
	}); err != nil {
		return nil, err
	}

	if _, err := e.AddGroupingPolicy(string(RoleAdmin), string(RoleTechnician)); err != nil {
		return nil, err
	}

	return e, nil
}
