package rbac

// Role-based model with role inheritance. Subjects are role names set by
// the auth middleware, not individual employees.
const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

// policies is the static permission matrix. admin inherits everything
// employee can do, super_admin inherits from admin.
var policies = [][]string{
	{"employee", "session", "track"},
	{"employee", "session", "read"},
	{"employee", "correction", "create"},
	{"employee", "correction", "read"},

	{"admin", "session", "read_all"},
	{"admin", "correction", "read_all"},
	{"admin", "correction", "review"},
}

var roleInheritance = [][]string{
	{"admin", "employee"},
	{"super_admin", "admin"},
}
