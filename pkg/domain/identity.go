package domain

import "context"

// Role identifies the actor category gating sign-offs and commands.
type Role string

// Actor roles recognised by the core. The core checks role membership
// only; authentication is an external concern.
const (
	RoleWarehouse  Role = "warehouse"
	RoleQC         Role = "qc"
	RoleSupervisor Role = "supervisor"
	RoleAdmin      Role = "admin"
)

// User is the resolved actor for the current operation.
type User struct {
	ID   string
	Name string
	Role Role
}

// Identity is the identity/role port consumed by the managers.
type Identity interface {
	CurrentUser(ctx context.Context) (User, error)
}

// StaticIdentity returns a fixed user; used by tests and single-actor
// tooling.
type StaticIdentity struct {
	User User
}

// CurrentUser returns the configured user.
func (s StaticIdentity) CurrentUser(context.Context) (User, error) {
	return s.User, nil
}
