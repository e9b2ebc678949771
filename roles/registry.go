package roles

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ruteri/aml-oracle-backend/interfaces"
)

// ErrNoSuchMember is returned by Member when the index is out of range for
// the role's current membership.
var ErrNoSuchMember = errors.New("no role member at index")

// Registry holds named permission sets and their membership. Each role is
// administered by another role (the root admin role administers itself and,
// by default, every other role). Membership is kept in insertion order so
// the nth holder of a role can be looked up by index.
//
// The registry is not safe for concurrent use on its own; the owning oracle
// serializes access as part of its transaction discipline.
type Registry struct {
	members map[interfaces.RoleID][]common.Address
	index   map[interfaces.RoleID]map[common.Address]struct{}
	admins  map[interfaces.RoleID]interfaces.RoleID
}

// New creates a registry with rootAdmin seeded as the sole holder of the
// root administrative role.
func New(rootAdmin common.Address) *Registry {
	r := &Registry{
		members: make(map[interfaces.RoleID][]common.Address),
		index:   make(map[interfaces.RoleID]map[common.Address]struct{}),
		admins:  make(map[interfaces.RoleID]interfaces.RoleID),
	}
	r.Seed(interfaces.RoleAdmin, rootAdmin)
	return r
}

// AdminRole returns the role that administers the given role. Unconfigured
// roles are administered by the root admin role.
func (r *Registry) AdminRole(role interfaces.RoleID) interfaces.RoleID {
	return r.admins[role]
}

// SetAdminRole rebinds which role administers role. This is a construction
// time configuration hook, not a caller-gated operation.
func (r *Registry) SetAdminRole(role, admin interfaces.RoleID) {
	r.admins[role] = admin
}

// Seed grants a role without an authorization check. Used while wiring a
// fresh deployment, before any caller-facing operation runs.
func (r *Registry) Seed(role interfaces.RoleID, principal common.Address) {
	r.add(role, principal)
}

// Grant adds principal to role. The caller must hold the role's admin role.
// Granting an already-held role is a no-op.
func (r *Registry) Grant(caller common.Address, role interfaces.RoleID, principal common.Address) error {
	if !r.HasRole(r.AdminRole(role), caller) {
		return interfaces.ErrUnauthorized
	}
	r.add(role, principal)
	return nil
}

// Revoke removes principal from role. The caller must hold the role's admin
// role. Revoking a role the principal does not hold is a no-op.
func (r *Registry) Revoke(caller common.Address, role interfaces.RoleID, principal common.Address) error {
	if !r.HasRole(r.AdminRole(role), caller) {
		return interfaces.ErrUnauthorized
	}
	r.remove(role, principal)
	return nil
}

// HasRole reports whether principal currently holds role.
func (r *Registry) HasRole(role interfaces.RoleID, principal common.Address) bool {
	_, ok := r.index[role][principal]
	return ok
}

// Members returns the role's holders in insertion order.
func (r *Registry) Members(role interfaces.RoleID) []common.Address {
	out := make([]common.Address, len(r.members[role]))
	copy(out, r.members[role])
	return out
}

// Member returns the index-th holder of role.
func (r *Registry) Member(role interfaces.RoleID, index int) (common.Address, error) {
	m := r.members[role]
	if index < 0 || index >= len(m) {
		return common.Address{}, ErrNoSuchMember
	}
	return m[index], nil
}

// Clone returns a deep copy of the registry for the snapshot-and-commit
// transaction wrapper.
func (r *Registry) Clone() *Registry {
	c := &Registry{
		members: make(map[interfaces.RoleID][]common.Address, len(r.members)),
		index:   make(map[interfaces.RoleID]map[common.Address]struct{}, len(r.index)),
		admins:  make(map[interfaces.RoleID]interfaces.RoleID, len(r.admins)),
	}
	for role, members := range r.members {
		c.members[role] = append([]common.Address(nil), members...)
	}
	for role, set := range r.index {
		cp := make(map[common.Address]struct{}, len(set))
		for p := range set {
			cp[p] = struct{}{}
		}
		c.index[role] = cp
	}
	for role, admin := range r.admins {
		c.admins[role] = admin
	}
	return c
}

func (r *Registry) add(role interfaces.RoleID, principal common.Address) {
	if r.HasRole(role, principal) {
		return
	}
	if r.index[role] == nil {
		r.index[role] = make(map[common.Address]struct{})
	}
	r.index[role][principal] = struct{}{}
	r.members[role] = append(r.members[role], principal)
}

func (r *Registry) remove(role interfaces.RoleID, principal common.Address) {
	if !r.HasRole(role, principal) {
		return
	}
	delete(r.index[role], principal)
	members := r.members[role]
	for i, p := range members {
		if p == principal {
			r.members[role] = append(members[:i], members[i+1:]...)
			break
		}
	}
}
