package roles

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruteri/aml-oracle-backend/interfaces"
)

var (
	admin    = common.HexToAddress("0x0000000000000000000000000000000000000a01")
	operator = common.HexToAddress("0x0000000000000000000000000000000000000a02")
	intruder = common.HexToAddress("0x0000000000000000000000000000000000000a03")
)

func TestNewSeedsRootAdmin(t *testing.T) {
	r := New(admin)

	assert.True(t, r.HasRole(interfaces.RoleAdmin, admin))

	member, err := r.Member(interfaces.RoleAdmin, 0)
	require.NoError(t, err)
	assert.Equal(t, admin, member)
}

func TestGrantRequiresAdminRole(t *testing.T) {
	r := New(admin)

	err := r.Grant(intruder, interfaces.RoleSetAMLStatus, operator)
	require.ErrorIs(t, err, interfaces.ErrUnauthorized)
	assert.False(t, r.HasRole(interfaces.RoleSetAMLStatus, operator))

	require.NoError(t, r.Grant(admin, interfaces.RoleSetAMLStatus, operator))
	assert.True(t, r.HasRole(interfaces.RoleSetAMLStatus, operator))
}

func TestRevokeAndRegrant(t *testing.T) {
	r := New(admin)
	require.NoError(t, r.Grant(admin, interfaces.RoleNotifyClients, operator))

	require.NoError(t, r.Revoke(admin, interfaces.RoleNotifyClients, operator))
	assert.False(t, r.HasRole(interfaces.RoleNotifyClients, operator))

	// Revoking again is a no-op, not an error.
	require.NoError(t, r.Revoke(admin, interfaces.RoleNotifyClients, operator))

	require.NoError(t, r.Grant(admin, interfaces.RoleNotifyClients, operator))
	assert.True(t, r.HasRole(interfaces.RoleNotifyClients, operator))
}

func TestMembersInsertionOrder(t *testing.T) {
	r := New(admin)
	role := interfaces.RoleSetAMLStatus

	require.NoError(t, r.Grant(admin, role, operator))
	require.NoError(t, r.Grant(admin, role, intruder))
	// Duplicate grant must not duplicate membership.
	require.NoError(t, r.Grant(admin, role, operator))

	assert.Equal(t, []common.Address{operator, intruder}, r.Members(role))

	require.NoError(t, r.Revoke(admin, role, operator))
	assert.Equal(t, []common.Address{intruder}, r.Members(role))

	_, err := r.Member(role, 1)
	assert.ErrorIs(t, err, ErrNoSuchMember)
}

func TestAdminRoleRebinding(t *testing.T) {
	r := New(admin)
	custodian := interfaces.Role("STATUS_CUSTODIAN_ROLE")
	r.SetAdminRole(interfaces.RoleSetAMLStatus, custodian)
	r.Seed(custodian, operator)

	// The root admin no longer administers the rebound role.
	err := r.Grant(admin, interfaces.RoleSetAMLStatus, intruder)
	assert.ErrorIs(t, err, interfaces.ErrUnauthorized)

	require.NoError(t, r.Grant(operator, interfaces.RoleSetAMLStatus, intruder))
	assert.True(t, r.HasRole(interfaces.RoleSetAMLStatus, intruder))
}

func TestCloneIsolation(t *testing.T) {
	r := New(admin)
	require.NoError(t, r.Grant(admin, interfaces.RoleSetAMLStatus, operator))

	c := r.Clone()
	require.NoError(t, c.Revoke(admin, interfaces.RoleSetAMLStatus, operator))
	require.NoError(t, c.Grant(admin, interfaces.RoleNotifyClients, intruder))

	assert.True(t, r.HasRole(interfaces.RoleSetAMLStatus, operator))
	assert.False(t, r.HasRole(interfaces.RoleNotifyClients, intruder))
	assert.False(t, c.HasRole(interfaces.RoleSetAMLStatus, operator))
}

func TestRoleDerivation(t *testing.T) {
	// keccak256("RECOVER_ROLE") — pinned so the identifier lines up with the
	// on-chain access control convention.
	assert.Equal(t,
		"0x62b337eaefec74dadf1a62e856bf9db4f14a0f27d4f48156a95a9f98e7d5e066",
		interfaces.Role("RECOVER_ROLE").String())
	assert.Equal(t, interfaces.RoleID{}, interfaces.RoleAdmin)
}
