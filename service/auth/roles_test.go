package auth

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/quorum/fault"
	"github.com/viant/quorum/model"
	rmemory "github.com/viant/quorum/service/dao/role/memory"
)

func voterRole(groupID string) *model.Role {
	return &model.Role{
		Name:         "Voter",
		ResourceType: "workflow",
		Scope:        model.GroupScope(groupID),
		Permissions:  []model.Permission{model.PermissionVote},
	}
}

func TestRolesAssignConsolidatesDuplicates(t *testing.T) {
	roles := NewRoles(rmemory.New())
	ctx := context.Background()

	assert.NoError(t, roles.Assign(ctx, "alice", voterRole("security")))
	assert.NoError(t, roles.Assign(ctx, "alice", voterRole("security")))

	identity, err := roles.Identity(ctx, "alice", model.EntityUser)
	assert.NoError(t, err)
	assert.Len(t, identity.Roles, 1)
}

func TestRolesAssignCap(t *testing.T) {
	roles := NewRoles(rmemory.New())
	ctx := context.Background()

	var all []*model.Role
	for i := 0; i < model.MaxRolesPerEntity; i++ {
		all = append(all, voterRole(fmt.Sprintf("group-%d", i)))
	}
	assert.NoError(t, roles.Assign(ctx, "alice", all...))

	// a brand new 129th role is rejected
	err := roles.Assign(ctx, "alice", voterRole("one-too-many"))
	assert.Equal(t, fault.MaxRolesExceeded, fault.ReasonOf(err))

	// a duplicate of an existing one at the cap is a no-op
	assert.NoError(t, roles.Assign(ctx, "alice", voterRole("group-0")))

	identity, err := roles.Identity(ctx, "alice", model.EntityUser)
	assert.NoError(t, err)
	assert.Len(t, identity.Roles, model.MaxRolesPerEntity)

	// assigning 129 distinct roles at once is rejected outright
	var tooMany []*model.Role
	for i := 0; i <= model.MaxRolesPerEntity; i++ {
		tooMany = append(tooMany, voterRole(fmt.Sprintf("bulk-%d", i)))
	}
	err = roles.Assign(ctx, "bob", tooMany...)
	assert.Equal(t, fault.MaxRolesExceeded, fault.ReasonOf(err))

	// nothing was persisted for the rejected subject
	identity, err = roles.Identity(ctx, "bob", model.EntityUser)
	assert.NoError(t, err)
	assert.Len(t, identity.Roles, 0)
}

func TestRolesRemoveIdempotent(t *testing.T) {
	roles := NewRoles(rmemory.New())
	ctx := context.Background()

	assert.NoError(t, roles.Assign(ctx, "alice", voterRole("security"), voterRole("legal")))
	assert.NoError(t, roles.Remove(ctx, "alice", voterRole("legal")))
	assert.NoError(t, roles.Remove(ctx, "alice", voterRole("legal")))

	identity, err := roles.Identity(ctx, "alice", model.EntityUser)
	assert.NoError(t, err)
	assert.Len(t, identity.Roles, 1)
	assert.Equal(t, model.GroupScope("security"), identity.Roles[0].Scope)
}
