package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/viant/quorum/fault"
	"github.com/viant/quorum/model"
	"github.com/viant/quorum/service/dao"
)

// Roles manages role bindings: PUT-style assignment with duplicate
// consolidation and the per-entity cap, and idempotent removal.
type Roles struct {
	bindings dao.Service[string, model.RoleBinding]
}

// NewRoles creates a role manager over the supplied binding store.
func NewRoles(bindings dao.Service[string, model.RoleBinding]) *Roles {
	return &Roles{bindings: bindings}
}

// Assign adds roles to a subject. Exact duplicates (same name and scope)
// consolidate into the already stored role, so re-assigning is a no-op even
// at the cap. The whole call is rejected when the resulting binding would
// exceed model.MaxRolesPerEntity; nothing is persisted in that case.
func (r *Roles) Assign(ctx context.Context, subjectID string, roles ...*model.Role) error {
	if subjectID == "" {
		return dao.ErrInvalidID
	}
	binding, err := r.load(ctx, subjectID)
	if err != nil {
		return err
	}
	merged := append([]*model.Role{}, binding.Roles...)
	for _, candidate := range roles {
		if candidate == nil {
			continue
		}
		if existing := findBinding(merged, candidate); existing != nil {
			continue
		}
		merged = append(merged, candidate)
	}
	if len(merged) > model.MaxRolesPerEntity {
		return fault.New(fault.MaxRolesExceeded,
			"subject %v would hold %v roles, limit is %v", subjectID, len(merged), model.MaxRolesPerEntity)
	}
	binding.Roles = merged
	if err = r.bindings.Save(ctx, binding); err != nil {
		return fmt.Errorf("failed to save role binding for %v: %w", subjectID, err)
	}
	return nil
}

// Remove deletes roles from a subject. Removing a role the subject does not
// hold is a no-op, making the operation idempotent.
func (r *Roles) Remove(ctx context.Context, subjectID string, roles ...*model.Role) error {
	if subjectID == "" {
		return dao.ErrInvalidID
	}
	binding, err := r.load(ctx, subjectID)
	if err != nil {
		return err
	}
	var kept []*model.Role
	for _, existing := range binding.Roles {
		if findBinding(roles, existing) != nil {
			continue
		}
		kept = append(kept, existing)
	}
	binding.Roles = kept
	if err = r.bindings.Save(ctx, binding); err != nil {
		return fmt.Errorf("failed to save role binding for %v: %w", subjectID, err)
	}
	return nil
}

// Identity resolves the stored binding into an identity of the given type.
func (r *Roles) Identity(ctx context.Context, subjectID string, entityType model.EntityType) (*model.Identity, error) {
	binding, err := r.load(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	return &model.Identity{SubjectID: subjectID, Type: entityType, Roles: binding.Roles}, nil
}

func (r *Roles) load(ctx context.Context, subjectID string) (*model.RoleBinding, error) {
	binding, err := r.bindings.Load(ctx, subjectID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return &model.RoleBinding{SubjectID: subjectID}, nil
		}
		return nil, err
	}
	return binding, nil
}

func findBinding(roles []*model.Role, candidate *model.Role) *model.Role {
	for _, role := range roles {
		if role.SameBinding(candidate) {
			return role
		}
	}
	return nil
}
