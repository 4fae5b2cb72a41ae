// Package auth implements role-based permission resolution and role
// assignment. Resolution is a pure function over the identity's role
// bindings: absence of permission is simply false, never an error.
package auth

import (
	"context"

	"github.com/viant/quorum/model"
)

// TemplateParents resolves the parent space of a workflow template. It backs
// the one hierarchical rule in scope matching: a space-scoped manage role
// covers the templates that declare that space as parent.
type TemplateParents interface {
	ParentSpace(ctx context.Context, templateID string) (string, bool)
}

// Resolver decides whether an identity may act on a target scope.
type Resolver struct {
	parents TemplateParents
}

// NewResolver creates a permission resolver.
func NewResolver(parents TemplateParents) *Resolver {
	return &Resolver{parents: parents}
}

// HasPermission reports whether any of the identity's roles grants the
// permission over the target scope. A role matches when it carries the
// permission (manage implies every other permission) and its scope covers
// the target:
//
//   - an org-scoped role covers every instance of its resource type,
//     including ones created after the role was assigned;
//   - an exact scope match covers the target;
//   - a space-scoped manage role covers workflow templates parented by that
//     space.
func (r *Resolver) HasPermission(ctx context.Context, identity *model.Identity, permission model.Permission, target model.Scope) bool {
	if identity == nil {
		return false
	}
	for _, role := range identity.Roles {
		if role == nil {
			continue
		}
		if !role.Grants(permission) && !role.Grants(model.PermissionManage) {
			continue
		}
		if r.covers(ctx, role, target) {
			return true
		}
	}
	return false
}

func (r *Resolver) covers(ctx context.Context, role *model.Role, target model.Scope) bool {
	if role.Scope.Type == model.ScopeOrg {
		return true
	}
	if role.Scope == target {
		return true
	}
	if role.Scope.Type == model.ScopeSpace && target.Type == model.ScopeWorkflowTemplate &&
		role.Grants(model.PermissionManage) && r.parents != nil {
		if parent, ok := r.parents.ParentSpace(ctx, target.Ref); ok {
			return parent == role.Scope.Ref
		}
	}
	return false
}
