package model

// Permission names a capability a role grants over its resource type.
type Permission string

const (
	PermissionView   Permission = "view"
	PermissionVote   Permission = "vote"
	PermissionManage Permission = "manage"
	PermissionCreate Permission = "create"
	PermissionDelete Permission = "delete"
)

// ScopeType discriminates the closed set of resource boundaries a role can be
// scoped to.
type ScopeType string

const (
	ScopeOrg              ScopeType = "org"
	ScopeSpace            ScopeType = "space"
	ScopeGroup            ScopeType = "group"
	ScopeWorkflowTemplate ScopeType = "workflow_template"
)

// Scope is a closed tagged variant over {org, space, group, workflow template}.
// Ref carries the target identifier and is empty for the org scope.
type Scope struct {
	Type ScopeType `json:"type" yaml:"type"`
	Ref  string    `json:"ref,omitempty" yaml:"ref,omitempty"`
}

// OrgScope returns the organisation-wide scope.
func OrgScope() Scope { return Scope{Type: ScopeOrg} }

// SpaceScope returns a scope bound to a single space.
func SpaceScope(spaceID string) Scope { return Scope{Type: ScopeSpace, Ref: spaceID} }

// GroupScope returns a scope bound to a single group.
func GroupScope(groupID string) Scope { return Scope{Type: ScopeGroup, Ref: groupID} }

// TemplateScope returns a scope bound to a single workflow template.
func TemplateScope(templateID string) Scope {
	return Scope{Type: ScopeWorkflowTemplate, Ref: templateID}
}

// MaxRolesPerEntity caps the number of roles a single user or agent may hold.
const MaxRolesPerEntity = 128

// Role attaches a named set of permissions over a resource type to a scope.
type Role struct {
	Name         string       `json:"name" yaml:"name"`
	ResourceType string       `json:"resourceType" yaml:"resourceType"`
	Scope        Scope        `json:"scope" yaml:"scope"`
	Permissions  []Permission `json:"permissions" yaml:"permissions"`
}

// Grants reports whether the role carries the given permission.
func (r *Role) Grants(permission Permission) bool {
	for _, candidate := range r.Permissions {
		if candidate == permission {
			return true
		}
	}
	return false
}

// RoleBinding is the stored set of roles held by one subject (user or
// agent). Assignment consolidates exact duplicates and enforces
// MaxRolesPerEntity.
type RoleBinding struct {
	SubjectID string  `json:"subjectId"`
	Roles     []*Role `json:"roles,omitempty"`
}

// SameBinding reports whether other names the same role at the same scope.
// Two bindings that only differ in permission sets are still considered the
// same binding - assignment consolidates them.
func (r *Role) SameBinding(other *Role) bool {
	if other == nil {
		return false
	}
	return r.Name == other.Name && r.Scope == other.Scope
}
