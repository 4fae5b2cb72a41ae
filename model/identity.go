package model

// EntityType distinguishes human users from machine agents.
type EntityType string

const (
	EntityUser  EntityType = "user"
	EntityAgent EntityType = "agent"
)

// Identity is the authenticated caller shape supplied by the identity
// provider: a subject with its entity type and resolved role bindings.
type Identity struct {
	SubjectID string     `json:"subjectId"`
	Type      EntityType `json:"type"`
	Roles     []*Role    `json:"roles,omitempty"`
}
