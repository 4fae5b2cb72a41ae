package model

import (
	"time"

	"github.com/viant/quorum/model/rule"
)

// TemplateStatus enumerates workflow template lifecycle states.
type TemplateStatus string

const (
	TemplateActive             TemplateStatus = "ACTIVE"
	TemplatePendingDeprecation TemplateStatus = "PENDING_DEPRECATION"
	TemplateDeprecated         TemplateStatus = "DEPRECATED"
)

// Template defines how workflows of one kind are approved. Templates are
// immutable once referenced by a workflow: an update mints a new version with
// a fresh identifier and moves the previous one to PENDING_DEPRECATION.
type Template struct {
	ID      string         `json:"id" yaml:"id"`
	Name    string         `json:"name" yaml:"name"`
	Version int            `json:"version" yaml:"version"`
	Status  TemplateStatus `json:"status" yaml:"status"`
	SpaceID string         `json:"spaceId,omitempty" yaml:"spaceId,omitempty"`
	Rule    *rule.Rule     `json:"rule" yaml:"rule"`

	// DefaultExpiresIn is applied to workflows created without an explicit
	// deadline.
	DefaultExpiresIn time.Duration `json:"defaultExpiresInNs,omitempty" yaml:"defaultExpiresIn,omitempty"`

	// AllowVotingWhenDeprecated keeps in-flight workflows votable after the
	// template was deprecated. Set at deprecation time.
	AllowVotingWhenDeprecated bool `json:"allowVotingWhenDeprecated,omitempty" yaml:"allowVotingWhenDeprecated,omitempty"`

	// RuleDiff holds a unified diff of the previous version's rule against
	// this one, recorded on update for audit.
	RuleDiff string `json:"ruleDiff,omitempty" yaml:"ruleDiff,omitempty"`

	CreatedAt time.Time `json:"createdAt" yaml:"createdAt,omitempty"`
}

// Votable reports whether workflows of this template still accept votes.
func (t *Template) Votable() bool {
	switch t.Status {
	case TemplateActive, TemplatePendingDeprecation:
		return true
	case TemplateDeprecated:
		return t.AllowVotingWhenDeprecated
	}
	return false
}
