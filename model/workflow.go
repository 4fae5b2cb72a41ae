package model

import (
	"time"

	"github.com/viant/quorum/model/rule"
)

// Status enumerates workflow lifecycle states.
type Status string

const (
	StatusPending              Status = "PENDING"
	StatusEvaluationInProgress Status = "EVALUATION_IN_PROGRESS"
	StatusApproved             Status = "APPROVED"
	StatusRejected             Status = "REJECTED"
	StatusExpired              Status = "EXPIRED"
	StatusCancelled            Status = "CANCELLED"
)

// Terminal reports whether the status admits no further votes or transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// Workflow is a single approval run. The rule is snapshotted from the
// template at creation time so later template versions never affect runs
// already in flight.
//
// Version implements optimistic concurrency: every status or flag update
// goes through the DAO's compare-and-swap and bumps the counter.
type Workflow struct {
	ID                    string     `json:"id"`
	Name                  string     `json:"name"`
	Status                Status     `json:"status"`
	TemplateID            string     `json:"templateId"`
	Rule                  *rule.Rule `json:"rule"`
	ExpiresAt             time.Time  `json:"expiresAt"`
	RecalculationRequired bool       `json:"recalculationRequired"`
	Version               int        `json:"version"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

// Expired reports whether the workflow deadline has passed at the given
// instant. Expiry is checked lazily; the stored status may still trail.
func (w *Workflow) Expired(now time.Time) bool {
	return !w.ExpiresAt.IsZero() && now.After(w.ExpiresAt)
}

// Clone returns a deep-enough copy for compare-and-swap loops: scalar fields
// are copied and the rule snapshot is shared (rules are immutable once
// created).
func (w *Workflow) Clone() *Workflow {
	if w == nil {
		return nil
	}
	clone := *w
	return &clone
}
