// Package progress builds a read-only, per-group progress report for an
// approval workflow: how many distinct eligible approvers each group leaf has
// collected against its threshold. The report is purely informational; the
// scheduler remains the only component that advances workflow status.
package progress

import (
	"context"

	"github.com/viant/quorum/model"
	"github.com/viant/quorum/model/rule"
)

// Group is the progress of a single group leaf.
type Group struct {
	GroupID       string `json:"groupId"`
	Required      int    `json:"required"`
	Approved      int    `json:"approved"`
	HighPrivilege bool   `json:"highPrivilege,omitempty"`
	Satisfied     bool   `json:"satisfied"`
}

// Report aggregates leaf progress for one workflow.
type Report struct {
	WorkflowID string       `json:"workflowId"`
	Status     model.Status `json:"status"`
	Vetoed     bool         `json:"vetoed"`
	Groups     []Group      `json:"groups"`
}

// Of computes the report from a workflow, its ledger and the membership
// store. Repeat votes from one voter count once; approvals from voters no
// longer in the group do not count.
func Of(ctx context.Context, w *model.Workflow, ledger []*model.Vote, membership rule.Membership) *Report {
	ret := &Report{WorkflowID: w.ID, Status: w.Status}
	for _, entry := range ledger {
		if entry.VoteType == model.VoteVeto {
			ret.Vetoed = true
			break
		}
	}
	if w.Rule == nil {
		return ret
	}
	collect(ctx, w.Rule, ledger, membership, &ret.Groups)
	return ret
}

func collect(ctx context.Context, node *rule.Rule, ledger []*model.Vote, membership rule.Membership, out *[]Group) {
	if node.Kind == rule.KindGroup {
		approved := approverCount(ctx, node.GroupID, ledger, membership)
		*out = append(*out, Group{
			GroupID:       node.GroupID,
			Required:      node.MinCount,
			Approved:      approved,
			HighPrivilege: node.RequireHighPrivilege,
			Satisfied:     approved >= node.MinCount,
		})
		return
	}
	for _, child := range node.Rules {
		collect(ctx, child, ledger, membership, out)
	}
}

func approverCount(ctx context.Context, groupID string, ledger []*model.Vote, membership rule.Membership) int {
	counted := map[string]bool{}
	for _, entry := range ledger {
		if entry.VoteType != model.VoteApprove || counted[entry.VoterID] {
			continue
		}
		if !entry.VotedFor(groupID) {
			continue
		}
		if membership != nil && !membership.IsMember(ctx, groupID, entry.VoterID) {
			continue
		}
		counted[entry.VoterID] = true
	}
	return len(counted)
}
