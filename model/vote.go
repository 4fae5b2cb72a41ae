package model

import "time"

// VoteType enumerates the accepted vote kinds.
type VoteType string

const (
	VoteApprove VoteType = "APPROVE"
	VoteVeto    VoteType = "VETO"
)

// Valid reports whether the vote type is a known enum value.
func (t VoteType) Valid() bool {
	return t == VoteApprove || t == VoteVeto
}

// Vote is a single, immutable ledger entry. The ledger is append-only; a
// voter may appear multiple times and the evaluator counts distinct voters.
type Vote struct {
	ID             string     `json:"id"`
	WorkflowID     string     `json:"workflowId"`
	VoterID        string     `json:"voterId"`
	VoterType      EntityType `json:"voterType"`
	VoteType       VoteType   `json:"voteType"`
	VotedForGroups []string   `json:"votedForGroups,omitempty"`
	Reason         string     `json:"reason,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// VotedFor reports whether the vote declares the given group.
func (v *Vote) VotedFor(groupID string) bool {
	if v.VoteType != VoteApprove {
		return false
	}
	for _, candidate := range v.VotedForGroups {
		if candidate == groupID {
			return true
		}
	}
	return false
}
