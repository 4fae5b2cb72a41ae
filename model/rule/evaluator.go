package rule

import "context"

// Verdict is the evaluator output for a rule tree and a vote ledger.
type Verdict string

const (
	VerdictPending  Verdict = "pending"
	VerdictApproved Verdict = "approved"
	VerdictRejected Verdict = "rejected"
)

// Ballot is the evaluator's view of a single ledger entry.
type Ballot struct {
	VoterID string
	Veto    bool
	Groups  []string
}

// Membership answers group membership questions. Absence of membership is
// simply false; the store never fails the evaluation.
type Membership interface {
	IsMember(ctx context.Context, groupID, subjectID string) bool
}

// Outcome carries the verdict plus the set of groups whose leaves demand a
// freshly re-authenticated voter. The set is reported regardless of leaf
// satisfaction - eligibility checks intersect it with a voter's declared
// groups before a vote is accepted.
type Outcome struct {
	Verdict               Verdict
	RequiresHighPrivilege []string
}

// RequiresHighPrivilegeFor reports whether any of the given groups demand
// high privilege.
func (o *Outcome) RequiresHighPrivilegeFor(groups []string) bool {
	for _, required := range o.RequiresHighPrivilege {
		for _, candidate := range groups {
			if candidate == required {
				return true
			}
		}
	}
	return false
}

// Evaluate runs the pure, recursive verdict computation:
//
//  1. any veto ballot rejects the whole tree, regardless of structure;
//  2. a group leaf is satisfied when at least MinCount distinct voters cast
//     an approving ballot declaring that group while being current members;
//  3. and-composites need all children satisfied, or-composites any;
//  4. a satisfied root approves, otherwise the verdict stays pending.
//
// Repeat ballots from one voter count once. The function never mutates state.
func Evaluate(ctx context.Context, root *Rule, ballots []Ballot, membership Membership) Outcome {
	outcome := Outcome{Verdict: VerdictPending}
	if root != nil {
		outcome.RequiresHighPrivilege = root.HighPrivilegeGroups()
	}
	for i := range ballots {
		if ballots[i].Veto {
			outcome.Verdict = VerdictRejected
			return outcome
		}
	}
	if root == nil {
		return outcome
	}
	if satisfied(ctx, root, ballots, membership) {
		outcome.Verdict = VerdictApproved
	}
	return outcome
}

func satisfied(ctx context.Context, node *Rule, ballots []Ballot, membership Membership) bool {
	switch node.Kind {
	case KindGroup:
		return approverCount(ctx, node.GroupID, ballots, membership) >= node.MinCount
	case KindAnd:
		for _, child := range node.Rules {
			if !satisfied(ctx, child, ballots, membership) {
				return false
			}
		}
		return true
	case KindOr:
		for _, child := range node.Rules {
			if satisfied(ctx, child, ballots, membership) {
				return true
			}
		}
		return false
	}
	return false
}

// approverCount counts distinct voters that declared groupID on an approving
// ballot and are current members of that group.
func approverCount(ctx context.Context, groupID string, ballots []Ballot, membership Membership) int {
	counted := map[string]bool{}
	for i := range ballots {
		ballot := &ballots[i]
		if ballot.Veto || counted[ballot.VoterID] {
			continue
		}
		if !declares(ballot, groupID) {
			continue
		}
		if membership != nil && !membership.IsMember(ctx, groupID, ballot.VoterID) {
			continue
		}
		counted[ballot.VoterID] = true
	}
	return len(counted)
}

func declares(ballot *Ballot, groupID string) bool {
	for _, candidate := range ballot.Groups {
		if candidate == groupID {
			return true
		}
	}
	return false
}
