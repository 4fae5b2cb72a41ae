package rule

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// membershipStub answers membership from a static group -> members mapping.
type membershipStub map[string][]string

func (m membershipStub) IsMember(_ context.Context, groupID, subjectID string) bool {
	for _, member := range m[groupID] {
		if member == subjectID {
			return true
		}
	}
	return false
}

func approve(voter string, groups ...string) Ballot {
	return Ballot{VoterID: voter, Groups: groups}
}

func veto(voter string) Ballot {
	return Ballot{VoterID: voter, Veto: true}
}

func TestEvaluate(t *testing.T) {
	membership := membershipStub{
		"security": {"alice", "bob", "carol"},
		"legal":    {"dave", "erin"},
		"finance":  {"erin", "frank"},
	}

	tests := []struct {
		name     string
		rule     *Rule
		ballots  []Ballot
		expected Verdict
		highFor  []string
	}{
		{
			name:     "no votes stays pending",
			rule:     Group("security", 1),
			expected: VerdictPending,
		},
		{
			name:     "single group satisfied",
			rule:     Group("security", 2),
			ballots:  []Ballot{approve("alice", "security"), approve("bob", "security")},
			expected: VerdictApproved,
		},
		{
			name:     "single group one short",
			rule:     Group("security", 2),
			ballots:  []Ballot{approve("alice", "security")},
			expected: VerdictPending,
		},
		{
			name:     "repeat votes from one voter count once",
			rule:     Group("security", 2),
			ballots:  []Ballot{approve("alice", "security"), approve("alice", "security"), approve("alice", "security")},
			expected: VerdictPending,
		},
		{
			name:     "non member votes do not count",
			rule:     Group("security", 1),
			ballots:  []Ballot{approve("dave", "security")},
			expected: VerdictPending,
		},
		{
			name:     "vote not declaring the group does not count",
			rule:     Group("security", 1),
			ballots:  []Ballot{approve("alice", "legal")},
			expected: VerdictPending,
		},
		{
			name:     "and requires every child",
			rule:     And(Group("security", 1), Group("legal", 1)),
			ballots:  []Ballot{approve("alice", "security")},
			expected: VerdictPending,
		},
		{
			name:     "and with every child satisfied",
			rule:     And(Group("security", 1), Group("legal", 1)),
			ballots:  []Ballot{approve("alice", "security"), approve("dave", "legal")},
			expected: VerdictApproved,
		},
		{
			name:     "or requires any child",
			rule:     Or(Group("security", 1), Group("legal", 1)),
			ballots:  []Ballot{approve("dave", "legal")},
			expected: VerdictApproved,
		},
		{
			name:     "or with no child satisfied",
			rule:     Or(Group("security", 2), Group("legal", 2)),
			ballots:  []Ballot{approve("alice", "security"), approve("dave", "legal")},
			expected: VerdictPending,
		},
		{
			name:     "veto rejects regardless of approvals",
			rule:     Group("security", 1),
			ballots:  []Ballot{approve("alice", "security"), approve("bob", "security"), veto("carol")},
			expected: VerdictRejected,
		},
		{
			name:     "veto rejects an otherwise empty ledger",
			rule:     And(Group("security", 1), Group("legal", 1)),
			ballots:  []Ballot{veto("frank")},
			expected: VerdictRejected,
		},
		{
			name:     "one vote can satisfy multiple leaves",
			rule:     And(Group("legal", 1), Group("finance", 1)),
			ballots:  []Ballot{approve("erin", "legal", "finance")},
			expected: VerdictApproved,
		},
		{
			name:     "high privilege groups reported while pending",
			rule:     And(Group("security", 1), HighPrivilegeGroup("finance", 1)),
			expected: VerdictPending,
			highFor:  []string{"finance"},
		},
		{
			name:     "high privilege groups reported when approved",
			rule:     And(Group("security", 1), HighPrivilegeGroup("finance", 1)),
			ballots:  []Ballot{approve("alice", "security"), approve("frank", "finance")},
			expected: VerdictApproved,
			highFor:  []string{"finance"},
		},
	}

	for _, tc := range tests {
		outcome := Evaluate(context.Background(), tc.rule, tc.ballots, membership)
		assert.Equal(t, tc.expected, outcome.Verdict, tc.name)
		if tc.highFor != nil {
			assert.Equal(t, tc.highFor, outcome.RequiresHighPrivilege, tc.name)
		}
	}
}

func TestOutcomeRequiresHighPrivilegeFor(t *testing.T) {
	outcome := Outcome{RequiresHighPrivilege: []string{"finance"}}
	assert.True(t, outcome.RequiresHighPrivilegeFor([]string{"legal", "finance"}))
	assert.False(t, outcome.RequiresHighPrivilegeFor([]string{"legal"}))
	assert.False(t, outcome.RequiresHighPrivilegeFor(nil))
}
