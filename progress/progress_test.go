package progress

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/quorum/model"
	"github.com/viant/quorum/model/rule/dsl"
	"github.com/viant/quorum/service/group"
)

func TestOf(t *testing.T) {
	parsed, err := dsl.Parse([]byte("all(group(security,2), group(finance,1,high))"))
	assert.NoError(t, err)

	members := group.New()
	members.Add("security", "alice", "bob")
	members.Add("finance", "dana")

	w := &model.Workflow{ID: "wf-1", Status: model.StatusEvaluationInProgress, Rule: parsed}
	ledger := []*model.Vote{
		{ID: "v1", VoterID: "alice", VoteType: model.VoteApprove, VotedForGroups: []string{"security"}},
		// repeat vote counts once
		{ID: "v2", VoterID: "alice", VoteType: model.VoteApprove, VotedForGroups: []string{"security"}},
		// carol is not a security member
		{ID: "v3", VoterID: "carol", VoteType: model.VoteApprove, VotedForGroups: []string{"security"}},
		{ID: "v4", VoterID: "dana", VoteType: model.VoteApprove, VotedForGroups: []string{"finance"}},
	}

	report := Of(context.Background(), w, ledger, members)
	assert.False(t, report.Vetoed)
	assert.Equal(t, []Group{
		{GroupID: "security", Required: 2, Approved: 1},
		{GroupID: "finance", Required: 1, Approved: 1, HighPrivilege: true, Satisfied: true},
	}, report.Groups)
}

func TestOfVetoed(t *testing.T) {
	parsed, err := dsl.Parse([]byte("group(security,1)"))
	assert.NoError(t, err)

	w := &model.Workflow{ID: "wf-2", Status: model.StatusEvaluationInProgress, Rule: parsed}
	ledger := []*model.Vote{
		{ID: "v1", VoterID: "carol", VoteType: model.VoteVeto},
	}
	report := Of(context.Background(), w, ledger, group.New())
	assert.True(t, report.Vetoed)
}
