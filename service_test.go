package quorum

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/quorum/fault"
	"github.com/viant/quorum/model"
	"github.com/viant/quorum/service/ballot"
	"github.com/viant/quorum/service/group"
	"github.com/viant/quorum/service/template"
)

func newEngine(t *testing.T, options ...Option) (*Runtime, *group.Service) {
	t.Helper()
	members := group.New()
	service, err := New(append([]Option{WithMembership(members)}, options...)...)
	assert.NoError(t, err)
	return service.Runtime(), members
}

func TestEndToEndApproval(t *testing.T) {
	runtime, members := newEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	members.Add("security", "alice", "bob")

	created, err := runtime.CreateTemplate(ctx, &template.Request{
		Name:    "deploy-approval",
		RuleDSL: "group(security,2)",
	})
	assert.NoError(t, err)

	run, err := runtime.CreateWorkflow(ctx, created.ID, "release 1.2", 0)
	assert.NoError(t, err)
	assert.Equal(t, model.StatusPending, run.Status)

	assert.NoError(t, runtime.Start(ctx))
	defer runtime.Shutdown()

	for _, voter := range []string{"alice", "bob"} {
		_, err = runtime.CastVote(ctx, &ballot.Request{
			WorkflowID:     run.ID,
			VoterID:        voter,
			VoterType:      model.EntityUser,
			VoteType:       model.VoteApprove,
			VotedForGroups: []string{"security"},
		})
		assert.NoError(t, err)
	}

	deadline := time.Now().Add(2 * time.Second)
	var final *model.Workflow
	for time.Now().Before(deadline) {
		final, err = runtime.GetWorkflow(ctx, run.ID)
		assert.NoError(t, err)
		if final.Status == model.StatusApproved {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, model.StatusApproved, final.Status)

	ledger, err := runtime.ListVotes(ctx, run.ID)
	assert.NoError(t, err)
	assert.Len(t, ledger, 2)
}

func TestHighPrivilegeVote(t *testing.T) {
	runtime, members := newEngine(t)
	ctx := context.Background()
	members.Add("security", "alice")
	members.Add("finance", "dana")

	created, err := runtime.CreateTemplate(ctx, &template.Request{
		Name:    "payout-approval",
		RuleDSL: "all(group(security,1), group(finance,1,high))",
	})
	assert.NoError(t, err)
	run, err := runtime.CreateWorkflow(ctx, created.ID, "payout 991", 0)
	assert.NoError(t, err)

	_, err = runtime.CastVote(ctx, &ballot.Request{
		WorkflowID: run.ID, VoterID: "alice", VoterType: model.EntityUser,
		VoteType: model.VoteApprove, VotedForGroups: []string{"security"},
	})
	assert.NoError(t, err)

	// dana's group demands high privilege; without a step-up context the
	// vote is rejected and not recorded
	_, err = runtime.CastVote(ctx, &ballot.Request{
		WorkflowID: run.ID, VoterID: "dana", VoterType: model.EntityUser,
		VoteType: model.VoteApprove, VotedForGroups: []string{"finance"},
	})
	assert.Equal(t, fault.StepUpContextMissing, fault.ReasonOf(err))
	ledger, err := runtime.ListVotes(ctx, run.ID)
	assert.NoError(t, err)
	assert.Len(t, ledger, 1)

	issued, err := runtime.IssueStepUp(ctx, "dana", ballot.Operation, run.ID)
	assert.NoError(t, err)
	_, err = runtime.CastVote(ctx, &ballot.Request{
		WorkflowID: run.ID, VoterID: "dana", VoterType: model.EntityUser,
		VoteType: model.VoteApprove, VotedForGroups: []string{"finance"},
		StepUpJTI: issued.JTI,
	})
	assert.NoError(t, err)

	assert.NoError(t, runtime.Recalculate(ctx, run.ID))
	final, err := runtime.GetWorkflow(ctx, run.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.StatusApproved, final.Status)

	report, err := runtime.Progress(ctx, run.ID)
	assert.NoError(t, err)
	assert.Len(t, report.Groups, 2)
	for _, leaf := range report.Groups {
		assert.True(t, leaf.Satisfied, leaf.GroupID)
	}
}

func TestVetoRejects(t *testing.T) {
	runtime, members := newEngine(t)
	ctx := context.Background()
	members.Add("security", "alice")

	created, err := runtime.CreateTemplate(ctx, &template.Request{Name: "deploy-approval", RuleDSL: "group(security,1)"})
	assert.NoError(t, err)
	run, err := runtime.CreateWorkflow(ctx, created.ID, "release 1.3", 0)
	assert.NoError(t, err)

	_, err = runtime.CastVote(ctx, &ballot.Request{
		WorkflowID: run.ID, VoterID: "alice", VoterType: model.EntityUser,
		VoteType: model.VoteApprove, VotedForGroups: []string{"security"},
	})
	assert.NoError(t, err)
	_, err = runtime.CastVote(ctx, &ballot.Request{
		WorkflowID: run.ID, VoterID: "carol", VoterType: model.EntityUser,
		VoteType: model.VoteVeto, Reason: "failed audit",
	})
	assert.NoError(t, err)

	assert.NoError(t, runtime.Recalculate(ctx, run.ID))
	final, err := runtime.GetWorkflow(ctx, run.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.StatusRejected, final.Status)

	// terminal workflows accept no further votes
	_, err = runtime.CastVote(ctx, &ballot.Request{
		WorkflowID: run.ID, VoterID: "alice", VoterType: model.EntityUser,
		VoteType: model.VoteApprove, VotedForGroups: []string{"security"},
	})
	assert.Equal(t, fault.WorkflowAlreadyRejected, fault.ReasonOf(err))
}

func TestPermissionResolution(t *testing.T) {
	runtime, _ := newEngine(t)
	ctx := context.Background()

	// an org-scoped manager may delete any space, including ones created
	// after the role was assigned
	assert.NoError(t, runtime.AssignRoles(ctx, "root", &model.Role{
		Name:         "SpaceManager",
		ResourceType: "space",
		Scope:        model.OrgScope(),
		Permissions:  []model.Permission{model.PermissionManage},
	}))
	identity, err := runtime.Identity(ctx, "root", model.EntityUser)
	assert.NoError(t, err)
	assert.True(t, runtime.HasPermission(ctx, identity, model.PermissionDelete, model.SpaceScope("newly-created")))

	// a space-scoped viewer sees only that space
	assert.NoError(t, runtime.AssignRoles(ctx, "viewer", &model.Role{
		Name:         "Viewer",
		ResourceType: "space",
		Scope:        model.SpaceScope("platform"),
		Permissions:  []model.Permission{model.PermissionView},
	}))
	identity, err = runtime.Identity(ctx, "viewer", model.EntityUser)
	assert.NoError(t, err)
	assert.True(t, runtime.HasPermission(ctx, identity, model.PermissionView, model.SpaceScope("platform")))
	assert.False(t, runtime.HasPermission(ctx, identity, model.PermissionView, model.SpaceScope("sandbox")))

	// removal is idempotent
	assert.NoError(t, runtime.RemoveRoles(ctx, "viewer", &model.Role{Name: "Viewer", Scope: model.SpaceScope("platform")}))
	assert.NoError(t, runtime.RemoveRoles(ctx, "viewer", &model.Role{Name: "Viewer", Scope: model.SpaceScope("platform")}))
}

func TestEnforcedPermissions(t *testing.T) {
	runtime, members := newEngine(t, WithPermissionChecks())
	ctx := context.Background()
	members.Add("security", "alice", "mallory")

	created, err := runtime.CreateTemplate(ctx, &template.Request{Name: "deploy-approval", SpaceID: "platform", RuleDSL: "group(security,1)"})
	assert.NoError(t, err)
	run, err := runtime.CreateWorkflow(ctx, created.ID, "release 1.4", 0)
	assert.NoError(t, err)

	// a space-scoped manage role covers templates parented by the space
	assert.NoError(t, runtime.AssignRoles(ctx, "alice", &model.Role{
		Name:         "SpaceManager",
		ResourceType: "space",
		Scope:        model.SpaceScope("platform"),
		Permissions:  []model.Permission{model.PermissionManage},
	}))

	_, err = runtime.CastVote(ctx, &ballot.Request{
		WorkflowID: run.ID, VoterID: "alice", VoterType: model.EntityUser,
		VoteType: model.VoteApprove, VotedForGroups: []string{"security"},
	})
	assert.NoError(t, err)

	_, err = runtime.CastVote(ctx, &ballot.Request{
		WorkflowID: run.ID, VoterID: "mallory", VoterType: model.EntityUser,
		VoteType: model.VoteApprove, VotedForGroups: []string{"security"},
	})
	assert.Equal(t, fault.PermissionDenied, fault.ReasonOf(err))
}

func TestCanVoteSurface(t *testing.T) {
	runtime, members := newEngine(t)
	ctx := context.Background()
	members.Add("finance", "dana")

	created, err := runtime.CreateTemplate(ctx, &template.Request{Name: "payout-approval", RuleDSL: "group(finance,1,high)"})
	assert.NoError(t, err)
	run, err := runtime.CreateWorkflow(ctx, created.ID, "payout 992", 0)
	assert.NoError(t, err)

	eligibility, err := runtime.CanVote(ctx, run.ID, &model.Identity{SubjectID: "dana", Type: model.EntityUser})
	assert.NoError(t, err)
	assert.True(t, eligibility.CanVote)
	assert.True(t, eligibility.RequireHighPrivilege)

	eligibility, err = runtime.CanVote(ctx, run.ID, &model.Identity{SubjectID: "mallory", Type: model.EntityUser})
	assert.NoError(t, err)
	assert.False(t, eligibility.CanVote)
	assert.Equal(t, fault.EntityNotInRequiredGroup, eligibility.CantVoteReason)
}
