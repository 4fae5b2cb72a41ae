// Package ballot implements the synchronous voting path: eligibility checks,
// the single-use step-up gate for high-privilege groups, the append-only
// ledger write and the recalculation enqueue. Status transitions themselves
// happen asynchronously in the recalculation scheduler.
package ballot

import (
	"context"
	"errors"
	"fmt"

	"github.com/viant/quorum/fault"
	"github.com/viant/quorum/internal/clock"
	"github.com/viant/quorum/internal/idgen"
	"github.com/viant/quorum/model"
	"github.com/viant/quorum/model/rule"
	"github.com/viant/quorum/service/auth"
	"github.com/viant/quorum/service/dao"
	"github.com/viant/quorum/service/dao/vote"
	"github.com/viant/quorum/service/group"
	"github.com/viant/quorum/service/messaging"
	"github.com/viant/quorum/service/recalc"
	"github.com/viant/quorum/service/stepup"
	"github.com/viant/quorum/service/workflow"
)

// Operation is the step-up operation name privileged votes are issued for.
const Operation = "vote"

// Service records votes against workflows.
type Service struct {
	workflows  dao.Versioned[string, model.Workflow]
	votes      vote.Service
	templates  dao.Service[string, model.Template]
	membership group.Membership
	gate       *stepup.Service
	queue      messaging.Queue[recalc.Job]
	resolver   *auth.Resolver
	roles      *auth.Roles
}

// Option customises the ballot service.
type Option func(*Service)

// WithPermissions enables the role-based permission check on the vote path.
// Without it the caller is assumed pre-authorized, which suits embedded use
// where an outer layer already resolved permissions.
func WithPermissions(resolver *auth.Resolver, roles *auth.Roles) Option {
	return func(s *Service) {
		s.resolver = resolver
		s.roles = roles
	}
}

// New creates a ballot service.
func New(workflows dao.Versioned[string, model.Workflow],
	votes vote.Service,
	templates dao.Service[string, model.Template],
	membership group.Membership,
	gate *stepup.Service,
	queue messaging.Queue[recalc.Job],
	options ...Option) *Service {
	ret := &Service{
		workflows:  workflows,
		votes:      votes,
		templates:  templates,
		membership: membership,
		gate:       gate,
		queue:      queue,
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Request describes a vote to cast. VotedForGroups applies to APPROVE votes
// only; StepUpJTI presents a single-use step-up context and is required when
// any voted-for group demands high privilege.
type Request struct {
	WorkflowID     string
	VoterID        string
	VoterType      model.EntityType
	VoteType       model.VoteType
	VotedForGroups []string
	Reason         string
	StepUpJTI      string
}

// Eligibility is the CanVote answer.
type Eligibility struct {
	CanVote              bool
	VoteStatus           model.Status
	CantVoteReason       fault.Reason
	RequireHighPrivilege bool
}

// CastVote validates eligibility, consumes a step-up context when the vote
// touches a high-privilege group, appends the vote and enqueues a
// recalculation job. The returned vote means accepted, not yet counted; the
// workflow status advances asynchronously.
//
// No vote row is written when any check fails, including a failed step-up
// consumption.
func (s *Service) CastVote(ctx context.Context, request *Request) (*model.Vote, error) {
	current, err := s.eligible(ctx, request)
	if err != nil {
		return nil, err
	}
	if err = s.consumeStepUp(ctx, current, request); err != nil {
		return nil, err
	}
	cast := &model.Vote{
		ID:             idgen.New(),
		WorkflowID:     request.WorkflowID,
		VoterID:        request.VoterID,
		VoterType:      request.VoterType,
		VoteType:       request.VoteType,
		VotedForGroups: request.VotedForGroups,
		Reason:         request.Reason,
		CreatedAt:      clock.Now(),
	}
	if err = s.votes.Save(ctx, cast); err != nil {
		return nil, fmt.Errorf("failed to append vote for workflow %v: %w", request.WorkflowID, err)
	}
	if err = s.markRecalculation(ctx, request.WorkflowID); err != nil {
		return nil, err
	}
	if err = s.queue.Publish(ctx, &recalc.Job{WorkflowID: request.WorkflowID}); err != nil {
		return nil, fmt.Errorf("failed to enqueue recalculation for workflow %v: %w", request.WorkflowID, err)
	}
	return cast, nil
}

// CanVote answers eligibility for an identity without side effects. The
// returned status reflects the lazily computed expired view.
func (s *Service) CanVote(ctx context.Context, workflowID string, identity *model.Identity) (*Eligibility, error) {
	current, err := s.loadWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	ret := &Eligibility{VoteStatus: current.Status}
	if current.Expired(clock.Now()) && !current.Status.Terminal() {
		ret.VoteStatus = model.StatusExpired
	}
	if ret.VoteStatus.Terminal() {
		ret.CantVoteReason = fault.ReasonOf(workflow.TerminalFault(&model.Workflow{ID: current.ID, Status: ret.VoteStatus}))
		return ret, nil
	}
	if reason := s.authorize(ctx, current, identity.SubjectID, identity.Type); reason != "" {
		ret.CantVoteReason = reason
		return ret, nil
	}
	memberOf := s.membership.MemberOf(ctx, identity.SubjectID, current.Rule.Groups())
	if len(memberOf) == 0 {
		ret.CantVoteReason = fault.EntityNotInRequiredGroup
		return ret, nil
	}
	outcome := rule.Outcome{RequiresHighPrivilege: current.Rule.HighPrivilegeGroups()}
	ret.CanVote = true
	ret.RequireHighPrivilege = outcome.RequiresHighPrivilegeFor(memberOf)
	return ret, nil
}

// ListVotes returns the workflow's ledger in insertion order.
func (s *Service) ListVotes(ctx context.Context, workflowID string) ([]*model.Vote, error) {
	if _, err := s.loadWorkflow(ctx, workflowID); err != nil {
		return nil, err
	}
	return s.votes.ListByWorkflow(ctx, workflowID)
}

func (s *Service) eligible(ctx context.Context, request *Request) (*model.Workflow, error) {
	current, err := s.loadWorkflow(ctx, request.WorkflowID)
	if err != nil {
		return nil, err
	}
	if current.Status.Terminal() {
		return nil, workflow.TerminalFault(current)
	}
	if current.Expired(clock.Now()) {
		return nil, fault.New(fault.WorkflowExpired, "workflow %v expired at %v", current.ID, current.ExpiresAt)
	}
	if !request.VoteType.Valid() {
		return nil, fault.New(fault.VoteTypeInvalid, "vote type %q", request.VoteType)
	}
	if reason := s.authorize(ctx, current, request.VoterID, request.VoterType); reason != "" {
		return nil, fault.New(reason, "voter %v on workflow %v", request.VoterID, current.ID)
	}
	if request.VoteType == model.VoteApprove {
		if err = s.checkGroups(ctx, current, request); err != nil {
			return nil, err
		}
	}
	return current, nil
}

// authorize runs the optional permission check plus the template votability
// check; it returns the empty reason when the vote may proceed.
func (s *Service) authorize(ctx context.Context, current *model.Workflow, subjectID string, entityType model.EntityType) fault.Reason {
	if s.resolver != nil && s.roles != nil {
		identity, err := s.roles.Identity(ctx, subjectID, entityType)
		if err != nil {
			return fault.PermissionDenied
		}
		if !s.resolver.HasPermission(ctx, identity, model.PermissionVote, model.TemplateScope(current.TemplateID)) {
			return fault.PermissionDenied
		}
	}
	if s.templates != nil && current.TemplateID != "" {
		template, err := s.templates.Load(ctx, current.TemplateID)
		if err == nil && !template.Votable() {
			return fault.PermissionDenied
		}
	}
	return ""
}

// checkGroups validates an APPROVE vote's declared groups: each must appear
// in the workflow rule and the voter must be a current member of each.
func (s *Service) checkGroups(ctx context.Context, current *model.Workflow, request *Request) error {
	ruleGroups := map[string]bool{}
	for _, groupID := range current.Rule.Groups() {
		ruleGroups[groupID] = true
	}
	for _, groupID := range request.VotedForGroups {
		if !ruleGroups[groupID] {
			return fault.New(fault.EntityNotInRequiredGroup,
				"group %v is not part of workflow %v rule", groupID, current.ID)
		}
		if !s.membership.IsMember(ctx, groupID, request.VoterID) {
			return fault.New(fault.EntityNotInGroup,
				"voter %v is not a member of group %v", request.VoterID, groupID)
		}
	}
	return nil
}

// consumeStepUp enforces the high-privilege gate for this specific vote: when
// any voted-for group demands a freshly re-authenticated voter, a presented
// step-up context is consumed atomically before the vote is recorded.
func (s *Service) consumeStepUp(ctx context.Context, current *model.Workflow, request *Request) error {
	outcome := rule.Outcome{RequiresHighPrivilege: current.Rule.HighPrivilegeGroups()}
	if !outcome.RequiresHighPrivilegeFor(request.VotedForGroups) {
		return nil
	}
	if request.StepUpJTI == "" {
		return fault.New(fault.StepUpContextMissing,
			"vote on workflow %v touches a high-privilege group", current.ID)
	}
	return s.gate.Consume(ctx, request.VoterID, Operation, request.WorkflowID, request.StepUpJTI)
}

// markRecalculation sets the shared recalculationRequired flag under the
// workflow's version counter, retrying on concurrent updates. A flag already
// set is left alone.
func (s *Service) markRecalculation(ctx context.Context, workflowID string) error {
	for {
		current, err := s.workflows.Load(ctx, workflowID)
		if err != nil {
			return err
		}
		if current.RecalculationRequired {
			return nil
		}
		current.RecalculationRequired = true
		current.UpdatedAt = clock.Now()
		err = s.workflows.SaveWithVersion(ctx, current, current.Version)
		if err == nil {
			return nil
		}
		if !errors.Is(err, dao.ErrVersionConflict) {
			return err
		}
	}
}

func (s *Service) loadWorkflow(ctx context.Context, workflowID string) (*model.Workflow, error) {
	current, err := s.workflows.Load(ctx, workflowID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return nil, fault.New(fault.WorkflowNotFound, "workflow %v", workflowID)
		}
		return nil, err
	}
	return current, nil
}
