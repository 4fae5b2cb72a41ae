package quorum

import (
	"context"
	"time"

	"github.com/viant/quorum/model"
	"github.com/viant/quorum/progress"
	"github.com/viant/quorum/service/auth"
	"github.com/viant/quorum/service/ballot"
	"github.com/viant/quorum/service/group"
	"github.com/viant/quorum/service/recalc"
	"github.com/viant/quorum/service/stepup"
	"github.com/viant/quorum/service/template"
	"github.com/viant/quorum/service/workflow"
	"github.com/viant/quorum/tracing"
)

// Runtime is the operational surface of an assembled engine: template and
// workflow management, role assignment, voting and the background scheduler.
type Runtime struct {
	templates  *template.Service
	loader     *template.Loader
	workflows  *workflow.Service
	roles      *auth.Roles
	resolver   *auth.Resolver
	gate       *stepup.Service
	ballots    *ballot.Service
	scheduler  *recalc.Service
	membership group.Membership
}

// Start launches the recalculation workers and the expiry sweep.
func (r *Runtime) Start(ctx context.Context) error {
	return r.scheduler.Start(ctx)
}

// Shutdown stops the scheduler and waits for in-flight jobs.
func (r *Runtime) Shutdown() {
	r.scheduler.Shutdown()
}

// CreateTemplate validates and stores a new template at version 1.
func (r *Runtime) CreateTemplate(ctx context.Context, request *template.Request) (*model.Template, error) {
	return r.templates.Create(ctx, request)
}

// UpdateTemplate mints a new template version and retires the previous one.
func (r *Runtime) UpdateTemplate(ctx context.Context, templateID string, request *template.Request) (*model.Template, error) {
	return r.templates.Update(ctx, templateID, request)
}

// DeprecateTemplate retires a template, optionally keeping in-flight
// workflows votable.
func (r *Runtime) DeprecateTemplate(ctx context.Context, templateID string, allowVoting bool) (*model.Template, error) {
	return r.templates.Deprecate(ctx, templateID, allowVoting)
}

// LoadTemplate reads a declarative template document from URL and stores it.
func (r *Runtime) LoadTemplate(ctx context.Context, URL string) (*model.Template, error) {
	request, err := r.loader.Load(ctx, URL)
	if err != nil {
		return nil, err
	}
	return r.templates.Create(ctx, request)
}

// CreateWorkflow starts an approval run from a template, snapshotting its
// rule. A non-positive expiresIn falls back to the template default.
func (r *Runtime) CreateWorkflow(ctx context.Context, templateID, name string, expiresIn time.Duration) (ret *model.Workflow, err error) {
	ctx, span := tracing.StartSpan(ctx, "quorum.CreateWorkflow", "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()
	ret, err = r.workflows.Create(ctx, &workflow.Request{Name: name, TemplateID: templateID, ExpiresIn: expiresIn})
	return ret, err
}

// GetWorkflow returns a workflow with its lazily computed expired view.
func (r *Runtime) GetWorkflow(ctx context.Context, workflowID string) (*model.Workflow, error) {
	return r.workflows.Get(ctx, workflowID)
}

// CancelWorkflow moves a non-terminal workflow to CANCELLED.
func (r *Runtime) CancelWorkflow(ctx context.Context, workflowID string) (*model.Workflow, error) {
	return r.workflows.Cancel(ctx, workflowID)
}

// AssignRoles adds roles to a subject, rejecting the call when the resulting
// binding would exceed the per-entity cap.
func (r *Runtime) AssignRoles(ctx context.Context, subjectID string, roles ...*model.Role) error {
	return r.roles.Assign(ctx, subjectID, roles...)
}

// RemoveRoles removes roles from a subject; unknown roles are ignored.
func (r *Runtime) RemoveRoles(ctx context.Context, subjectID string, roles ...*model.Role) error {
	return r.roles.Remove(ctx, subjectID, roles...)
}

// HasPermission reports whether the identity may act on the target scope.
func (r *Runtime) HasPermission(ctx context.Context, identity *model.Identity, permission model.Permission, target model.Scope) bool {
	return r.resolver.HasPermission(ctx, identity, permission, target)
}

// Identity resolves a subject's stored role binding into an identity.
func (r *Runtime) Identity(ctx context.Context, subjectID string, entityType model.EntityType) (*model.Identity, error) {
	return r.roles.Identity(ctx, subjectID, entityType)
}

// IssueStepUp mints (or returns the active) single-use step-up context for
// the subject/operation/resource triple.
func (r *Runtime) IssueStepUp(ctx context.Context, subjectID, operation, resource string) (*model.StepUpContext, error) {
	return r.gate.Issue(ctx, subjectID, operation, resource)
}

// IssueStepUpToken issues a step-up context wrapped in a signed JWT.
func (r *Runtime) IssueStepUpToken(ctx context.Context, subjectID, operation, resource string) (string, error) {
	return r.gate.IssueToken(ctx, subjectID, operation, resource)
}

// VerifyStepUpToken extracts the step-up claim from a presented token.
func (r *Runtime) VerifyStepUpToken(ctx context.Context, token string) (*model.StepUpContext, error) {
	return r.gate.Verify(ctx, token)
}

// CastVote records a vote and schedules recalculation. The returned vote
// means accepted; the status transition is asynchronous.
func (r *Runtime) CastVote(ctx context.Context, request *ballot.Request) (ret *model.Vote, err error) {
	ctx, span := tracing.StartSpan(ctx, "quorum.CastVote", "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()
	span.WithAttributes(map[string]string{"workflow.id": request.WorkflowID, "voter.id": request.VoterID})
	ret, err = r.ballots.CastVote(ctx, request)
	return ret, err
}

// CanVote answers voting eligibility for an identity without side effects.
func (r *Runtime) CanVote(ctx context.Context, workflowID string, identity *model.Identity) (*ballot.Eligibility, error) {
	return r.ballots.CanVote(ctx, workflowID, identity)
}

// ListVotes returns a workflow's ledger in insertion order.
func (r *Runtime) ListVotes(ctx context.Context, workflowID string) ([]*model.Vote, error) {
	return r.ballots.ListVotes(ctx, workflowID)
}

// Recalculate synchronously recomputes one workflow. Exposed for embedders
// that cannot run the background workers.
func (r *Runtime) Recalculate(ctx context.Context, workflowID string) error {
	return r.scheduler.Process(ctx, workflowID)
}

// Progress reports per-group approval progress for a workflow.
func (r *Runtime) Progress(ctx context.Context, workflowID string) (*progress.Report, error) {
	current, err := r.workflows.Get(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	ledger, err := r.ballots.ListVotes(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	return progress.Of(ctx, current, ledger, r.membership), nil
}
