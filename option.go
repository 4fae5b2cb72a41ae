package quorum

import (
	"github.com/viant/quorum/model"
	"github.com/viant/quorum/service/dao"
	dstepup "github.com/viant/quorum/service/dao/stepup"
	"github.com/viant/quorum/service/dao/vote"
	"github.com/viant/quorum/service/event"
	"github.com/viant/quorum/service/group"
	"github.com/viant/quorum/service/messaging"
	"github.com/viant/quorum/service/recalc"
	"github.com/viant/quorum/service/stepup"
	"github.com/viant/quorum/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customises the engine assembly.
type Option func(s *Service)

// WithConfig sets the engine configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) { s.config = config }
}

// WithWorkflowDAO sets the workflow store.
func WithWorkflowDAO(store dao.Versioned[string, model.Workflow]) Option {
	return func(s *Service) { s.workflowDAO = store }
}

// WithVoteDAO sets the vote ledger store.
func WithVoteDAO(store vote.Service) Option {
	return func(s *Service) { s.voteDAO = store }
}

// WithTemplateDAO sets the template store.
func WithTemplateDAO(store dao.Service[string, model.Template]) Option {
	return func(s *Service) { s.templateDAO = store }
}

// WithRoleDAO sets the role binding store.
func WithRoleDAO(store dao.Service[string, model.RoleBinding]) Option {
	return func(s *Service) { s.roleDAO = store }
}

// WithStepUpDAO sets the step-up context store.
func WithStepUpDAO(store dstepup.Service) Option {
	return func(s *Service) { s.stepUpDAO = store }
}

// WithMembership sets the group membership collaborator.
func WithMembership(membership group.Membership) Option {
	return func(s *Service) { s.membership = membership }
}

// WithQueue sets the recalculation job queue.
func WithQueue(queue messaging.Queue[recalc.Job]) Option {
	return func(s *Service) { s.queue = queue }
}

// WithTransitions attaches a publisher notified on workflow status changes.
func WithTransitions(transitions *event.Publisher[event.Transition]) Option {
	return func(s *Service) { s.transitions = transitions }
}

// WithStepUpTokens attaches a signer/verifier so step-up contexts can travel
// as JWTs.
func WithStepUpTokens(tokens *stepup.Tokens) Option {
	return func(s *Service) { s.stepUpTokens = tokens }
}

// WithPermissionChecks enables role-based permission enforcement on the vote
// path. Without it the engine assumes an outer layer already authorized the
// caller.
func WithPermissionChecks() Option {
	return func(s *Service) { s.enforcePermissions = true }
}

// WithRecalcWorkers sets the scheduler worker count.
func WithRecalcWorkers(count int) Option {
	return func(s *Service) {
		if s.config == nil {
			s.config = DefaultConfig()
		}
		s.config.Recalc.WorkerCount = count
	}
}

// WithTracing configures OpenTelemetry tracing. If outputFile is empty the
// stdout exporter is used; otherwise traces go to the supplied file path.
// Safe to call multiple times; the first successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing with a custom
// SpanExporter (OTLP, Jaeger, Zipkin). Safe to call multiple times; the first
// successful initialisation wins.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
