package quorum

import (
	"github.com/viant/quorum/model"
	"github.com/viant/quorum/service/auth"
	"github.com/viant/quorum/service/ballot"
	"github.com/viant/quorum/service/dao"
	"github.com/viant/quorum/service/event"
	"github.com/viant/quorum/service/group"
	"github.com/viant/quorum/service/messaging"
	"github.com/viant/quorum/service/recalc"
	"github.com/viant/quorum/service/stepup"
	"github.com/viant/quorum/service/template"
	"github.com/viant/quorum/service/workflow"

	dstepup "github.com/viant/quorum/service/dao/stepup"
	"github.com/viant/quorum/service/dao/vote"

	rmemory "github.com/viant/quorum/service/dao/role/memory"
	smemory "github.com/viant/quorum/service/dao/stepup/memory"
	tmemory "github.com/viant/quorum/service/dao/template/memory"
	vmemory "github.com/viant/quorum/service/dao/vote/memory"
	wmemory "github.com/viant/quorum/service/dao/workflow/memory"
	mmemory "github.com/viant/quorum/service/messaging/memory"
)

// Service represents the quorum approval engine.
type Service struct {
	runtime *Runtime
	config  *Config

	workflowDAO  dao.Versioned[string, model.Workflow]
	voteDAO      vote.Service
	templateDAO  dao.Service[string, model.Template]
	roleDAO      dao.Service[string, model.RoleBinding]
	stepUpDAO    dstepup.Service
	membership   group.Membership
	queue        messaging.Queue[recalc.Job]
	transitions  *event.Publisher[event.Transition]
	stepUpTokens *stepup.Tokens

	enforcePermissions bool
}

func (s *Service) init(options []Option) error {
	for _, option := range options {
		option(s)
	}
	s.ensureBaseSetup()
	if err := s.config.Validate(); err != nil {
		return err
	}

	r := s.runtime
	r.membership = s.membership
	r.templates = template.New(s.templateDAO)
	r.loader = template.NewLoader()
	r.workflows = workflow.New(s.workflowDAO, s.templateDAO)
	r.roles = auth.NewRoles(s.roleDAO)
	r.resolver = auth.NewResolver(r.templates)

	var gateOptions []stepup.Option
	if s.stepUpTokens != nil {
		gateOptions = append(gateOptions, stepup.WithTokens(s.stepUpTokens))
	}
	r.gate = stepup.New(s.stepUpDAO, gateOptions...)

	var ballotOptions []ballot.Option
	if s.enforcePermissions {
		ballotOptions = append(ballotOptions, ballot.WithPermissions(r.resolver, r.roles))
	}
	r.ballots = ballot.New(s.workflowDAO, s.voteDAO, s.templateDAO, s.membership, r.gate, s.queue, ballotOptions...)

	var schedulerOptions []recalc.Option
	schedulerOptions = append(schedulerOptions, recalc.WithConfig(recalc.Config{
		WorkerCount:   s.config.Recalc.WorkerCount,
		MaxAttempts:   s.config.Recalc.MaxAttempts,
		SweepInterval: s.config.Recalc.SweepInterval,
	}))
	if s.transitions != nil {
		schedulerOptions = append(schedulerOptions, recalc.WithTransitions(s.transitions))
	}
	scheduler, err := recalc.New(s.queue, s.workflowDAO, s.voteDAO, s.membership, schedulerOptions...)
	if err != nil {
		return err
	}
	r.scheduler = scheduler
	return nil
}

func (s *Service) ensureBaseSetup() {
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if s.workflowDAO == nil {
		s.workflowDAO = wmemory.New()
	}
	if s.voteDAO == nil {
		s.voteDAO = vmemory.New()
	}
	if s.templateDAO == nil {
		s.templateDAO = tmemory.New()
	}
	if s.roleDAO == nil {
		s.roleDAO = rmemory.New()
	}
	if s.stepUpDAO == nil {
		s.stepUpDAO = smemory.New()
	}
	if s.membership == nil {
		s.membership = group.New()
	}
	if s.queue == nil {
		s.queue = mmemory.NewQueue[recalc.Job](mmemory.DefaultConfig())
	}
}

// Runtime returns the operational surface of the engine.
func (s *Service) Runtime() *Runtime {
	return s.runtime
}

// New creates the engine with in-memory defaults, customised by options.
func New(options ...Option) (*Service, error) {
	ret := &Service{runtime: &Runtime{}}
	if err := ret.init(options); err != nil {
		return nil, err
	}
	return ret, nil
}
