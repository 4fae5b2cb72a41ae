// Package recalc implements the asynchronous recalculation scheduler: a
// worker pool consuming workflow jobs, re-running the rule evaluator over the
// full vote ledger and advancing the workflow status under optimistic
// concurrency. Processing is idempotent and convergent, so at-least-once
// delivery and duplicate jobs are safe.
package recalc

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/viant/quorum/internal/clock"
	"github.com/viant/quorum/model"
	"github.com/viant/quorum/model/rule"
	"github.com/viant/quorum/service/dao"
	"github.com/viant/quorum/service/dao/vote"
	"github.com/viant/quorum/service/event"
	"github.com/viant/quorum/service/messaging"
	"github.com/viant/quorum/tracing"
)

// Config represents scheduler configuration.
type Config struct {
	// WorkerCount is the number of workers consuming recalculation jobs.
	WorkerCount int

	// MaxAttempts bounds the compare-and-swap retry loop per job.
	MaxAttempts int

	// SweepInterval is how often the expiry sweep runs; zero disables it.
	SweepInterval time.Duration
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() Config {
	return Config{
		WorkerCount:   5,
		MaxAttempts:   8,
		SweepInterval: time.Minute,
	}
}

// Service consumes recalculation jobs and advances workflow status.
type Service struct {
	config      Config
	queue       messaging.Queue[Job]
	workflows   dao.Versioned[string, model.Workflow]
	votes       vote.Service
	membership  rule.Membership
	transitions *event.Publisher[event.Transition]

	workerWg   sync.WaitGroup
	shutdownCh chan struct{}
	shutdown   sync.Once
	cancel     context.CancelFunc
}

// Option customises the scheduler.
type Option func(*Service)

// WithWorkers sets the number of worker goroutines.
func WithWorkers(count int) Option {
	return func(s *Service) { s.config.WorkerCount = count }
}

// WithConfig sets the whole configuration.
func WithConfig(config Config) Option {
	return func(s *Service) { s.config = config }
}

// WithTransitions attaches a publisher notified on every status change.
func WithTransitions(transitions *event.Publisher[event.Transition]) Option {
	return func(s *Service) { s.transitions = transitions }
}

// New creates a scheduler.
func New(queue messaging.Queue[Job],
	workflows dao.Versioned[string, model.Workflow],
	votes vote.Service,
	membership rule.Membership,
	options ...Option) (*Service, error) {
	if queue == nil {
		return nil, fmt.Errorf("job queue is required")
	}
	if workflows == nil {
		return nil, fmt.Errorf("workflow store is required")
	}
	if votes == nil {
		return nil, fmt.Errorf("vote ledger is required")
	}
	s := &Service{
		config:     DefaultConfig(),
		queue:      queue,
		workflows:  workflows,
		votes:      votes,
		membership: membership,
		shutdownCh: make(chan struct{}),
	}
	for _, option := range options {
		option(s)
	}
	return s, nil
}

// Start launches the worker pool and the expiry sweep. Workers stop when ctx
// is cancelled or Shutdown is called.
func (s *Service) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)
	for i := 0; i < s.config.WorkerCount; i++ {
		s.workerWg.Add(1)
		go s.runWorker(ctx, i)
	}
	if s.config.SweepInterval > 0 {
		s.workerWg.Add(1)
		go s.runSweep(ctx)
	}
	return nil
}

// Shutdown stops workers and waits for in-flight jobs to finish.
func (s *Service) Shutdown() {
	s.shutdown.Do(func() {
		close(s.shutdownCh)
		if s.cancel != nil {
			s.cancel()
		}
	})
	s.workerWg.Wait()
}

func (s *Service) runWorker(ctx context.Context, id int) {
	defer s.workerWg.Done()
	for {
		select {
		case <-s.shutdownCh:
			return
		case <-ctx.Done():
			return
		default:
		}
		msg, err := s.queue.Consume(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			time.Sleep(100 * time.Millisecond)
			continue
		}
		if msg == nil {
			// durable queues report empty with a nil message
			time.Sleep(100 * time.Millisecond)
			continue
		}
		if err = s.processMessage(ctx, msg); err != nil {
			log.Printf("recalc worker %d: %v", id, err)
		}
	}
}

func (s *Service) processMessage(ctx context.Context, msg messaging.Message[Job]) error {
	job := msg.T()
	if err := s.Process(ctx, job.WorkflowID); err != nil {
		return msg.Nack(err)
	}
	return msg.Ack()
}

// Process recomputes one workflow's status from its ledger. On a version
// conflict it re-reads and retries up to the configured bound; running it
// twice with the same ledger converges on the same status.
func (s *Service) Process(ctx context.Context, workflowID string) (err error) {
	ctx, span := tracing.StartSpan(ctx, "recalc.Process", "CONSUMER")
	defer tracing.EndSpan(span, err)
	span.WithAttributes(map[string]string{"workflow.id": workflowID})

	for attempt := 0; attempt < s.config.MaxAttempts; attempt++ {
		var done bool
		done, err = s.recalculate(ctx, workflowID)
		if err != nil || done {
			return err
		}
	}
	err = fmt.Errorf("recalculation of workflow %v exceeded %v attempts", workflowID, s.config.MaxAttempts)
	return err
}

// recalculate performs one evaluation plus compare-and-swap round. It returns
// done=false only on a version conflict.
func (s *Service) recalculate(ctx context.Context, workflowID string) (bool, error) {
	current, err := s.workflows.Load(ctx, workflowID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			// the workflow is gone, nothing to recompute
			return true, nil
		}
		return true, err
	}
	if current.Status.Terminal() {
		return true, nil
	}
	ledger, err := s.votes.ListByWorkflow(ctx, workflowID)
	if err != nil {
		return true, err
	}
	next := s.nextStatus(ctx, current, ledger)
	if next == current.Status && !current.RecalculationRequired {
		return true, nil
	}
	previous := current.Status
	current.Status = next
	current.RecalculationRequired = false
	current.UpdatedAt = clock.Now()
	err = s.workflows.SaveWithVersion(ctx, current, current.Version)
	if err != nil {
		if errors.Is(err, dao.ErrVersionConflict) {
			return false, nil
		}
		return true, err
	}
	if s.transitions != nil && next != previous {
		transition := event.Transition{WorkflowID: workflowID, From: previous, To: next}
		if err := s.transitions.Publish(ctx, event.NewEvent(transition)); err != nil {
			log.Printf("failed to publish transition for workflow %v: %v", workflowID, err)
		}
	}
	return true, nil
}

// nextStatus maps the evaluator verdict onto the workflow state machine.
func (s *Service) nextStatus(ctx context.Context, current *model.Workflow, ledger []*model.Vote) model.Status {
	if current.Expired(clock.Now()) {
		return model.StatusExpired
	}
	outcome := rule.Evaluate(ctx, current.Rule, ballots(ledger), s.membership)
	switch outcome.Verdict {
	case rule.VerdictApproved:
		return model.StatusApproved
	case rule.VerdictRejected:
		return model.StatusRejected
	}
	if len(ledger) > 0 {
		return model.StatusEvaluationInProgress
	}
	return model.StatusPending
}

// runSweep periodically moves overdue non-terminal workflows to EXPIRED so
// expiry becomes durable even without reads or votes.
func (s *Service) runSweep(ctx context.Context) {
	defer s.workerWg.Done()
	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.shutdownCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep expires every overdue non-terminal workflow. Conflicts are skipped;
// the next pass or a recalculation picks them up.
func (s *Service) Sweep(ctx context.Context) {
	workflows, err := s.workflows.List(ctx)
	if err != nil {
		log.Printf("expiry sweep failed to list workflows: %v", err)
		return
	}
	now := clock.Now()
	for _, current := range workflows {
		if current.Status.Terminal() || !current.Expired(now) {
			continue
		}
		previous := current.Status
		current.Status = model.StatusExpired
		current.RecalculationRequired = false
		current.UpdatedAt = now
		if err = s.workflows.SaveWithVersion(ctx, current, current.Version); err != nil {
			continue
		}
		if s.transitions != nil {
			transition := event.Transition{WorkflowID: current.ID, From: previous, To: model.StatusExpired}
			if err := s.transitions.Publish(ctx, event.NewEvent(transition)); err != nil {
				log.Printf("failed to publish expiry for workflow %v: %v", current.ID, err)
			}
		}
	}
}

func ballots(ledger []*model.Vote) []rule.Ballot {
	out := make([]rule.Ballot, 0, len(ledger))
	for _, entry := range ledger {
		out = append(out, rule.Ballot{
			VoterID: entry.VoterID,
			Veto:    entry.VoteType == model.VoteVeto,
			Groups:  entry.VotedForGroups,
		})
	}
	return out
}
