// Package workflow manages workflow lifecycle outside of voting: creation
// from a template, administrative cancellation and reads. Status transitions
// driven by votes belong to the recalculation scheduler.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/viant/quorum/fault"
	"github.com/viant/quorum/internal/clock"
	"github.com/viant/quorum/internal/idgen"
	"github.com/viant/quorum/model"
	"github.com/viant/quorum/service/dao"
)

// Service manages workflow records.
type Service struct {
	workflows dao.Versioned[string, model.Workflow]
	templates dao.Service[string, model.Template]
}

// New creates a workflow service.
func New(workflows dao.Versioned[string, model.Workflow], templates dao.Service[string, model.Template]) *Service {
	return &Service{workflows: workflows, templates: templates}
}

// Request describes a workflow to create.
type Request struct {
	Name       string
	TemplateID string

	// ExpiresIn overrides the template default when positive.
	ExpiresIn time.Duration
}

// Create snapshots the template rule into a new PENDING workflow. Later
// template versions never affect the created run.
func (s *Service) Create(ctx context.Context, request *Request) (*model.Workflow, error) {
	template, err := s.templates.Load(ctx, request.TemplateID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return nil, fault.New(fault.WorkflowNotFound, "template %v", request.TemplateID)
		}
		return nil, err
	}
	expiresIn := request.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = template.DefaultExpiresIn
	}
	now := clock.Now()
	created := &model.Workflow{
		ID:         idgen.New(),
		Name:       request.Name,
		Status:     model.StatusPending,
		TemplateID: template.ID,
		Rule:       template.Rule,
		ExpiresAt:  now.Add(expiresIn),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err = s.workflows.Save(ctx, created); err != nil {
		return nil, fmt.Errorf("failed to save workflow %v: %w", request.Name, err)
	}
	return created, nil
}

// Get returns a workflow by id, surfacing the lazily computed expired status
// without persisting it; the sweeper makes expiry durable.
func (s *Service) Get(ctx context.Context, id string) (*model.Workflow, error) {
	loaded, err := s.workflows.Load(ctx, id)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return nil, fault.New(fault.WorkflowNotFound, "workflow %v", id)
		}
		return nil, err
	}
	if !loaded.Status.Terminal() && loaded.Expired(clock.Now()) {
		loaded.Status = model.StatusExpired
	}
	return loaded, nil
}

// Cancel moves a non-terminal workflow to CANCELLED. Used by administrative
// cleanup, e.g. when a deprecated template's runs are being closed out.
func (s *Service) Cancel(ctx context.Context, id string) (*model.Workflow, error) {
	for {
		loaded, err := s.workflows.Load(ctx, id)
		if err != nil {
			if errors.Is(err, dao.ErrNotFound) {
				return nil, fault.New(fault.WorkflowNotFound, "workflow %v", id)
			}
			return nil, err
		}
		if loaded.Status.Terminal() {
			return nil, terminalFault(loaded)
		}
		loaded.Status = model.StatusCancelled
		loaded.UpdatedAt = clock.Now()
		err = s.workflows.SaveWithVersion(ctx, loaded, loaded.Version)
		if err == nil {
			return loaded, nil
		}
		if !errors.Is(err, dao.ErrVersionConflict) {
			return nil, err
		}
	}
}

func terminalFault(w *model.Workflow) error {
	switch w.Status {
	case model.StatusApproved:
		return fault.New(fault.WorkflowAlreadyApproved, "workflow %v", w.ID)
	case model.StatusRejected:
		return fault.New(fault.WorkflowAlreadyRejected, "workflow %v", w.ID)
	case model.StatusCancelled:
		return fault.New(fault.WorkflowCancelled, "workflow %v", w.ID)
	case model.StatusExpired:
		return fault.New(fault.WorkflowExpired, "workflow %v", w.ID)
	}
	return fault.New(fault.WorkflowNotFound, "workflow %v in unexpected status %v", w.ID, w.Status)
}

// TerminalFault translates a terminal workflow status into its symbolic
// reason. Shared with the ballot service's eligibility checks.
func TerminalFault(w *model.Workflow) error { return terminalFault(w) }
