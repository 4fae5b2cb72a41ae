// Package template manages workflow templates: creation, versioned updates
// and deprecation. A template is immutable once referenced by a workflow;
// updates mint a new version and retire the previous one.
package template

import (
	"context"
	"fmt"
	"time"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/viant/quorum/internal/clock"
	"github.com/viant/quorum/internal/idgen"
	"github.com/viant/quorum/model"
	"github.com/viant/quorum/model/rule"
	"github.com/viant/quorum/model/rule/dsl"
	"github.com/viant/quorum/service/dao"
)

// DefaultExpiresIn applies to templates created without an explicit default.
const DefaultExpiresIn = 72 * time.Hour

// Service manages workflow templates.
type Service struct {
	templates dao.Service[string, model.Template]
}

// New creates a template service.
func New(templates dao.Service[string, model.Template]) *Service {
	return &Service{templates: templates}
}

// Request describes a template to create or the replacement content for an
// update. Either Rule or RuleDSL must be populated; RuleDSL is compiled with
// the rule dsl parser.
type Request struct {
	Name             string
	SpaceID          string
	Rule             *rule.Rule
	RuleDSL          string
	DefaultExpiresIn time.Duration
}

func (r *Request) resolveRule() (*rule.Rule, error) {
	if r.RuleDSL != "" {
		return dsl.Parse([]byte(r.RuleDSL))
	}
	if r.Rule == nil {
		return nil, fmt.Errorf("template %v: rule is required", r.Name)
	}
	if err := r.Rule.Validate(); err != nil {
		return nil, err
	}
	return r.Rule, nil
}

// Create validates the rule and stores a new ACTIVE template at version 1.
func (s *Service) Create(ctx context.Context, request *Request) (*model.Template, error) {
	resolved, err := request.resolveRule()
	if err != nil {
		return nil, err
	}
	expiresIn := request.DefaultExpiresIn
	if expiresIn <= 0 {
		expiresIn = DefaultExpiresIn
	}
	created := &model.Template{
		ID:               idgen.New(),
		Name:             request.Name,
		Version:          1,
		Status:           model.TemplateActive,
		SpaceID:          request.SpaceID,
		Rule:             resolved,
		DefaultExpiresIn: expiresIn,
		CreatedAt:        clock.Now(),
	}
	if err = s.templates.Save(ctx, created); err != nil {
		return nil, fmt.Errorf("failed to save template %v: %w", request.Name, err)
	}
	return created, nil
}

// Update mints a new ACTIVE version with a fresh id and moves the previous
// version to PENDING_DEPRECATION. The new version records a unified diff of
// the rule text for audit. Workflows created against the previous version
// keep their snapshot and are unaffected.
func (s *Service) Update(ctx context.Context, templateID string, request *Request) (*model.Template, error) {
	previous, err := s.templates.Load(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("template %v: %w", templateID, err)
	}
	resolved, err := request.resolveRule()
	if err != nil {
		return nil, err
	}
	name := request.Name
	if name == "" {
		name = previous.Name
	}
	expiresIn := request.DefaultExpiresIn
	if expiresIn <= 0 {
		expiresIn = previous.DefaultExpiresIn
	}
	next := &model.Template{
		ID:               idgen.New(),
		Name:             name,
		Version:          previous.Version + 1,
		Status:           model.TemplateActive,
		SpaceID:          previous.SpaceID,
		Rule:             resolved,
		DefaultExpiresIn: expiresIn,
		RuleDiff:         ruleDiff(previous, resolved),
		CreatedAt:        clock.Now(),
	}
	if err = s.templates.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to save template %v: %w", name, err)
	}
	previous.Status = model.TemplatePendingDeprecation
	if err = s.templates.Save(ctx, previous); err != nil {
		return nil, fmt.Errorf("failed to retire template %v: %w", templateID, err)
	}
	return next, nil
}

// Deprecate retires a template. allowVoting keeps in-flight workflows
// votable; otherwise votes against the template's workflows are rejected.
func (s *Service) Deprecate(ctx context.Context, templateID string, allowVoting bool) (*model.Template, error) {
	deprecated, err := s.templates.Load(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("template %v: %w", templateID, err)
	}
	deprecated.Status = model.TemplateDeprecated
	deprecated.AllowVotingWhenDeprecated = allowVoting
	if err = s.templates.Save(ctx, deprecated); err != nil {
		return nil, fmt.Errorf("failed to deprecate template %v: %w", templateID, err)
	}
	return deprecated, nil
}

// Lookup returns a template by id.
func (s *Service) Lookup(ctx context.Context, templateID string) (*model.Template, error) {
	return s.templates.Load(ctx, templateID)
}

// ParentSpace implements auth.TemplateParents over the template store.
func (s *Service) ParentSpace(ctx context.Context, templateID string) (string, bool) {
	template, err := s.templates.Load(ctx, templateID)
	if err != nil || template.SpaceID == "" {
		return "", false
	}
	return template.SpaceID, true
}

func ruleDiff(previous *model.Template, next *rule.Rule) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(previous.Rule.Format()),
		B:        difflib.SplitLines(next.Format()),
		FromFile: fmt.Sprintf("%s@v%d", previous.Name, previous.Version),
		ToFile:   fmt.Sprintf("%s@v%d", previous.Name, previous.Version+1),
		Context:  1,
	})
	if err != nil {
		return ""
	}
	return diff
}
