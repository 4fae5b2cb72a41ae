package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/quorum/fault"
	"github.com/viant/quorum/internal/clock"
	"github.com/viant/quorum/model"
	wmemory "github.com/viant/quorum/service/dao/workflow/memory"
	"github.com/viant/quorum/service/template"

	tmemory "github.com/viant/quorum/service/dao/template/memory"
)

func newFixture(t *testing.T) (*Service, *template.Service) {
	t.Helper()
	templates := tmemory.New()
	return New(wmemory.New(), templates), template.New(templates)
}

func TestServiceCreate(t *testing.T) {
	service, templates := newFixture(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	clock.NowFunc = func() time.Time { return now }
	defer func() { clock.NowFunc = time.Now }()

	created, err := templates.Create(ctx, &template.Request{
		Name:    "deploy-approval",
		RuleDSL: "all(group(security,2), group(legal,1))",
	})
	assert.NoError(t, err)

	workflow, err := service.Create(ctx, &Request{Name: "release 1.2", TemplateID: created.ID})
	assert.NoError(t, err)
	assert.Equal(t, model.StatusPending, workflow.Status)
	assert.Equal(t, created.ID, workflow.TemplateID)
	assert.Equal(t, now.Add(template.DefaultExpiresIn), workflow.ExpiresAt)
	assert.Equal(t, []string{"security", "legal"}, workflow.Rule.Groups())

	// later template versions never touch the snapshot
	_, err = templates.Update(ctx, created.ID, &template.Request{RuleDSL: "group(security,5)"})
	assert.NoError(t, err)
	reloaded, err := service.Get(ctx, workflow.ID)
	assert.NoError(t, err)
	assert.Equal(t, []string{"security", "legal"}, reloaded.Rule.Groups())

	_, err = service.Create(ctx, &Request{Name: "orphan", TemplateID: "missing"})
	assert.Equal(t, fault.WorkflowNotFound, fault.ReasonOf(err))
}

func TestServiceCreateExpiryOverride(t *testing.T) {
	service, templates := newFixture(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	clock.NowFunc = func() time.Time { return now }
	defer func() { clock.NowFunc = time.Now }()

	created, err := templates.Create(ctx, &template.Request{Name: "deploy-approval", RuleDSL: "group(security,1)"})
	assert.NoError(t, err)

	workflow, err := service.Create(ctx, &Request{Name: "hotfix", TemplateID: created.ID, ExpiresIn: time.Hour})
	assert.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), workflow.ExpiresAt)
}

func TestServiceCancel(t *testing.T) {
	service, templates := newFixture(t)
	ctx := context.Background()

	created, err := templates.Create(ctx, &template.Request{Name: "deploy-approval", RuleDSL: "group(security,1)"})
	assert.NoError(t, err)
	workflow, err := service.Create(ctx, &Request{Name: "release 1.2", TemplateID: created.ID})
	assert.NoError(t, err)

	cancelled, err := service.Cancel(ctx, workflow.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, cancelled.Status)

	// terminal workflows cannot be cancelled again
	_, err = service.Cancel(ctx, workflow.ID)
	assert.Equal(t, fault.WorkflowCancelled, fault.ReasonOf(err))
}

func TestServiceGetLazyExpiry(t *testing.T) {
	service, templates := newFixture(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	clock.NowFunc = func() time.Time { return now }
	defer func() { clock.NowFunc = time.Now }()

	created, err := templates.Create(ctx, &template.Request{Name: "deploy-approval", RuleDSL: "group(security,1)"})
	assert.NoError(t, err)
	workflow, err := service.Create(ctx, &Request{Name: "release 1.2", TemplateID: created.ID, ExpiresIn: time.Hour})
	assert.NoError(t, err)

	now = now.Add(2 * time.Hour)
	expired, err := service.Get(ctx, workflow.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.StatusExpired, expired.Status)
	assert.Equal(t, workflow.Version, expired.Version, "lazy expiry does not persist")
}
