package template

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/quorum/fault"
	"github.com/viant/quorum/model"
	"github.com/viant/quorum/model/rule"
	tmemory "github.com/viant/quorum/service/dao/template/memory"
)

func TestServiceCreate(t *testing.T) {
	service := New(tmemory.New())
	ctx := context.Background()

	created, err := service.Create(ctx, &Request{
		Name:    "deploy-approval",
		SpaceID: "platform",
		RuleDSL: "all(group(security,2), group(legal,1))",
	})
	assert.NoError(t, err)
	assert.Equal(t, model.TemplateActive, created.Status)
	assert.Equal(t, 1, created.Version)
	assert.Equal(t, DefaultExpiresIn, created.DefaultExpiresIn)
	assert.Equal(t, []string{"security", "legal"}, created.Rule.Groups())

	// invalid rules are rejected before anything is stored
	_, err = service.Create(ctx, &Request{Name: "bad", RuleDSL: "all()"})
	assert.Equal(t, fault.AndRuleMustHaveRules, fault.ReasonOf(err))

	_, err = service.Create(ctx, &Request{Name: "deep", Rule: rule.And(rule.Or(rule.And(rule.Group("a", 1))))})
	assert.Equal(t, fault.MaxRuleNestingExceeded, fault.ReasonOf(err))
}

func TestServiceUpdateVersions(t *testing.T) {
	service := New(tmemory.New())
	ctx := context.Background()

	v1, err := service.Create(ctx, &Request{Name: "deploy-approval", RuleDSL: "group(security,1)"})
	assert.NoError(t, err)

	v2, err := service.Update(ctx, v1.ID, &Request{RuleDSL: "group(security,2)"})
	assert.NoError(t, err)

	assert.NotEqual(t, v1.ID, v2.ID, "update mints a fresh id")
	assert.Equal(t, 2, v2.Version)
	assert.Equal(t, model.TemplateActive, v2.Status)
	assert.Contains(t, v2.RuleDiff, "-group(security,1)")
	assert.Contains(t, v2.RuleDiff, "+group(security,2)")

	retired, err := service.Lookup(ctx, v1.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.TemplatePendingDeprecation, retired.Status)
	assert.Equal(t, 1, retired.Rule.MinCount, "previous version rule unchanged")
}

func TestServiceDeprecate(t *testing.T) {
	service := New(tmemory.New())
	ctx := context.Background()

	created, err := service.Create(ctx, &Request{Name: "deploy-approval", RuleDSL: "group(security,1)"})
	assert.NoError(t, err)
	assert.True(t, created.Votable())

	deprecated, err := service.Deprecate(ctx, created.ID, true)
	assert.NoError(t, err)
	assert.Equal(t, model.TemplateDeprecated, deprecated.Status)
	assert.True(t, deprecated.Votable(), "voting allowed when flagged at deprecation time")

	closed, err := service.Deprecate(ctx, created.ID, false)
	assert.NoError(t, err)
	assert.False(t, closed.Votable())
}

func TestLoader(t *testing.T) {
	location := filepath.Join(t.TempDir(), "template.yaml")
	data := `name: deploy-approval
spaceId: platform
defaultExpiresIn: 48h
ruleDSL: all(group(security,2), any(group(legal,1), group(finance,1,high)))
`
	assert.NoError(t, os.WriteFile(location, []byte(data), 0o644))

	loader := NewLoader()
	request, err := loader.Load(context.Background(), location)
	assert.NoError(t, err)
	assert.Equal(t, "deploy-approval", request.Name)
	assert.Equal(t, "platform", request.SpaceID)
	assert.Equal(t, 48*time.Hour, request.DefaultExpiresIn)

	service := New(tmemory.New())
	created, err := service.Create(context.Background(), request)
	assert.NoError(t, err)
	assert.Equal(t, []string{"security", "legal", "finance"}, created.Rule.Groups())
	assert.Equal(t, []string{"finance"}, created.Rule.HighPrivilegeGroups())
}

func TestLoaderStructuredRule(t *testing.T) {
	location := filepath.Join(t.TempDir(), "template.yaml")
	data := `name: release-approval
rule:
  kind: and
  rules:
    - kind: group
      groupId: security
      minCount: 2
    - kind: group
      groupId: finance
      minCount: 1
      requireHighPrivilege: true
`
	assert.NoError(t, os.WriteFile(location, []byte(data), 0o644))

	request, err := NewLoader().Load(context.Background(), location)
	assert.NoError(t, err)

	created, err := New(tmemory.New()).Create(context.Background(), request)
	assert.NoError(t, err)
	assert.Equal(t, rule.KindAnd, created.Rule.Kind)
	assert.Equal(t, []string{"finance"}, created.Rule.HighPrivilegeGroups())
}
