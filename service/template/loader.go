package template

import (
	"context"
	"fmt"
	"time"

	"github.com/viant/afs"
	"github.com/viant/quorum/model/rule"
	"gopkg.in/yaml.v3"
)

// Loader reads declarative template documents from any afs-supported
// location (file, mem, s3, gs, ...). Documents carry either a structured
// rule tree or the compact DSL text:
//
//	name: deploy-approval
//	spaceId: platform
//	defaultExpiresIn: 48h
//	ruleDSL: all(group(security,2), group(legal,1))
type Loader struct {
	fs afs.Service
}

// NewLoader creates a template document loader.
func NewLoader() *Loader {
	return &Loader{fs: afs.New()}
}

type document struct {
	Name             string     `yaml:"name"`
	SpaceID          string     `yaml:"spaceId"`
	DefaultExpiresIn string     `yaml:"defaultExpiresIn"`
	Rule             *rule.Rule `yaml:"rule"`
	RuleDSL          string     `yaml:"ruleDSL"`
}

// Load downloads and decodes a template document into a create/update
// request. The rule is not validated here; Service.Create does that.
func (l *Loader) Load(ctx context.Context, URL string) (*Request, error) {
	data, err := l.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to download template document %v: %w", URL, err)
	}
	doc := &document{}
	if err = yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to decode template document %v: %w", URL, err)
	}
	request := &Request{
		Name:    doc.Name,
		SpaceID: doc.SpaceID,
		Rule:    doc.Rule,
		RuleDSL: doc.RuleDSL,
	}
	if doc.DefaultExpiresIn != "" {
		expiresIn, err := time.ParseDuration(doc.DefaultExpiresIn)
		if err != nil {
			return nil, fmt.Errorf("invalid defaultExpiresIn %q in %v: %w", doc.DefaultExpiresIn, URL, err)
		}
		request.DefaultExpiresIn = expiresIn
	}
	return request, nil
}
