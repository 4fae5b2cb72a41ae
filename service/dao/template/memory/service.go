package memory

import (
	"github.com/viant/quorum/model"
	"github.com/viant/quorum/service/dao"
	"github.com/viant/quorum/service/dao/store"
)

// Service is the in-memory template store.
type Service struct {
	*store.MemoryStore[string, model.Template]
}

var _ dao.Service[string, model.Template] = (*Service)(nil)

func New() *Service {
	return &Service{
		MemoryStore: store.NewMemoryStore[string, model.Template](func(t *model.Template) string {
			return t.ID
		}),
	}
}
