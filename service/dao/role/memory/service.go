package memory

import (
	"github.com/viant/quorum/model"
	"github.com/viant/quorum/service/dao"
	"github.com/viant/quorum/service/dao/store"
)

// Service stores role bindings keyed by subject id.
type Service struct {
	*store.MemoryStore[string, model.RoleBinding]
}

var _ dao.Service[string, model.RoleBinding] = (*Service)(nil)

func New() *Service {
	return &Service{
		MemoryStore: store.NewMemoryStore[string, model.RoleBinding](func(b *model.RoleBinding) string {
			return b.SubjectID
		}),
	}
}
