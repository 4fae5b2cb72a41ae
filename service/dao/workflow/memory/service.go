package memory

import (
	"context"
	"sync"

	"github.com/viant/quorum/model"
	"github.com/viant/quorum/service/dao"
)

// Service implements an in-memory, thread-safe workflow store with
// optimistic-concurrency saves. All API methods work with copies to
// eliminate data races between request handlers and recalculation workers.
type Service struct {
	workflows map[string]*model.Workflow
	mux       sync.RWMutex
}

var _ dao.Versioned[string, model.Workflow] = (*Service)(nil)

func New() *Service {
	return &Service{workflows: map[string]*model.Workflow{}}
}

// Save stores a workflow unconditionally. Used at creation time; updates to
// live workflows go through SaveWithVersion.
func (s *Service) Save(_ context.Context, w *model.Workflow) error {
	if w == nil {
		return dao.ErrNilEntity
	}
	if w.ID == "" {
		return dao.ErrInvalidID
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	s.workflows[w.ID] = w.Clone()
	return nil
}

// SaveWithVersion persists w only when the stored version still equals
// expected, bumping the version on success.
func (s *Service) SaveWithVersion(_ context.Context, w *model.Workflow, expected int) error {
	if w == nil {
		return dao.ErrNilEntity
	}
	if w.ID == "" {
		return dao.ErrInvalidID
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	existing, ok := s.workflows[w.ID]
	if !ok {
		return dao.ErrNotFound
	}
	if existing.Version != expected {
		return dao.ErrVersionConflict
	}
	updated := w.Clone()
	updated.Version = expected + 1
	s.workflows[w.ID] = updated
	w.Version = updated.Version
	return nil
}

func (s *Service) Load(_ context.Context, id string) (*model.Workflow, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	s.mux.RLock()
	defer s.mux.RUnlock()
	w, ok := s.workflows[id]
	if !ok {
		return nil, dao.ErrNotFound
	}
	return w.Clone(), nil
}

func (s *Service) Delete(_ context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	if _, ok := s.workflows[id]; !ok {
		return dao.ErrNotFound
	}
	delete(s.workflows, id)
	return nil
}

func (s *Service) List(_ context.Context, _ ...*dao.Parameter) ([]*model.Workflow, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	out := make([]*model.Workflow, 0, len(s.workflows))
	for _, w := range s.workflows {
		out = append(out, w.Clone())
	}
	return out, nil
}
