package memory

import (
	"context"
	"sync"

	"github.com/viant/quorum/model"
	"github.com/viant/quorum/service/dao"
	"github.com/viant/quorum/service/dao/stepup"
)

// Service keeps unconsumed step-up contexts keyed by jti. Existence implies
// the context has not been consumed; CompareAndDelete removes under a single
// lock so only one concurrent consumer can ever succeed.
type Service struct {
	contexts map[string]*model.StepUpContext
	mux      sync.Mutex
}

var _ stepup.Service = (*Service)(nil)

func New() *Service {
	return &Service{contexts: map[string]*model.StepUpContext{}}
}

func (s *Service) Save(_ context.Context, c *model.StepUpContext) error {
	if c == nil {
		return dao.ErrNilEntity
	}
	if c.JTI == "" {
		return dao.ErrInvalidID
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	s.contexts[c.JTI] = c
	return nil
}

func (s *Service) Load(_ context.Context, jti string) (*model.StepUpContext, error) {
	if jti == "" {
		return nil, dao.ErrInvalidID
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	c, ok := s.contexts[jti]
	if !ok {
		return nil, dao.ErrNotFound
	}
	return c, nil
}

func (s *Service) Delete(_ context.Context, jti string) error {
	if jti == "" {
		return dao.ErrInvalidID
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	delete(s.contexts, jti)
	return nil
}

func (s *Service) List(_ context.Context, _ ...*dao.Parameter) ([]*model.StepUpContext, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	out := make([]*model.StepUpContext, 0, len(s.contexts))
	for _, c := range s.contexts {
		out = append(out, c)
	}
	return out, nil
}

// CompareAndDelete implements the single-use consumption primitive: the
// match check and the delete happen under one lock.
func (s *Service) CompareAndDelete(_ context.Context, jti, subjectID, operation, resource string) (*model.StepUpContext, error) {
	if jti == "" {
		return nil, dao.ErrInvalidID
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	c, ok := s.contexts[jti]
	if !ok || !c.Matches(subjectID, operation, resource) {
		return nil, dao.ErrNotFound
	}
	delete(s.contexts, jti)
	return c, nil
}

// FindActive returns the unconsumed context for the given triple.
func (s *Service) FindActive(_ context.Context, subjectID, operation, resource string) (*model.StepUpContext, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	for _, c := range s.contexts {
		if c.Matches(subjectID, operation, resource) {
			return c, nil
		}
	}
	return nil, dao.ErrNotFound
}
