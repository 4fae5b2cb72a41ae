package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/viant/quorum/model"
	"github.com/viant/quorum/service/dao"
	"github.com/viant/quorum/service/dao/vote"
)

// Service is an in-memory, append-only vote ledger keyed by vote id with a
// per-workflow index preserving insertion order.
type Service struct {
	votes      map[string]*model.Vote
	byWorkflow map[string][]string
	mux        sync.RWMutex
}

var _ vote.Service = (*Service)(nil)

func New() *Service {
	return &Service{
		votes:      map[string]*model.Vote{},
		byWorkflow: map[string][]string{},
	}
}

// Save appends a vote. Votes are immutable; re-saving an existing id is
// rejected to keep the ledger append-only.
func (s *Service) Save(_ context.Context, v *model.Vote) error {
	if v == nil {
		return dao.ErrNilEntity
	}
	if v.ID == "" {
		return dao.ErrInvalidID
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	if _, ok := s.votes[v.ID]; ok {
		return fmt.Errorf("vote %v already recorded", v.ID)
	}
	s.votes[v.ID] = v
	s.byWorkflow[v.WorkflowID] = append(s.byWorkflow[v.WorkflowID], v.ID)
	return nil
}

func (s *Service) Load(_ context.Context, id string) (*model.Vote, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	s.mux.RLock()
	defer s.mux.RUnlock()
	v, ok := s.votes[id]
	if !ok {
		return nil, dao.ErrNotFound
	}
	return v, nil
}

// Delete is present to satisfy the generic DAO contract; the ledger is
// append-only so deletion always fails.
func (s *Service) Delete(_ context.Context, id string) error {
	return fmt.Errorf("vote ledger is append-only, cannot delete %v", id)
}

func (s *Service) List(_ context.Context, _ ...*dao.Parameter) ([]*model.Vote, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	out := make([]*model.Vote, 0, len(s.votes))
	for _, v := range s.votes {
		out = append(out, v)
	}
	return out, nil
}

// ListByWorkflow returns the workflow ledger in insertion order.
func (s *Service) ListByWorkflow(_ context.Context, workflowID string) ([]*model.Vote, error) {
	if workflowID == "" {
		return nil, dao.ErrInvalidID
	}
	s.mux.RLock()
	defer s.mux.RUnlock()
	ids := s.byWorkflow[workflowID]
	out := make([]*model.Vote, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.votes[id])
	}
	return out, nil
}
