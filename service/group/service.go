// Package group exposes the membership port the evaluator and eligibility
// checks consult. The engine treats the membership store as an external
// collaborator; the memory implementation backs embedded use and tests.
package group

import (
	"context"
	"sync"
)

// Membership answers group membership questions.
type Membership interface {
	// IsMember reports whether subjectID is a current member of groupID.
	IsMember(ctx context.Context, groupID, subjectID string) bool

	// MemberOf returns the ids of groups, out of the supplied candidates,
	// the subject currently belongs to.
	MemberOf(ctx context.Context, subjectID string, candidates []string) []string
}

// Service is an in-memory membership store.
type Service struct {
	members map[string]map[string]bool
	mux     sync.RWMutex
}

var _ Membership = (*Service)(nil)

func New() *Service {
	return &Service{members: map[string]map[string]bool{}}
}

// Add puts subjects into a group.
func (s *Service) Add(groupID string, subjectIDs ...string) {
	s.mux.Lock()
	defer s.mux.Unlock()
	group, ok := s.members[groupID]
	if !ok {
		group = map[string]bool{}
		s.members[groupID] = group
	}
	for _, subjectID := range subjectIDs {
		group[subjectID] = true
	}
}

// Remove takes a subject out of a group; removing a non-member is a no-op.
func (s *Service) Remove(groupID, subjectID string) {
	s.mux.Lock()
	defer s.mux.Unlock()
	delete(s.members[groupID], subjectID)
}

// IsMember implements Membership.
func (s *Service) IsMember(_ context.Context, groupID, subjectID string) bool {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.members[groupID][subjectID]
}

// MemberOf implements Membership.
func (s *Service) MemberOf(ctx context.Context, subjectID string, candidates []string) []string {
	var out []string
	for _, groupID := range candidates {
		if s.IsMember(ctx, groupID, subjectID) {
			out = append(out, groupID)
		}
	}
	return out
}
