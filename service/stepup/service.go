// Package stepup implements the single-use privileged authorization gate.
// Approval rules can demand a freshly re-authenticated voter for specific
// sub-rules; the gate issues a context after the re-authentication exchange
// and consumes it atomically when the privileged vote is accepted.
package stepup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/viant/quorum/fault"
	"github.com/viant/quorum/model"
	"github.com/viant/quorum/service/dao"
	dstepup "github.com/viant/quorum/service/dao/stepup"
)

// Service manages single-use step-up contexts.
type Service struct {
	contexts dstepup.Service
	tokens   *Tokens
}

// Option customises the gate.
type Option func(*Service)

// WithTokens attaches a signer/verifier so Issue can also mint a JWT
// carrying the context claim.
func WithTokens(tokens *Tokens) Option {
	return func(s *Service) { s.tokens = tokens }
}

// New creates a step-up gate over the supplied context store.
func New(contexts dstepup.Service, options ...Option) *Service {
	ret := &Service{contexts: contexts}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Issue mints a single-use context for the subject/operation/resource
// triple. Issue is idempotent per active context: while an unconsumed
// context for the same triple exists it is returned as-is instead of being
// re-minted.
func (s *Service) Issue(ctx context.Context, subjectID, operation, resource string) (*model.StepUpContext, error) {
	if subjectID == "" {
		return nil, dao.ErrInvalidID
	}
	existing, err := s.contexts.FindActive(ctx, subjectID, operation, resource)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, dao.ErrNotFound) {
		return nil, err
	}
	issued := &model.StepUpContext{
		JTI:       uuid.New().String(),
		SubjectID: subjectID,
		Operation: operation,
		Resource:  resource,
		CreatedAt: time.Now(),
	}
	if err = s.contexts.Save(ctx, issued); err != nil {
		return nil, fmt.Errorf("failed to store step-up context: %w", err)
	}
	return issued, nil
}

// IssueToken issues a context and returns it as a signed JWT. Requires
// WithTokens.
func (s *Service) IssueToken(ctx context.Context, subjectID, operation, resource string) (string, error) {
	if s.tokens == nil {
		return "", fmt.Errorf("step-up token signer not configured")
	}
	issued, err := s.Issue(ctx, subjectID, operation, resource)
	if err != nil {
		return "", err
	}
	return s.tokens.Sign(ctx, issued)
}

// Consume atomically checks and deletes the context identified by jti.
// Exactly one concurrent consumer can succeed; every later attempt with the
// same jti fails with the token_not_found reason. Consumption must never be
// retried by callers - a retry would defeat the single-use guarantee.
func (s *Service) Consume(ctx context.Context, subjectID, operation, resource, jti string) error {
	_, err := s.contexts.CompareAndDelete(ctx, jti, subjectID, operation, resource)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return fault.New(fault.TokenNotFound, "step-up context %v", jti)
		}
		return err
	}
	return nil
}

// Verify extracts the step-up claim from a presented token. Requires
// WithTokens.
func (s *Service) Verify(ctx context.Context, token string) (*model.StepUpContext, error) {
	if s.tokens == nil {
		return nil, fmt.Errorf("step-up token verifier not configured")
	}
	return s.tokens.Verify(ctx, token)
}
