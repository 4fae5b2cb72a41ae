// Package stepup defines the single-use privileged context store port.
package stepup

import (
	"context"

	"github.com/viant/quorum/model"
	"github.com/viant/quorum/service/dao"
)

// Service extends the generic DAO with the atomic check-and-delete the
// single-use guarantee depends on. A plain "read then delete" pair would
// reintroduce the race between two concurrent consumers, so consumption is a
// single store operation.
type Service interface {
	dao.Service[string, model.StepUpContext]

	// CompareAndDelete atomically removes and returns the context stored
	// under jti, but only when it matches the subject, operation and
	// resource triple. It returns dao.ErrNotFound when the context was
	// never issued, was already consumed, or was minted for a different
	// triple - a mismatch must not consume another caller's context.
	CompareAndDelete(ctx context.Context, jti, subjectID, operation, resource string) (*model.StepUpContext, error)

	// FindActive returns the unconsumed context matching the subject,
	// operation and resource triple, or dao.ErrNotFound.
	FindActive(ctx context.Context, subjectID, operation, resource string) (*model.StepUpContext, error)
}
