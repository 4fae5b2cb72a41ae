// Package vote defines the append-only vote ledger port.
package vote

import (
	"context"

	"github.com/viant/quorum/model"
	"github.com/viant/quorum/service/dao"
)

// Service extends the generic DAO with a per-workflow ledger read. Votes are
// immutable once written; implementations never update rows in place.
type Service interface {
	dao.Service[string, model.Vote]

	// ListByWorkflow returns the full ledger for a workflow in insertion
	// order.
	ListByWorkflow(ctx context.Context, workflowID string) ([]*model.Vote, error)
}
