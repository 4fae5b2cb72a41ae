package recalc

// Job asks the scheduler to recompute one workflow's status from its vote
// ledger. Jobs are delivered at-least-once and carry no ordering guarantee;
// processing is idempotent so duplicates are harmless.
type Job struct {
	WorkflowID string `json:"workflowId"`
}
