// Package event publishes workflow lifecycle notifications over the generic
// messaging queue so collaborators (audit sinks, notifiers) can observe
// status transitions without polling the workflow store.
package event

import (
	"time"

	"github.com/viant/quorum/model"
)

// Transition records a single workflow status change.
type Transition struct {
	WorkflowID string       `json:"workflowId"`
	From       model.Status `json:"from"`
	To         model.Status `json:"to"`
}

// Event wraps a payload with delivery metadata.
type Event[T any] struct {
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Data      T                      `json:"data"`
}

// NewEvent creates an event carrying data.
func NewEvent[T any](data T) *Event[T] {
	return &Event[T]{CreatedAt: time.Now(), Data: data}
}
