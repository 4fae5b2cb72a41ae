package fs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/afs"
)

type testJob struct {
	WorkflowID string
}

func TestQueuePersistsEntries(t *testing.T) {
	config := DefaultConfig()
	config.BaseURL = t.TempDir()
	queue, err := NewQueue[testJob](afs.New(), config)
	assert.NoError(t, err)
	ctx := context.Background()

	assert.NoError(t, queue.Publish(ctx, &testJob{WorkflowID: "wf-1"}))

	message, err := queue.Consume(ctx)
	assert.NoError(t, err)
	if !assert.NotNil(t, message) {
		return
	}
	assert.Equal(t, "wf-1", message.T().WorkflowID)
	assert.NoError(t, message.Ack())

	// queue drained
	empty, err := queue.Consume(ctx)
	assert.NoError(t, err)
	assert.Nil(t, empty)
}

func TestQueueNackRedelivers(t *testing.T) {
	config := DefaultConfig()
	config.BaseURL = t.TempDir()
	config.MaxRetries = 1
	queue, err := NewQueue[testJob](afs.New(), config)
	assert.NoError(t, err)
	ctx := context.Background()

	assert.NoError(t, queue.Publish(ctx, &testJob{WorkflowID: "wf-1"}))

	message, err := queue.Consume(ctx)
	assert.NoError(t, err)
	assert.NoError(t, message.Nack(nil))

	redelivered, err := queue.Consume(ctx)
	assert.NoError(t, err)
	if !assert.NotNil(t, redelivered) {
		return
	}
	assert.Equal(t, "wf-1", redelivered.T().WorkflowID)

	// exceeding the retry limit parks the entry in the dlq folder
	assert.NoError(t, redelivered.Nack(nil))
	parked, err := queue.Consume(ctx)
	assert.NoError(t, err)
	assert.Nil(t, parked)
}
