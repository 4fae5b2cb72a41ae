package stepup

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/quorum/fault"
	smemory "github.com/viant/quorum/service/dao/stepup/memory"
)

func TestServiceSingleUse(t *testing.T) {
	gate := New(smemory.New())
	ctx := context.Background()

	issued, err := gate.Issue(ctx, "alice", "vote", "wf-1")
	assert.NoError(t, err)
	assert.NotEmpty(t, issued.JTI)

	// first consumption succeeds
	assert.NoError(t, gate.Consume(ctx, "alice", "vote", "wf-1", issued.JTI))

	// second consumption with the same jti fails
	err = gate.Consume(ctx, "alice", "vote", "wf-1", issued.JTI)
	assert.Equal(t, fault.TokenNotFound, fault.ReasonOf(err))
}

func TestServiceIssueIdempotent(t *testing.T) {
	gate := New(smemory.New())
	ctx := context.Background()

	first, err := gate.Issue(ctx, "alice", "vote", "wf-1")
	assert.NoError(t, err)
	second, err := gate.Issue(ctx, "alice", "vote", "wf-1")
	assert.NoError(t, err)
	assert.Equal(t, first.JTI, second.JTI, "active context is reused")

	// a different triple mints a fresh context
	other, err := gate.Issue(ctx, "alice", "vote", "wf-2")
	assert.NoError(t, err)
	assert.NotEqual(t, first.JTI, other.JTI)

	// once consumed, the next issue mints again
	assert.NoError(t, gate.Consume(ctx, "alice", "vote", "wf-1", first.JTI))
	reissued, err := gate.Issue(ctx, "alice", "vote", "wf-1")
	assert.NoError(t, err)
	assert.NotEqual(t, first.JTI, reissued.JTI)
}

func TestServiceConsumeMismatch(t *testing.T) {
	gate := New(smemory.New())
	ctx := context.Background()

	issued, err := gate.Issue(ctx, "alice", "vote", "wf-1")
	assert.NoError(t, err)

	// wrong subject must not consume alice's context
	err = gate.Consume(ctx, "mallory", "vote", "wf-1", issued.JTI)
	assert.Equal(t, fault.TokenNotFound, fault.ReasonOf(err))

	// the context is still consumable by its owner
	assert.NoError(t, gate.Consume(ctx, "alice", "vote", "wf-1", issued.JTI))
}

func TestServiceConcurrentConsume(t *testing.T) {
	gate := New(smemory.New())
	ctx := context.Background()

	issued, err := gate.Issue(ctx, "alice", "vote", "wf-1")
	assert.NoError(t, err)

	const attempts = 16
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- gate.Consume(ctx, "alice", "vote", "wf-1", issued.JTI)
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, fault.TokenNotFound, fault.ReasonOf(err))
	}
	assert.Equal(t, 1, succeeded, "exactly one concurrent consumer wins")
}
