package event

import (
	"context"
	"log"
	"time"
)

// Listener runs a handler for every consumed event until stopped.
type Listener[T any] struct {
	publisher *Publisher[T]
	handler   func(*Event[T])
	cancel    context.CancelFunc
}

// NewListener creates a listener invoking handler per event.
func NewListener[T any](publisher *Publisher[T], handler func(*Event[T])) *Listener[T] {
	return &Listener[T]{publisher: publisher, handler: handler}
}

// Start begins consuming in a background goroutine.
func (l *Listener[T]) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	go func() {
		for {
			consumed, err := l.publisher.Consume(ctx)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				log.Printf("failed to consume event: %v", err)
				continue
			}
			if consumed == nil {
				// durable queues report empty with a nil event
				time.Sleep(50 * time.Millisecond)
				continue
			}
			l.handler(consumed)
		}
	}()
}

// Stop terminates the background consumer.
func (l *Listener[T]) Stop() {
	if l.cancel != nil {
		l.cancel()
	}
}
