package dao

import (
	"context"
)

// Service is the generic persistence port. Memory implementations back unit
// tests and embedded use; database-backed implementations plug in behind the
// same contract.
type Service[K comparable, T any] interface {
	Save(ctx context.Context, t *T) error

	Load(ctx context.Context, id K) (*T, error)

	Delete(ctx context.Context, id K) error

	List(ctx context.Context, parameters ...*Parameter) ([]*T, error)
}

// Versioned extends Service with an optimistic-concurrency compare-and-swap.
// SaveWithVersion persists t only when the stored version still equals
// expected, and returns ErrVersionConflict otherwise. Implementations bump
// the entity version on success.
type Versioned[K comparable, T any] interface {
	Service[K, T]

	SaveWithVersion(ctx context.Context, t *T, expected int) error
}
