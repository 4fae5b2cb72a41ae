// Package fs provides a filesystem-backed queue built on the afs virtual
// file system, so job state survives restarts and any afs-supported scheme
// (file, mem, s3, gs) can host it. Intended for deployments that need the
// recalculation backlog to be durable; the memory queue remains the default.
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/quorum/service/messaging"
)

// Config holds configuration for the filesystem queue.
type Config struct {
	BaseURL    string // base location for queue entries
	MaxRetries int    // redeliveries before an entry moves to the dlq folder
}

// DefaultConfig returns a default queue configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:    "/tmp/quorum/queue",
		MaxRetries: 3,
	}
}

// envelope is the persisted form of one queue entry.
type envelope[T any] struct {
	ID        string    `json:"id"`
	Data      T         `json:"data"`
	Retries   int       `json:"retries"`
	CreatedAt time.Time `json:"createdAt"`
}

// Message implements messaging.Message for the filesystem queue.
type Message[T any] struct {
	envelope  envelope[T]
	queue     *Queue[T]
	processed bool
	mu        sync.Mutex
}

// T returns the message payload.
func (m *Message[T]) T() *T {
	return &m.envelope.Data
}

// Ack removes the entry from the queue.
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message already processed")
	}
	m.processed = true
	return m.queue.remove(context.Background(), m.envelope.ID)
}

// Nack requeues the entry for redelivery, or parks it in the dlq folder once
// the retry limit is exceeded.
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message already processed")
	}
	m.processed = true
	m.envelope.Retries++
	return m.queue.requeue(context.Background(), &m.envelope)
}

// Queue implements a filesystem-based messaging.Queue.
type Queue[T any] struct {
	fs         afs.Service
	config     Config
	pendingDir string
	inflight   string
	dlqDir     string
	mu         sync.Mutex
}

// NewQueue creates a new filesystem-backed queue.
func NewQueue[T any](fs afs.Service, config Config) (*Queue[T], error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	q := &Queue[T]{
		fs:         fs,
		config:     config,
		pendingDir: path.Join(config.BaseURL, "pending"),
		inflight:   path.Join(config.BaseURL, "inflight"),
		dlqDir:     path.Join(config.BaseURL, "dlq"),
	}
	ctx := context.Background()
	for _, dir := range []string{q.pendingDir, q.inflight, q.dlqDir} {
		if exists, _ := fs.Exists(ctx, dir); !exists {
			if err := fs.Create(ctx, dir, file.DefaultDirOsMode, true); err != nil {
				return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
	}
	return q, nil
}

// Publish appends a new entry to the pending folder.
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	entry := envelope[T]{ID: uuid.New().String(), Data: *t, CreatedAt: time.Now()}
	return q.upload(ctx, path.Join(q.pendingDir, entry.ID+".json"), &entry)
}

// Consume claims the oldest pending entry. It returns (nil, nil) when the
// queue is empty so callers can poll without busy-waiting on errors.
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	objects, err := q.fs.List(ctx, q.pendingDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending entries: %w", err)
	}
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		entry, err := q.download(ctx, object.URL())
		if err != nil {
			// park unreadable entries so they do not wedge the queue
			_ = q.fs.Move(ctx, object.URL(), path.Join(q.dlqDir, "invalid-"+object.Name()))
			continue
		}
		if err = q.upload(ctx, path.Join(q.inflight, entry.ID+".json"), entry); err != nil {
			return nil, err
		}
		if err = q.fs.Delete(ctx, object.URL()); err != nil {
			return nil, fmt.Errorf("failed to claim entry %v: %w", entry.ID, err)
		}
		return &Message[T]{envelope: *entry, queue: q}, nil
	}
	return nil, nil
}

func (q *Queue[T]) remove(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	location := path.Join(q.inflight, id+".json")
	if exists, _ := q.fs.Exists(ctx, location); exists {
		return q.fs.Delete(ctx, location)
	}
	return nil
}

func (q *Queue[T]) requeue(ctx context.Context, entry *envelope[T]) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	destination := path.Join(q.pendingDir, entry.ID+".json")
	if entry.Retries > q.config.MaxRetries {
		destination = path.Join(q.dlqDir, entry.ID+".json")
	}
	if err := q.upload(ctx, destination, entry); err != nil {
		return err
	}
	inflight := path.Join(q.inflight, entry.ID+".json")
	if exists, _ := q.fs.Exists(ctx, inflight); exists {
		return q.fs.Delete(ctx, inflight)
	}
	return nil
}

func (q *Queue[T]) upload(ctx context.Context, location string, entry *envelope[T]) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}
	return q.fs.Upload(ctx, location, file.DefaultFileOsMode, bytes.NewBuffer(data))
}

func (q *Queue[T]) download(ctx context.Context, url string) (*envelope[T], error) {
	data, err := q.fs.DownloadWithURL(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to read entry %s: %w", url, err)
	}
	var entry envelope[T]
	if err = json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entry %s: %w", url, err)
	}
	return &entry, nil
}

// ensure Queue implements messaging.Queue interface
var _ messaging.Queue[any] = (*Queue[any])(nil)
