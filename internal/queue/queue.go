package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"rentalmap/internal/models"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

// Handler processes one batch of properties
type Handler func(batch []*models.Property) error

// PropertyQueue is an in-memory queue of property batches feeding the
// seed importer. Batches are dispatched in push order.
type PropertyQueue struct {
	items    chan []*models.Property
	closing  chan struct{}
	drained  chan struct{}
	maxSize  int
	closed   bool
	mu       sync.RWMutex
	once     sync.Once
	logger   *logrus.Logger
	handlers []Handler
}

// NewPropertyQueue creates a new property queue with the specified buffer size
func NewPropertyQueue(bufferSize int, logger *logrus.Logger) *PropertyQueue {
	if bufferSize < 1 {
		bufferSize = 1
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return &PropertyQueue{
		items:   make(chan []*models.Property, bufferSize),
		closing: make(chan struct{}),
		drained: make(chan struct{}),
		maxSize: bufferSize,
		logger:  logger,
	}
}

// TryPush adds a batch without blocking
func (q *PropertyQueue) TryPush(batch []*models.Property) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.items <- batch:
		q.logger.WithField("batch_size", len(batch)).Debug("Pushed batch to queue")
		return nil
	default:
		return ErrQueueFull
	}
}

// Push adds a batch, waiting for room until ctx is done or the queue closes
func (q *PropertyQueue) Push(ctx context.Context, batch []*models.Property) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.items <- batch:
		q.logger.WithField("batch_size", len(batch)).Debug("Pushed batch to queue")
		return nil
	case <-q.closing:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe adds a handler that will be called for each batch. Handlers
// must be registered before Start.
func (q *PropertyQueue) Subscribe(handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = append(q.handlers, handler)
}

// Start begins dispatching batches to the subscribed handlers
func (q *PropertyQueue) Start() {
	go q.process()
}

func (q *PropertyQueue) process() {
	defer close(q.drained)
	for batch := range q.items {
		q.dispatch(batch)
	}
}

// dispatch sends the batch to all subscribed handlers
func (q *PropertyQueue) dispatch(batch []*models.Property) {
	q.mu.RLock()
	handlers := q.handlers
	q.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(batch); err != nil {
			q.logger.WithError(err).WithField("batch_size", len(batch)).Error("Handler failed to process batch")
		}
	}
}

// Close stops accepting batches. Batches already queued are still dispatched.
func (q *PropertyQueue) Close() error {
	q.once.Do(func() {
		close(q.closing)
		q.mu.Lock()
		q.closed = true
		close(q.items)
		q.mu.Unlock()
	})
	return nil
}

// Wait blocks until the queue is closed and every queued batch dispatched
func (q *PropertyQueue) Wait(ctx context.Context) error {
	select {
	case <-q.drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len returns the current number of batches in the queue
func (q *PropertyQueue) Len() int {
	return len(q.items)
}

// IsClosed returns whether the queue has been closed
func (q *PropertyQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
