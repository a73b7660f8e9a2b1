package queue

import (
	"errors"
	"sync"

	"dealflow/server/internal/models"

	"github.com/sirupsen/logrus"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

// Handler processes one batch of emails
type Handler func(emails []*models.Email) error

// EmailQueue is an in-memory queue of email batches waiting for appraisal.
// An email whose ID is already queued or being processed is dropped from
// later pushes until its batch has been handled.
type EmailQueue struct {
	items    chan []*models.Email
	stopped  chan struct{}
	maxSize  int
	started  bool
	closed   bool
	mu       sync.RWMutex
	logger   *logrus.Logger
	handlers []Handler

	pendingMu sync.Mutex
	pending   map[string]struct{}
}

// NewEmailQueue creates a new email queue holding up to bufferSize batches
func NewEmailQueue(bufferSize int, logger *logrus.Logger) *EmailQueue {
	if logger == nil {
		logger = logrus.New()
	}
	return &EmailQueue{
		items:   make(chan []*models.Email, bufferSize),
		stopped: make(chan struct{}),
		maxSize: bufferSize,
		logger:  logger,
		pending: make(map[string]struct{}),
	}
}

// Push adds a batch of emails to the queue without blocking. Emails
// already pending are left out; a batch with nothing new is accepted and
// discarded.
func (q *EmailQueue) Push(emails []*models.Email) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	batch := q.claim(emails)
	if len(batch) == 0 {
		q.logger.WithField("dropped", len(emails)).Debug("Batch already pending")
		return nil
	}

	select {
	case q.items <- batch:
		q.logger.WithFields(logrus.Fields{
			"batch_size": len(batch),
			"dropped":    len(emails) - len(batch),
		}).Debug("Pushed batch to queue")
		return nil
	default:
		q.release(batch)
		return ErrQueueFull
	}
}

// claim marks the new emails of a batch as pending and returns them
func (q *EmailQueue) claim(emails []*models.Email) []*models.Email {
	q.pendingMu.Lock()
	defer q.pendingMu.Unlock()

	batch := make([]*models.Email, 0, len(emails))
	for _, email := range emails {
		if email == nil {
			continue
		}
		if _, ok := q.pending[email.ID]; ok {
			continue
		}
		q.pending[email.ID] = struct{}{}
		batch = append(batch, email)
	}
	return batch
}

func (q *EmailQueue) release(emails []*models.Email) {
	q.pendingMu.Lock()
	defer q.pendingMu.Unlock()
	for _, email := range emails {
		delete(q.pending, email.ID)
	}
}

// Pending reports whether an email is queued or being processed
func (q *EmailQueue) Pending(id string) bool {
	q.pendingMu.Lock()
	defer q.pendingMu.Unlock()
	_, ok := q.pending[id]
	return ok
}

// Subscribe adds a handler that will be called for each batch
func (q *EmailQueue) Subscribe(handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = append(q.handlers, handler)
}

// Start begins processing batches in a single goroutine. Calling it more
// than once has no effect.
func (q *EmailQueue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.started = true
	go q.process()
}

func (q *EmailQueue) process() {
	defer close(q.stopped)
	for batch := range q.items {
		q.processBatch(batch)
	}
}

// processBatch sends the batch to all subscribed handlers
func (q *EmailQueue) processBatch(batch []*models.Email) {
	defer q.release(batch)

	q.mu.RLock()
	handlers := q.handlers
	q.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(batch); err != nil {
			q.logger.WithError(err).WithField("batch_size", len(batch)).Error("Handler failed to process batch")
		}
	}
}

// Close stops accepting batches. Once started, it waits for the batches
// already queued to be handled.
func (q *EmailQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.items)
	started := q.started
	q.mu.Unlock()

	if started {
		<-q.stopped
	} else {
		q.logger.WithField("dropped_batches", len(q.items)).Debug("Closed queue before start")
	}
	return nil
}

// Len returns the current number of batches in the queue
func (q *EmailQueue) Len() int {
	return len(q.items)
}

// IsClosed returns whether the queue has been closed
func (q *EmailQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
