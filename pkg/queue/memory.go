package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"EarnScan/pkg/logger"
)

// MemoryQueue runs jobs in-process. It mirrors RedisQueue's retry and
// dead-letter behaviour but loses pending messages on exit.
type MemoryQueue struct {
	logger    *logger.Logger
	config    *QueueConfig
	jobs      map[string]Job
	msgs      chan Message
	dead      []Message
	wg        sync.WaitGroup
	mu        sync.RWMutex
	isRunning bool
	ctx       context.Context
	cancel    context.CancelFunc
	now       func() time.Time
	after     func(d time.Duration, fn func())
}

// NewMemoryQueue creates an in-process queue.
func NewMemoryQueue(lgr *logger.Logger, config *QueueConfig) *MemoryQueue {
	if lgr == nil {
		lgr = logger.Nop()
	}
	cfg := config.withDefaults()
	return &MemoryQueue{
		logger: lgr,
		config: cfg,
		jobs:   make(map[string]Job),
		msgs:   make(chan Message, cfg.QueueSize),
		now:    time.Now,
		after:  func(d time.Duration, fn func()) { time.AfterFunc(d, fn) },
	}
}

// RegisterJob registers a job for its message type. The first registration wins.
func (q *MemoryQueue) RegisterJob(job Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, exists := q.jobs[job.Type()]; exists {
		q.logger.Warn("job already registered", logger.String("job", job.Name()))
		return
	}
	q.jobs[job.Type()] = job
}

// Start launches the workers.
func (q *MemoryQueue) Start() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.isRunning {
		return ErrAlreadyStart
	}
	q.ctx, q.cancel = context.WithCancel(context.Background())
	q.isRunning = true

	for i := 0; i < q.config.Workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.logger.Info("memory queue started", logger.Int("workers", q.config.Workers))
	return nil
}

// Stop cancels the workers and waits for them or for ctx.
func (q *MemoryQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.isRunning {
		q.mu.Unlock()
		return nil
	}
	q.isRunning = false
	q.cancel()
	q.mu.Unlock()

	return waitGroup(ctx, &q.wg, q.logger)
}

// Enqueue adds a message and returns its id. It fails instead of blocking
// when the buffer is full.
func (q *MemoryQueue) Enqueue(_ context.Context, msgType string, payload interface{}) (string, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if !q.isRunning {
		return "", ErrNotRunning
	}
	if _, ok := q.jobs[msgType]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownJob, msgType)
	}

	msg := Message{ID: uuid.NewString(), Type: msgType, Payload: payload, Timestamp: q.now()}
	select {
	case q.msgs <- msg:
		return msg.ID, nil
	default:
		return "", errors.New("queue full")
	}
}

// DeadLetters returns the messages that exhausted their retries.
func (q *MemoryQueue) DeadLetters() []Message {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return append([]Message(nil), q.dead...)
}

func (q *MemoryQueue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case msg := <-q.msgs:
			q.process(msg)
		}
	}
}

func (q *MemoryQueue) process(msg Message) {
	q.mu.RLock()
	job := q.jobs[msg.Type]
	q.mu.RUnlock()

	err := runJob(q.ctx, job, msg, q.logger)
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}

	if msg.Attempts < q.config.RetryLimit {
		msg.Attempts++
		q.after(q.config.RetryDelay, func() { q.requeue(msg) })
		return
	}

	q.logger.Error("max retries reached", logger.String("id", msg.ID), logger.String("job", job.Name()))
	q.mu.Lock()
	q.dead = append(q.dead, msg)
	q.mu.Unlock()
}

func (q *MemoryQueue) requeue(msg Message) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if !q.isRunning {
		return
	}
	select {
	case q.msgs <- msg:
	default:
		q.logger.Warn("queue full, retry dropped", logger.String("id", msg.ID))
	}
}
