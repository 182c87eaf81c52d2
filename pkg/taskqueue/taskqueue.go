// Package taskqueue implements a bounded fire-and-forget worker pool for
// background tasks. Callers submit work and return immediately; results are
// never awaited. Failed tasks are logged and discarded.
package taskqueue

import (
	"context"
	"sync"
	"time"

	"github.com/lewisedginton/persona_chatbot/pkg/logger"
	"github.com/lewisedginton/persona_chatbot/pkg/metrics"
)

// Task is a unit of background work. The context carries the pool's
// per-task timeout.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Config holds configuration for the task queue.
type Config struct {
	Workers     int           // number of worker goroutines (default 3)
	QueueSize   int           // buffered queue capacity (default 64)
	TaskTimeout time.Duration // per-task timeout (default 30s)
	Logger      logger.Logger
	Metrics     *metrics.Metrics // optional
}

// Queue is a fixed-size worker pool consuming a bounded task channel.
// When the queue is full, Submit drops the task and logs it: background
// work is best-effort and must never block the request path.
type Queue struct {
	tasks   chan Task
	timeout time.Duration
	log     logger.Logger
	metrics *metrics.Metrics

	wg      sync.WaitGroup
	closeMu sync.Mutex
	closed  bool
}

// New creates a task queue and starts its workers.
func New(cfg Config) *Queue {
	if cfg.Logger == nil {
		panic("logger cannot be nil")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 3
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 30 * time.Second
	}

	q := &Queue{
		tasks:   make(chan Task, cfg.QueueSize),
		timeout: cfg.TaskTimeout,
		log:     cfg.Logger,
		metrics: cfg.Metrics,
	}

	for i := 0; i < cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}

	q.log.Info("Task queue started",
		logger.IntField("workers", cfg.Workers),
		logger.IntField("queue_size", cfg.QueueSize))

	return q
}

// Submit enqueues a task without blocking. Returns true if the task was
// accepted, false if it was dropped because the queue is full or closed.
func (q *Queue) Submit(name string, run func(ctx context.Context) error) bool {
	q.closeMu.Lock()
	if q.closed {
		q.closeMu.Unlock()
		q.log.Warn("Task rejected, queue closed", logger.StringField("task", name))
		return false
	}
	defer q.closeMu.Unlock()

	select {
	case q.tasks <- Task{Name: name, Run: run}:
		return true
	default:
		q.log.Warn("Task dropped, queue full", logger.StringField("task", name))
		if q.metrics != nil {
			q.metrics.IncrementTaskCounter(metrics.TaskMetricTotalDropped)
		}
		return false
	}
}

// Close stops accepting tasks, drains the queue and waits for workers to
// finish their current task.
func (q *Queue) Close() {
	q.closeMu.Lock()
	if q.closed {
		q.closeMu.Unlock()
		return
	}
	q.closed = true
	close(q.tasks)
	q.closeMu.Unlock()

	q.wg.Wait()
	q.log.Info("Task queue stopped")
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()

	for task := range q.tasks {
		q.runTask(id, task)
	}
}

func (q *Queue) runTask(workerID int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Error("Task panicked",
				logger.StringField("task", task.Name),
				logger.Field("panic", r))
			if q.metrics != nil {
				q.metrics.IncrementTaskCounter(metrics.TaskMetricTotalFailed)
			}
		}
	}()

	if q.metrics != nil {
		q.metrics.IncrementTaskCounter(metrics.TaskMetricTotal)
	}

	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	start := time.Now()
	if err := task.Run(ctx); err != nil {
		q.log.Warn("Task failed",
			logger.StringField("task", task.Name),
			logger.IntField("worker", workerID),
			logger.ErrorField(err))
		if q.metrics != nil {
			q.metrics.IncrementTaskCounter(metrics.TaskMetricTotalFailed)
		}
		return
	}

	q.log.Debug("Task completed",
		logger.StringField("task", task.Name),
		logger.DurationField("duration", time.Since(start)))
	if q.metrics != nil {
		q.metrics.IncrementTaskCounter(metrics.TaskMetricTotalSuccess)
	}
}
