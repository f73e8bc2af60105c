package jobs

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Job is a unit of delayed work, e.g. expiring an unpaid order.
type Job struct {
	Key      string
	RunAt    time.Time
	Attempts int
	Fn       func() error
}

// Queue holds delayed jobs until they come due. Jobs that fail are retried
// with a fixed backoff up to maxAttempts.
type Queue struct {
	items       []*Job
	maxAttempts int
	backoff     time.Duration
	mu          sync.Mutex
}

func NewQueue() *Queue {
	return &Queue{maxAttempts: 3, backoff: time.Minute}
}

func (q *Queue) Enqueue(key string, runAt time.Time, fn func() error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, &Job{Key: key, RunAt: runAt, Fn: fn})
}

// Dequeue pops the first due job, or nil if nothing is due yet.
func (q *Queue) Dequeue() *Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	for i, job := range q.items {
		if !job.RunAt.After(now) {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return job
		}
	}
	return nil
}

func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) requeue(job *Job) bool {
	if job.Attempts >= q.maxAttempts {
		return false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	job.RunAt = time.Now().Add(q.backoff)
	q.items = append(q.items, job)
	return true
}

// Run drains due jobs on the given interval until stop is closed.
func (q *Queue) Run(interval time.Duration, stop <-chan struct{}, logger zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			for {
				job := q.Dequeue()
				if job == nil {
					break
				}
				job.Attempts++
				if err := job.Fn(); err != nil {
					if q.requeue(job) {
						logger.Warn().Err(err).Str("job", job.Key).Int("attempt", job.Attempts).Msg("job failed, requeued")
					} else {
						logger.Error().Err(err).Str("job", job.Key).Msg("job failed, giving up")
					}
				}
			}
		}
	}
}
