// Package worker provides a small fixed-size worker pool. The background
// refresher uses it to regenerate every tracked domain's payloads without
// unbounded goroutine fan-out.
package worker

import (
	"context"
	"sync"
)

// Job is a unit of work. ID identifies the job in results and logs.
type Job struct {
	ID      string
	Execute func(ctx context.Context) error
}

// Result reports one job's outcome.
type Result struct {
	JobID string
	Err   error
}

// Pool runs jobs on a fixed number of worker goroutines pulling from a
// shared queue.
type Pool struct {
	workers  int
	jobQueue chan Job
	results  chan Result
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewPool starts a pool with the given worker count and queue capacity.
// Non-positive workers default to 1; negative queue sizes to 0.
func NewPool(ctx context.Context, workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}

	poolCtx, cancel := context.WithCancel(ctx)
	p := &Pool{
		workers:  workers,
		jobQueue: make(chan Job, queueSize),
		results:  make(chan Result, queueSize),
		ctx:      poolCtx,
		cancel:   cancel,
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job := <-p.jobQueue:
			err := job.Execute(p.ctx)
			select {
			case p.results <- Result{JobID: job.ID, Err: err}:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a job, blocking while the queue is full. Returns the pool
// context's error if the pool is shutting down.
func (p *Pool) Submit(job Job) error {
	select {
	case <-p.ctx.Done():
		return p.ctx.Err()
	case p.jobQueue <- job:
		return nil
	}
}

// RunAll submits the jobs and waits until each has produced a result.
// Results arrive in completion order, not submission order. Shutting the
// pool down mid-batch returns the partial results collected so far.
// Submission runs concurrently with result draining, so a batch may be
// larger than the queue without deadlocking.
func (p *Pool) RunAll(jobs []Job) []Result {
	done := make(chan int, 1)
	go func() {
		n := 0
		for _, job := range jobs {
			if err := p.Submit(job); err != nil {
				break
			}
			n++
		}
		done <- n
	}()

	results := make([]Result, 0, len(jobs))
	expected := -1
	for expected == -1 || len(results) < expected {
		select {
		case <-p.ctx.Done():
			return results
		case n := <-done:
			expected = n
		case r := <-p.results:
			results = append(results, r)
		}
	}
	return results
}

// Workers returns the worker count.
func (p *Pool) Workers() int {
	return p.workers
}

// Close stops the workers and waits for them to exit. Queued jobs that no
// worker picked up are discarded. The queue channel is left open so a
// racing Submit fails on the cancelled context instead of panicking.
func (p *Pool) Close() {
	p.cancel()
	p.wg.Wait()
}
