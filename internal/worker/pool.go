package worker

import (
	"context"
	"fmt"
	"sync"
)

// Pool runs scan jobs on a fixed number of workers. Results arrive in
// completion order; BatchProcessor restores input order.
type Pool struct {
	workers int
	jobs    chan *ScanJob
	results chan *BatchResult
	wg      sync.WaitGroup

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewPool creates a pool whose scans run under a context derived from parent
func NewPool(parent context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(parent)

	return &Pool{
		workers: workers,
		jobs:    make(chan *ScanJob, workers*2),
		results: make(chan *BatchResult, workers*2),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the workers
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			select {
			case p.results <- p.run(job):
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// run executes one job. A panicking scan fails only its own URL.
func (p *Pool) run(job *ScanJob) (r *BatchResult) {
	defer func() {
		if v := recover(); v != nil {
			r = &BatchResult{Index: job.Index, URL: job.URL, Error: fmt.Errorf("scan %s panicked: %v", job.URL, v)}
		}
	}()
	return job.Execute(p.ctx)
}

// Submit queues a scan. It reports false when the pool has been cancelled.
func (p *Pool) Submit(job *ScanJob) bool {
	if p.ctx.Err() != nil {
		return false
	}
	select {
	case <-p.ctx.Done():
		return false
	case p.jobs <- job:
		return true
	}
}

// Results exposes finished scans as they complete. It is closed after
// Close (or Shutdown) once every worker has exited.
func (p *Pool) Results() <-chan *BatchResult {
	return p.results
}

// Close stops accepting scans; workers exit once the queue drains
func (p *Pool) Close() {
	close(p.jobs)
	go func() {
		p.wg.Wait()
		p.closeResults()
		p.cancel()
	}()
}

// Shutdown cancels in-flight scans and stops the workers
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
	p.closeResults()
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
