package worker

import (
	"context"
	"fmt"
	"sync"
)

// Task is one unit of work producing a result of type R
type Task[R any] func(ctx context.Context) R

// Pool runs tasks on a fixed number of goroutines and streams their
// results. Canceling the parent context stops workers after their current
// task. A panicking task is turned into a result by the pool's recover
// function instead of killing the process.
type Pool[R any] struct {
	workers   int
	tasks     chan Task[R]
	results   chan R
	recovered func(err error) R
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewPool creates a pool bound to ctx. recovered builds the result for a
// task that panicked; nil re-panics.
func NewPool[R any](ctx context.Context, workers int, recovered func(err error) R) *Pool[R] {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool[R]{
		workers:   workers,
		tasks:     make(chan Task[R], workers),
		results:   make(chan R, workers),
		recovered: recovered,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start launches the workers
func (p *Pool[R]) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.work()
	}
}

func (p *Pool[R]) work() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			result := p.run(task)
			select {
			case p.results <- result:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

func (p *Pool[R]) run(task Task[R]) (result R) {
	if p.recovered != nil {
		defer func() {
			if v := recover(); v != nil {
				result = p.recovered(fmt.Errorf("task panicked: %v", v))
			}
		}()
	}
	return task(p.ctx)
}

// Submit queues a task, blocking while the queue is full. It returns false
// once the pool has been shut down or its context canceled. Results must
// be drained concurrently or Submit can block forever.
func (p *Pool[R]) Submit(task Task[R]) bool {
	if p.ctx.Err() != nil {
		return false
	}
	select {
	case <-p.ctx.Done():
		return false
	case p.tasks <- task:
		return true
	}
}

// Results streams completed results. The channel is closed after Close
// once every worker has exited, or by Shutdown.
func (p *Pool[R]) Results() <-chan R {
	return p.results
}

// Close stops accepting tasks; Results closes when the workers drain
func (p *Pool[R]) Close() {
	close(p.tasks)
	go func() {
		p.wg.Wait()
		p.closeResults()
	}()
}

// Shutdown cancels in-flight work and closes Results
func (p *Pool[R]) Shutdown() {
	p.cancel()
	p.wg.Wait()
	p.closeResults()
}

func (p *Pool[R]) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}

// Run submits every task and collects their results in completion order
func Run[R any](ctx context.Context, workers int, tasks []Task[R], recovered func(err error) R) []R {
	pool := NewPool(ctx, workers, recovered)
	pool.Start()

	go func() {
		defer pool.Close()
		for _, task := range tasks {
			if !pool.Submit(task) {
				return
			}
		}
	}()

	results := make([]R, 0, len(tasks))
	for r := range pool.Results() {
		results = append(results, r)
	}
	pool.Shutdown()
	return results
}
