package engine

import (
	"context"
	"sync"
)

// task is the unit of work dispatched to a worker.
type task[T any] struct {
	payload T
}

// workerPool is a fixed-size goroutine pool with a bounded input queue.
// Every processed task is handed to done together with its result.
type workerPool[T, R any] struct {
	queue   chan task[T]
	process func(ctx context.Context, t T) (R, error)
	done    func(t T, r R, err error)
	wg      sync.WaitGroup
	once    sync.Once
}

// newWorkerPool creates and starts a pool with n goroutines and queue capacity cap.
// done may be nil.
func newWorkerPool[T, R any](ctx context.Context, n, cap int, fn func(context.Context, T) (R, error), done func(T, R, error)) *workerPool[T, R] {
	p := &workerPool[T, R]{
		queue:   make(chan task[T], cap),
		process: fn,
		done:    done,
	}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.run(ctx)
		}()
	}
	return p
}

func (p *workerPool[T, R]) run(ctx context.Context) {
	for {
		select {
		case t, ok := <-p.queue:
			if !ok {
				return
			}
			r, err := p.process(ctx, t.payload)
			if p.done != nil {
				p.done(t.payload, r, err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Submit enqueues a task without blocking (returns false if full).
func (p *workerPool[T, R]) Submit(t T) bool {
	select {
	case p.queue <- task[T]{payload: t}:
		return true
	default:
		return false
	}
}

// Drain closes the queue and waits for all workers to finish.
func (p *workerPool[T, R]) Drain() {
	p.once.Do(func() { close(p.queue) })
	p.wg.Wait()
}

// QueueLen returns how many tasks are currently queued.
func (p *workerPool[T, R]) QueueLen() int {
	return len(p.queue)
}

// QueueCap returns the total queue capacity.
func (p *workerPool[T, R]) QueueCap() int {
	return cap(p.queue)
}
