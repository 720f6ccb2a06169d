// Package workerpool runs background side effects (notification mail) on a
// fixed number of goroutines with a bounded queue.
//
//	pool := workerpool.New("mail", 4, 64)
//	defer pool.Shutdown(ctx)
//
//	if err := pool.Submit(func(ctx context.Context) { send(ctx) }); errors.Is(err, workerpool.ErrPoolFull) {
//	    // drop or report; Submit never blocks
//	}
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/decorhub/decorhub/pkg/logger"
)

var (
	ErrPoolFull   = errors.New("workerpool: queue is full")
	ErrPoolClosed = errors.New("workerpool: pool is closed")
)

// Task receives a context that is cancelled if Shutdown gives up waiting.
type Task func(ctx context.Context)

// Pool is a bounded goroutine pool.
type Pool struct {
	name   string
	tasks  chan Task
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// New starts workers goroutines sharing a queue of queueSize pending tasks.
func New(name string, workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		name:   name,
		tasks:  make(chan Task, queueSize),
		ctx:    ctx,
		cancel: cancel,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Submit enqueues task without blocking.
func (p *Pool) Submit(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrPoolFull
	}
}

// Shutdown stops accepting tasks and waits for queued ones to finish. If ctx
// ends first, running tasks see their context cancelled and ctx.Err() is
// returned. Safe to call more than once.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		<-done
		return ctx.Err()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		p.run(task)
	}
}

func (p *Pool) run(task Task) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("workerpool: task panicked", "pool", p.name, "panic", fmt.Sprint(r))
		}
	}()
	task(p.ctx)
}
