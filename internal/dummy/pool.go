package dummy

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

var ErrPoolClosed = errors.New("pool closed")

// Executor runs jobs on behalf of request handlers.
type Executor interface {
	// Execute blocks until job has run or ctx is done.
	Execute(ctx context.Context, job func()) error
	Close()
}

// BoundedPool feeds a fixed number of workers from a queue holding at most
// capacity pending jobs. Submitters block while the queue is full.
type BoundedPool struct {
	jobs chan func()
	wg   sync.WaitGroup
	once sync.Once
}

func NewBoundedPool(workers, capacity int) *BoundedPool {
	if workers < 1 {
		workers = 1
	}
	if capacity < 1 {
		capacity = 1
	}
	p := &BoundedPool{jobs: make(chan func(), capacity)}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				job()
			}
		}()
	}
	return p
}

func (p *BoundedPool) Execute(ctx context.Context, job func()) error {
	done := make(chan struct{})
	wrapped := func() {
		defer close(done)
		job()
	}
	select {
	case p.jobs <- wrapped:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *BoundedPool) Close() {
	p.once.Do(func() { close(p.jobs) })
	p.wg.Wait()
}

// LockedPool feeds workers from an unbounded mutex-guarded queue.
type LockedPool struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []func()
	closed  bool
	wg      sync.WaitGroup
}

func NewLockedPool(workers int) *LockedPool {
	if workers < 1 {
		workers = 1
	}
	p := &LockedPool{}
	p.cond = sync.NewCond(&p.mu)
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.work()
	}
	return p
}

func (p *LockedPool) work() {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.pending) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.pending) == 0 {
			p.mu.Unlock()
			return
		}
		job := p.pending[0]
		p.pending = p.pending[1:]
		p.mu.Unlock()
		job()
	}
}

func (p *LockedPool) Execute(ctx context.Context, job func()) error {
	done := make(chan struct{})
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	p.pending = append(p.pending, func() {
		defer close(done)
		job()
	})
	p.mu.Unlock()
	p.cond.Signal()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *LockedPool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cond.Broadcast()
	p.wg.Wait()
}

// perRequest runs every job on the calling goroutine.
type perRequest struct{}

func (perRequest) Execute(_ context.Context, job func()) error {
	job()
	return nil
}

func (perRequest) Close() {}
