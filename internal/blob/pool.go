package blob

import "sync"

// dynSemaphore is a counting semaphore with a capacity fixed at
// construction, adapted from cmn/sync.go's DynSemaphore for the worker pool
// used by directory upload/download/sync.
type dynSemaphore struct {
	size int
	cur  int
	c    *sync.Cond
	mu   sync.Mutex
}

func newDynSemaphore(n int) *dynSemaphore {
	s := &dynSemaphore{size: n}
	s.c = sync.NewCond(&s.mu)
	return s
}

func (s *dynSemaphore) acquire() {
	s.mu.Lock()
	for s.cur >= s.size {
		s.c.Wait()
	}
	s.cur++
	s.mu.Unlock()
}

func (s *dynSemaphore) release() {
	s.mu.Lock()
	s.cur--
	s.c.Signal()
	s.mu.Unlock()
}

// workerPool bounds concurrent file transfers to size P (default 10),
// combining a semaphore with a WaitGroup so Wait() blocks until every
// dispatched transfer has finished.
type workerPool struct {
	wg   sync.WaitGroup
	sema *dynSemaphore
}

func newWorkerPool(size int) *workerPool {
	if size <= 0 {
		size = 10
	}
	return &workerPool{sema: newDynSemaphore(size)}
}

// Go runs fn on a pooled goroutine, blocking the caller only when the pool
// is already at capacity.
func (p *workerPool) Go(fn func()) {
	p.sema.acquire()
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.sema.release()
		fn()
	}()
}

func (p *workerPool) Wait() { p.wg.Wait() }
