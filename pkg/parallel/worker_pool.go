// Package parallel holds the scheduling and lock-free building blocks the
// clustering phases share: a caller-owned worker pool with a batch barrier,
// node-range partitioning, atomic numeric arrays and bitsets, and a
// double-buffered work queue.
package parallel

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
)

// WorkerPool manages a fixed set of worker goroutines. Its lifecycle belongs
// to whoever created it; engines only submit work to it.
type WorkerPool struct {
	workers   int
	taskQueue chan func()
	wg        sync.WaitGroup
	once      sync.Once
	mu        sync.RWMutex // guards taskQueue against close during send
	closed    bool
}

var (
	// ErrTooManyWorkers is returned when the worker count exceeds MaxWorkers.
	ErrTooManyWorkers = errors.New("worker count exceeds maximum")
	// ErrPoolClosed is returned by RunAll on a closed pool.
	ErrPoolClosed = errors.New("worker pool is closed")
)

// MaxWorkers bounds the pool size; the task buffer is twice the worker count.
const MaxWorkers = 1 << 16

// TaskPanicError carries a panic recovered from a task submitted via RunAll.
type TaskPanicError struct {
	Value any
	Stack []byte
}

func (e *TaskPanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

// NewWorkerPool creates a pool with the given number of workers.
// Non-positive counts are treated as 1.
func NewWorkerPool(workers int) (*WorkerPool, error) {
	if workers <= 0 {
		workers = 1
	}
	if workers > MaxWorkers {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrTooManyWorkers, workers, MaxWorkers)
	}

	pool := &WorkerPool{
		workers:   workers,
		taskQueue: make(chan func(), workers*2),
	}
	for i := 0; i < workers; i++ {
		pool.wg.Add(1)
		go pool.worker()
	}
	return pool, nil
}

// Workers returns the number of worker goroutines
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()
	for task := range wp.taskQueue {
		task()
	}
}

func (wp *WorkerPool) submit(task func()) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		return false
	}
	wp.taskQueue <- task
	return true
}

// RunAll executes every task on the pool and blocks until all of them have
// finished. It is the barrier between clustering phases. Tasks must not call
// RunAll on the same pool. The first recovered panic is returned as a
// *TaskPanicError once every task has completed.
func (wp *WorkerPool) RunAll(tasks ...func()) error {
	if len(tasks) == 0 {
		return nil
	}

	var (
		batch    sync.WaitGroup
		panicMu  sync.Mutex
		panicErr error
	)
	batch.Add(len(tasks))
	for _, task := range tasks {
		task := task
		ok := wp.submit(func() {
			defer batch.Done()
			defer func() {
				if r := recover(); r != nil {
					panicMu.Lock()
					if panicErr == nil {
						panicErr = &TaskPanicError{Value: r, Stack: debug.Stack()}
					}
					panicMu.Unlock()
				}
			}()
			task()
		})
		if !ok {
			batch.Done()
			panicMu.Lock()
			if panicErr == nil {
				panicErr = ErrPoolClosed
			}
			panicMu.Unlock()
		}
	}
	batch.Wait()
	return panicErr
}

// Close stops accepting tasks and waits for queued tasks to drain.
// It is safe to call more than once and from several goroutines.
func (wp *WorkerPool) Close() {
	wp.once.Do(func() {
		wp.mu.Lock()
		wp.closed = true
		close(wp.taskQueue)
		wp.mu.Unlock()
	})
	wp.wg.Wait()
}
