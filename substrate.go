package twine

import "sync"

// Substrate abstracts the underlying mutex / condition variable / thread
// primitives a TriggeredBarrier, WorkerThread, and RtConditionVariable are
// built on. Two concrete substrates exist: std (unnamed mutexes and
// condition variables) and realtime (the same primitives, with isolated-CPU
// bookkeeping layered on top). Worker threads get FIFO scheduling and CPU
// affinity on either substrate. The choice is made once per process by CreateWorkerPool,
// based on whether InitRealtime has been called.
//
// Substrate is a plain interface rather than a compile-time generic
// parameter: the substrate is selected once per pool at construction, not
// on the per-task arrival path, so the cost of an interface call here is
// negligible next to the cost of a virtual call threaded through every
// barrier operation.
type Substrate interface {
	// NewMutex returns a fresh, unlocked mutex.
	NewMutex() *sync.Mutex
	// NewCond returns a condition variable paired with m.
	NewCond(m *sync.Mutex) *sync.Cond
	// NewSemaphore returns a counting semaphore with the given initial
	// count. Not used by TriggeredBarrier or RtConditionVariable -- both
	// are fully served by NewMutex/NewCond -- but retained as one of the
	// substrate's uniform primitives for parity with the original's
	// ThreadSubstrate, which exposes the same operation on every backend it
	// supports.
	NewSemaphore(initial int) *Semaphore
	// IsRealtime reports whether this is the realtime substrate, which
	// turns on the pool's isolated-CPU mapping and the worker's
	// break-on-mode-switch handling.
	IsRealtime() bool
	// name identifies the substrate for logging.
	name() string
}

// Semaphore is a counting semaphore built on sync.Mutex/sync.Cond, the same
// primitives both substrates already use for mutexes and condition
// variables. Wait blocks while the count is zero, then decrements it; Post
// increments the count and wakes one waiter; Close releases the semaphore's
// resources (a no-op here, kept so the type matches the usual
// create/destroy/wait/post shape of a counting semaphore).
type Semaphore struct {
	mu    sync.Mutex
	cond  *sync.Cond
	count int
}

func newSemaphore(initial int) *Semaphore {
	s := &Semaphore{count: initial}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Wait blocks until the count is positive, then decrements it.
func (s *Semaphore) Wait() {
	s.mu.Lock()
	for s.count == 0 {
		s.cond.Wait()
	}
	s.count--
	s.mu.Unlock()
}

// Post increments the count and wakes one waiter, if any.
func (s *Semaphore) Post() {
	s.mu.Lock()
	s.count++
	s.cond.Signal()
	s.mu.Unlock()
}

// Close releases the semaphore. Safe to call once; a nil receiver is a
// no-op.
func (s *Semaphore) Close() {
	if s == nil {
		return
	}
}

// process-wide state, mirroring twine::running_xenomai_realtime /
// twine::ThreadRtFlag in the original implementation.
var (
	realtimeEnabledMu sync.Mutex
	realtimeEnabled   bool
)

// InitRealtime enables the realtime substrate process-wide. It must be
// called before any pool is created to take effect; it is idempotent.
func InitRealtime() {
	realtimeEnabledMu.Lock()
	defer realtimeEnabledMu.Unlock()
	realtimeEnabled = true
}

// realtimeModeEnabled reports whether InitRealtime has been called.
func realtimeModeEnabled() bool {
	realtimeEnabledMu.Lock()
	defer realtimeEnabledMu.Unlock()
	return realtimeEnabled
}

// currentSubstrate selects the substrate for a new pool based on the
// process-wide realtime flag, mirroring WorkerPool::CreateWorkerPool in the
// original implementation.
func currentSubstrate() Substrate {
	if realtimeModeEnabled() {
		return newRealtimeSubstrate()
	}
	return newStdSubstrate()
}

// IsCurrentThreadRealtime reports whether the calling thread is a twine
// worker thread. Go has no language-level thread-local storage, so this is
// backed by the runtime-assigned goroutine id rather than the OS thread id:
// a WorkerThread calls runtime.LockOSThread before registering itself,
// which pins it to one OS thread and makes its goroutine id stable for the
// thread's entire lifetime, the same stability the original's pthread-keyed
// thread_local relies on. Kept portable rather than Linux-only (unix.Gettid
// would work too, but only on Linux). See threadrt.go for the registration
// side.
func IsCurrentThreadRealtime() bool {
	return isRealtimeThread()
}
