package twine

import "sync"

// realtimeSubstrate is the EVL/Xenomai-style substrate. The original C++
// backs this substrate with evl_mutex/evl_event, kernel objects with no Go
// binding available anywhere; this re-implementation keeps the same
// sync.Mutex/sync.Cond primitives as the std substrate and instead captures
// the parts of "realtime substrate" that are observable from Go: IsRealtime()
// gates the isolated-CPU bookkeeping in WorkerPool, and WorkerThread still
// applies real FIFO scheduling and CPU affinity on both substrates, exactly
// as the original does (those are pthread_attr calls outside the substrate
// template parameter in the original too -- see worker_pool_implementation.h
// WorkerThread::run).
type realtimeSubstrate struct{}

func newRealtimeSubstrate() Substrate {
	return realtimeSubstrate{}
}

func (realtimeSubstrate) NewMutex() *sync.Mutex {
	return &sync.Mutex{}
}

func (realtimeSubstrate) NewCond(m *sync.Mutex) *sync.Cond {
	return sync.NewCond(m)
}

func (realtimeSubstrate) NewSemaphore(initial int) *Semaphore {
	return newSemaphore(initial)
}

func (realtimeSubstrate) IsRealtime() bool {
	return true
}

func (realtimeSubstrate) name() string {
	return "realtime"
}
