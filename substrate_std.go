package twine

import "sync"

// stdSubstrate is the standard substrate: plain OS threads (goroutines
// locked via runtime.LockOSThread) plus unnamed mutexes and condition
// variables. It corresponds to the original's non-Xenomai build using
// pthread_mutex_t / pthread_cond_t directly.
type stdSubstrate struct{}

func newStdSubstrate() Substrate {
	return stdSubstrate{}
}

func (stdSubstrate) NewMutex() *sync.Mutex {
	return &sync.Mutex{}
}

func (stdSubstrate) NewCond(m *sync.Mutex) *sync.Cond {
	return sync.NewCond(m)
}

func (stdSubstrate) NewSemaphore(initial int) *Semaphore {
	return newSemaphore(initial)
}

func (stdSubstrate) IsRealtime() bool {
	return false
}

func (stdSubstrate) name() string {
	return "std"
}
