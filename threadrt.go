package twine

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// realtimeThreads tracks which goroutines currently belong to a twine worker
// thread, standing in for the thread_local bool the original C++ sets on
// entry to each worker thread's body. Go has no thread-local storage, but a
// WorkerThread's goroutine is locked to one OS thread for its entire
// lifetime (runtime.LockOSThread), so keying on goroutine id gives the same
// stability the original gets from keying on pthread identity. Entries are
// added by markCurrentThreadRealtime (called once, from the worker's own
// goroutine, right after LockOSThread) and removed by
// clearCurrentThreadRealtime at thread exit.
var (
	realtimeThreadsMu sync.RWMutex
	realtimeThreads   = make(map[int64]struct{})
)

// markCurrentThreadRealtime records the calling goroutine as realtime.
func markCurrentThreadRealtime() {
	id := goroutineID()
	realtimeThreadsMu.Lock()
	realtimeThreads[id] = struct{}{}
	realtimeThreadsMu.Unlock()
}

// clearCurrentThreadRealtime removes the calling goroutine's registration.
func clearCurrentThreadRealtime() {
	id := goroutineID()
	realtimeThreadsMu.Lock()
	delete(realtimeThreads, id)
	realtimeThreadsMu.Unlock()
}

// isRealtimeThread reports whether the calling goroutine is registered.
func isRealtimeThread() bool {
	id := goroutineID()
	realtimeThreadsMu.RLock()
	_, ok := realtimeThreads[id]
	realtimeThreadsMu.RUnlock()
	return ok
}

// goroutineID extracts the runtime-assigned goroutine id from the header
// line of a stack trace ("goroutine 123 [running]:"). This is the same
// trick small goroutine-local-storage shims use; it is only ever called on
// the cold paths here (thread registration, not the barrier arrival path),
// so the cost of one small stack capture per call is immaterial.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return -1
	}
	return id
}
