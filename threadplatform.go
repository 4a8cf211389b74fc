package twine

// threadPlatform applies realtime FIFO scheduling and CPU affinity to the
// calling OS thread. Implementations must be called after
// runtime.LockOSThread, matching WorkerThread::run in the original, which
// configures pthread_attr_t (SCHED_FIFO, priority, one-CPU affinity mask)
// before thread creation. Go gives no equivalent "attributes before
// creation" hook for an already-running goroutine, so this module applies
// the same settings to the goroutine's locked OS thread from inside the
// thread body instead, immediately after LockOSThread and before the first
// barrier arrival.
type threadPlatform interface {
	// setRealtimeScheduling requests SCHED_FIFO at the given priority
	// (0-100) for the calling thread.
	setRealtimeScheduling(priority int) error
	// setAffinity pins the calling thread to exactly one CPU.
	setAffinity(cpuID int) error
}

// currentThreadPlatform returns the threadPlatform for the running GOOS,
// selected at compile time via affinity_linux.go / affinity_other.go.
func currentThreadPlatform() threadPlatform {
	return platformImpl{}
}
