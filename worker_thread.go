package twine

import (
	"runtime"
	"sync/atomic"
	"syscall"

	"k8s.io/klog/v2"
)

// WorkerCallback is invoked exactly once per cycle by its owning
// WorkerThread. data is the opaque pointer supplied to AddWorker, passed
// through unchanged -- the Go analogue of the original's
// `void (*WorkerCallback)(void* data)`.
type WorkerCallback func(data any)

// workerThread owns one OS thread for the lifetime of the pool. Ported from
// WorkerThread in worker_pool_implementation.h: arrive at the barrier, wait
// for release, run the callback, repeat, until running goes false.
type workerThread struct {
	id        int
	barrier   *TriggeredBarrier
	substrate Substrate
	platform  threadPlatform

	callback WorkerCallback
	data     any

	running *atomic.Bool
	cfg     *Config

	priority int
	cpuID    int

	done chan struct{}
}

func newWorkerThread(id int, barrier *TriggeredBarrier, substrate Substrate, cb WorkerCallback, data any, running *atomic.Bool, cfg *Config) *workerThread {
	return &workerThread{
		id:        id,
		barrier:   barrier,
		substrate: substrate,
		platform:  currentThreadPlatform(),
		callback:  cb,
		data:      data,
		running:   running,
		cfg:       cfg,
		done:      make(chan struct{}),
	}
}

// run validates priority, launches the worker's OS thread, and blocks until
// that thread has applied its scheduling attributes and CPU affinity,
// returning the outcome. This plays the synchronous role pthread_create
// plays in the original: there, an insufficient-privilege failure to honor
// the pthread_attr_t's SCHED_FIFO/priority surfaces from pthread_create
// itself; here, those attributes can only be applied from inside the new
// goroutine after it locks its OS thread, so run() waits for that
// goroutine's first handshake before returning.
func (w *workerThread) run(priority, cpuID int) error {
	if priority < 0 || priority > 100 {
		return ErrInvalidPriority
	}
	w.priority = priority
	w.cpuID = cpuID

	ready := make(chan error, 1)
	go w.loop(ready)
	return <-ready
}

func (w *workerThread) loop(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	markCurrentThreadRealtime()
	defer clearCurrentThreadRealtime()

	// Realtime scheduling and CPU affinity are applied on both substrates,
	// exactly as in the original (they live outside the substrate template
	// parameter in WorkerThread::run).
	if err := w.platform.setRealtimeScheduling(w.priority); err != nil {
		ready <- errWorker(w.id, errnoToStatus(err), err)
		return
	}
	if err := w.platform.setAffinity(w.cpuID); err != nil {
		ready <- errWorker(w.id, errnoToStatus(err), err)
		return
	}

	if w.cfg.DisableDenormals {
		w.cfg.DenormalHandler.FlushToZero()
	}
	if w.substrate.IsRealtime() && w.cfg.BreakOnModeSwitch {
		// Mode-switch detection (pthread_setmode_np(PTHREAD_WARNSW) in the
		// original) traps on a kernel-level EVL/Xenomai mode switch; Go's
		// runtime gives a goroutine no equivalent hook to trap on, so this
		// only logs the request instead of enforcing it.
		klog.V(2).Infof("twine: worker %d requested break-on-mode-switch, unsupported on this substrate", w.id)
	}

	close(ready)

	for {
		w.barrier.ArriveAndWait()
		if !w.running.Load() {
			break
		}
		w.callback(w.data)
	}

	close(w.done)
}

// errnoToStatus maps a raw syscall errno to the Status taxonomy, matching
// errno_to_worker_status in the original.
func errnoToStatus(err error) Status {
	if errno, ok := err.(syscall.Errno); ok {
		switch errno {
		case syscall.EAGAIN:
			return LimitExceeded
		case syscall.EPERM:
			return PermissionDenied
		case syscall.EINVAL:
			return InvalidArguments
		}
	}
	return Error
}
