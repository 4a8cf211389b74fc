// Package twine provides a fixed-size, barrier-synchronized worker pool for
// realtime-audio-style processing graphs.
//
// Twine is built around a single rendezvous primitive: a two-phase
// TriggeredBarrier that lets one coordinator thread release N worker
// threads for exactly one unit of work per cycle, then wait for all of them
// to finish before releasing the next cycle. There is no task queue and no
// work stealing -- every worker always runs the same callback it was
// registered with, once per cycle, for the lifetime of the pool.
//
// # Quick Start
//
//	cores := runtime.NumCPU()
//	pool, err := twine.CreateWorkerPool(cores)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pool.Close()
//
//	for i := 0; i < cores; i++ {
//	    i := i
//	    pool.AddWorker(func(data any) {
//	        processBlock(i)
//	    }, nil)
//	}
//
//	pool.WaitForWorkersIdle()
//	pool.WakeupWorkers()
//	pool.WaitForWorkersIdle() // blocks until the cycle above completes
//
// # Substrates
//
// On both substrates each worker runs on its own locked OS thread with
// SCHED_FIFO scheduling and a one-CPU affinity mask applied to it. By
// default the pool runs on the standard substrate, built on
// sync.Mutex/sync.Cond. Calling InitRealtime before the first
// CreateWorkerPool switches every subsequently created pool onto the
// realtime substrate, which additionally maps logical cores onto the CPUs
// listed in /sys/devices/system/cpu/isolated and requires that list to hold
// at least as many CPUs as the pool has cores.
//
// # Configuration
//
// Pools and workers are configured with functional options:
//
//	pool, _ := twine.CreateWorkerPool(4,
//	    twine.WithDefaultPriority(90),
//	    twine.WithShutdownTimeout(5*time.Second),
//	)
//
//	pool.AddWorker(cb, nil, twine.WithPriority(95), twine.WithCPUID(2))
//
// # Shutdown
//
// Close quiesces every worker, flips the running flag, and performs one
// final release so each worker observes the flag and exits its loop. Each
// worker then gets a bounded join; a worker that doesn't exit within
// Config.ShutdownTimeout is logged, not killed -- Go has no safe way to
// force an OS thread out of arbitrary user code.
//
//	pool.Close()
package twine
