package twine

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"k8s.io/klog/v2"
)

// registeredWorker pairs a callback with its opaque user data and the
// thread running it. It is never reassigned after AddWorker constructs it.
type registeredWorker struct {
	callback WorkerCallback
	data     any
	thread   *workerThread
	cpuID    int // physical CPU this worker is pinned to
}

// WorkerPool is the public façade: it owns the barrier, the worker
// collection, and per-core occupancy bookkeeping, and drives the substrate
// selection done once at construction. Ported from WorkerPoolImpl in
// worker_pool_implementation.h.
type WorkerPool struct {
	cfg       Config
	substrate Substrate
	barrier   *TriggeredBarrier

	running atomic.Bool

	// mu guards everything below: the worker collection and per-core
	// occupancy vector are owned exclusively by the coordinator and are
	// never touched by worker threads, but AddWorker may race against
	// itself or against Close from the caller's side.
	mu           sync.Mutex
	workers      []*registeredWorker
	coresUsage   []int
	cores        int
	isolatedCPUs []int // nil unless substrate.IsRealtime()

	closeOnce sync.Once
}

// CreateWorkerPool constructs a pool sized for the given number of cores,
// selecting the substrate based on whether InitRealtime has been called.
// On the realtime substrate it reads and validates the isolated-CPU list;
// an empty or too-small list is a fatal initialisation error
// (ErrIsolatedCPUsExhausted), matching the original's abort() on the same
// condition.
func CreateWorkerPool(cores int, opts ...Option) (*WorkerPool, error) {
	if cores <= 0 {
		return nil, errInvalidConfig("cores must be > 0")
	}

	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	substrate := currentSubstrate()
	p := &WorkerPool{
		cfg:        cfg,
		substrate:  substrate,
		barrier:    NewTriggeredBarrier(substrate),
		coresUsage: make([]int, cores),
		cores:      cores,
	}
	p.running.Store(true)

	if substrate.IsRealtime() {
		text, err := cfg.IsolatedCPUSource.Read()
		if err != nil {
			klog.Errorf("twine: failed to read isolated CPU list: %v", err)
			return nil, errStatus(Error, "failed to read isolated CPU list")
		}
		isolated, err := ParseIsolatedCPUs(text)
		if err != nil {
			klog.Errorf("twine: failed to parse isolated CPU list: %v", err)
			if strings.TrimSpace(text) == "" {
				return nil, ErrIsolatedCPUsExhausted
			}
			return nil, err
		}
		if len(isolated) < cores {
			klog.Errorf("twine: isolated CPU list has %d entries, need at least %d", len(isolated), cores)
			return nil, ErrIsolatedCPUsExhausted
		}
		p.isolatedCPUs = isolated
	}

	return p, nil
}

// addWorkerConfig holds the per-call options AddWorker accepts.
type addWorkerConfig struct {
	priority int
	cpuID    *int // nil means "pick automatically"
}

// AddWorkerOption configures a single AddWorker call.
type AddWorkerOption func(*addWorkerConfig)

// WithPriority overrides the default priority (Config.DefaultPriority, 75
// unless changed) for this worker only.
func WithPriority(priority int) AddWorkerOption {
	return func(c *addWorkerConfig) { c.priority = priority }
}

// WithCPUID pins this worker to a specific logical core instead of letting
// the pool choose automatically. cpuID outside [0, cores) yields
// ErrInvalidCPU from AddWorker, including cpuID == -1.
func WithCPUID(cpuID int) AddWorkerOption {
	return func(c *addWorkerConfig) { c.cpuID = &cpuID }
}

// AddWorker constructs a worker around cb/data, picks its CPU, spawns its
// thread, and blocks until that worker has reached the barrier for the
// first time -- so no subsequent WakeupWorkers can race ahead of it. On any
// failure the worker is dropped and the barrier's participant count and the
// occupancy vector are reverted, leaving the pool in exactly the state it
// was in before the call.
func (p *WorkerPool) AddWorker(cb WorkerCallback, data any, opts ...AddWorkerOption) error {
	if cb == nil {
		return errInvalidConfig("callback must not be nil")
	}

	awc := addWorkerConfig{priority: p.cfg.DefaultPriority}
	for _, opt := range opts {
		opt(&awc)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running.Load() {
		return ErrPoolClosed
	}

	// Refuse to mutate participants mid-cycle instead of leaving the race
	// the original implementation leaves undefined.
	if len(p.workers) > 0 && !p.barrier.AllArrived() {
		klog.Warningf("twine: AddWorker rejected, pool is mid-cycle")
		return ErrMidCycleAddWorker
	}

	logicalCore, physicalCore, err := p.chooseCore(awc.cpuID)
	if err != nil {
		return err
	}

	workerID := len(p.workers)
	thread := newWorkerThread(workerID, p.barrier, p.substrate, cb, data, &p.running, &p.cfg)

	prevParticipants := p.barrier.Participants()
	p.barrier.SetParticipants(prevParticipants + 1)

	if err := thread.run(awc.priority, physicalCore); err != nil {
		p.barrier.SetParticipants(prevParticipants)
		p.coresUsage[logicalCore]--
		return err
	}

	p.workers = append(p.workers, &registeredWorker{
		callback: cb,
		data:     data,
		thread:   thread,
		cpuID:    physicalCore,
	})

	// Wait for the new worker to reach the barrier before returning, so a
	// WakeupWorkers call immediately after AddWorker cannot outrun it.
	p.barrier.WaitForAll()
	return nil
}

// chooseCore picks the logical and physical CPU for a new worker. If
// requested is non-nil it is validated and used directly; otherwise the
// logical core with the least occupancy is picked, scanning from the
// highest index down so ties favour the lower index.
func (p *WorkerPool) chooseCore(requested *int) (logical, physical int, err error) {
	if requested != nil {
		id := *requested
		if id < 0 || id >= p.cores {
			return 0, 0, ErrInvalidCPU
		}
		p.coresUsage[id]++
		return id, p.mapLogicalToPhysical(id), nil
	}

	minIdx := p.cores - 1
	minUsage := p.coresUsage[minIdx]
	for n := p.cores - 1; n >= 0; n-- {
		cur := p.coresUsage[n]
		if cur <= minUsage {
			minUsage = cur
			minIdx = n
		}
	}
	p.coresUsage[minIdx]++
	return minIdx, p.mapLogicalToPhysical(minIdx), nil
}

// mapLogicalToPhysical translates a logical core index into a physical CPU
// number through the isolated-CPU list on the realtime substrate, or
// returns it unchanged on the standard substrate.
func (p *WorkerPool) mapLogicalToPhysical(logical int) int {
	if p.isolatedCPUs != nil {
		return p.isolatedCPUs[logical]
	}
	return logical
}

// WaitForWorkersIdle blocks the coordinator until every worker has arrived
// at the barrier for the current round, returning immediately if they
// already have. Must be called before the first WakeupWorkers and between
// every pair of WakeupWorkers calls.
func (p *WorkerPool) WaitForWorkersIdle() {
	p.barrier.WaitForAll()
}

// WakeupWorkers releases every worker for one cycle. The caller must have
// observed WaitForWorkersIdle return since the last WakeupWorkers call.
func (p *WorkerPool) WakeupWorkers() {
	p.barrier.ReleaseAll()
}

// NumWorkers returns the number of workers currently in the pool.
func (p *WorkerPool) NumWorkers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}

// IsClosed reports whether Close has been called: it turns true once Close
// has cleared the running flag, before the worker threads are joined.
func (p *WorkerPool) IsClosed() bool {
	return !p.running.Load()
}

// Close quiesces all workers, flips the shared running flag, and performs
// one final release so every worker observes running == false and exits its
// loop. Each worker thread then gets a bounded, cooperative join
// (Config.ShutdownTimeout); one that doesn't exit in time is logged rather
// than forcibly killed, since Go provides no safe async-cancel for a locked
// OS thread the way pthread_cancel does. Safe to call more than once; only
// the first call has effect. Close must not race a concurrent AddWorker,
// matching the original's documented precondition.
func (p *WorkerPool) Close() error {
	p.closeOnce.Do(func() {
		p.barrier.WaitForAll()
		p.running.Store(false)
		p.barrier.ReleaseAll()

		p.mu.Lock()
		workers := p.workers
		p.mu.Unlock()

		for _, w := range workers {
			select {
			case <-w.thread.done:
			case <-time.After(p.cfg.ShutdownTimeout):
				klog.Errorf("twine: worker %d did not exit within %s during shutdown", w.thread.id, p.cfg.ShutdownTimeout)
			}
		}
	})
	return nil
}
