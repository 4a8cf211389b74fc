package twine

import "sync"

// TriggeredBarrier is the two-phase rendezvous shared by the coordinator and
// the N worker threads. Workers arrive and block until released; the
// coordinator can wait for all arrivals and release all workers as distinct
// operations. It is the Go port of BarrierWithTrigger in
// worker_pool_implementation.h.
//
// Two mutexes guard disjoint state, matching the original's _calling_mutex
// (coordinator-side) and _thread_mutex (thread-side):
//   - callingMu/callingCond: guards participants/arrived, signalled when
//     arrived reaches participants, waited on by WaitForAll.
//   - threadMu/threadCond: guards the halt-flag pair, broadcast by
//     ReleaseAll, waited on by ArriveAndWait.
//
// Any operation taking both mutexes takes callingMu first and releases
// threadMu first (see ReleaseAll) -- the only lock-order rule this type
// must respect.
type TriggeredBarrier struct {
	callingMu   *sync.Mutex
	callingCond *sync.Cond

	threadMu   *sync.Mutex
	threadCond *sync.Cond

	participants int
	arrived      int

	// haltFlags is the double-halt-flag scheme: the active flag is true
	// while the barrier is in the "waiting to be released" phase.
	// activeHalt indexes the currently active flag;
	// ArriveAndWait captures this index while holding callingMu so a
	// worker's wait predicate never points at a flag ReleaseAll has
	// already swapped away from.
	haltFlags  [2]bool
	activeHalt int
}

// NewTriggeredBarrier creates a barrier with zero participants, matching
// WorkerPoolImpl's default-constructed _barrier.
func NewTriggeredBarrier(substrate Substrate) *TriggeredBarrier {
	callingMu := substrate.NewMutex()
	threadMu := substrate.NewMutex()
	b := &TriggeredBarrier{
		callingMu:   callingMu,
		callingCond: substrate.NewCond(callingMu),
		threadMu:    threadMu,
		threadCond:  substrate.NewCond(threadMu),
	}
	b.haltFlags[0] = true
	b.haltFlags[1] = true
	return b
}

// SetParticipants atomically sets the expected arrival count for the next
// round. Safe only between a ReleaseAll and the next round of arrivals (in
// practice, while the pool has quiesced all workers via WaitForAll).
func (b *TriggeredBarrier) SetParticipants(n int) {
	b.callingMu.Lock()
	b.participants = n
	b.callingMu.Unlock()
}

// Participants returns the current expected arrival count.
func (b *TriggeredBarrier) Participants() int {
	b.callingMu.Lock()
	defer b.callingMu.Unlock()
	return b.participants
}

// AllArrived reports, without blocking, whether every participant has
// arrived for the current round. Used by WorkerPool.AddWorker to enforce
// an "add only while quiesced" precondition instead of leaving mid-cycle
// AddWorker behaviour undefined.
func (b *TriggeredBarrier) AllArrived() bool {
	b.callingMu.Lock()
	defer b.callingMu.Unlock()
	return b.arrived == b.participants
}

// ArriveAndWait is the worker side of the rendezvous: arrive, signal the
// coordinator if this is the last arrival, then block until released.
func (b *TriggeredBarrier) ArriveAndWait() {
	b.callingMu.Lock()
	haltFlag := b.activeHalt // capture while holding callingMu, see struct doc
	b.arrived++
	if b.arrived == b.participants {
		b.callingCond.Signal()
	}
	b.callingMu.Unlock()

	b.threadMu.Lock()
	for b.haltFlags[haltFlag] {
		// Rechecked on every wake: sync.Cond delivers no guarantee against
		// spurious or batched wakeups, same caution the original takes
		// around its pthread_cond_wait loop.
		b.threadCond.Wait()
	}
	b.threadMu.Unlock()
}

// WaitForAll is the coordinator side: block until every participant has
// arrived for the current round, or return immediately if they already
// have.
func (b *TriggeredBarrier) WaitForAll() {
	b.callingMu.Lock()
	for b.arrived != b.participants {
		b.callingCond.Wait()
	}
	b.callingMu.Unlock()
}

// ReleaseAll releases every worker currently parked in ArriveAndWait for one
// round. Calling it before every participant has arrived is a programming
// error and panics, matching the original's assert(_no_threads_currently_on_barrier
// == _no_threads).
func (b *TriggeredBarrier) ReleaseAll() {
	b.callingMu.Lock()
	if b.arrived != b.participants {
		b.callingMu.Unlock()
		panic("twine: ReleaseAll called before all participants arrived")
	}
	b.arrived = 0

	// The thread-side lock is held deliberately around the broadcast: on a
	// kernel-backed realtime substrate this is required to avoid deadlocks,
	// and on the standard substrate it is retained for deterministic
	// wakeup ordering.
	b.threadMu.Lock()
	b.swapHaltFlags()
	b.threadCond.Broadcast()
	b.threadMu.Unlock()
	b.callingMu.Unlock()
}

// swapHaltFlags must be called with both callingMu (which guards
// activeHalt) and threadMu (which guards haltFlags) held.
func (b *TriggeredBarrier) swapHaltFlags() {
	b.haltFlags[b.activeHalt] = false
	b.activeHalt = 1 - b.activeHalt
	b.haltFlags[b.activeHalt] = true
}
