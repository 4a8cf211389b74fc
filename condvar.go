package twine

import "sync"

// MaxConditionVariables bounds the number of outstanding RtConditionVariable
// instances, mirroring the substrate-dependent device-slot ceiling the
// original EVL substrate imposes. It can be changed with
// SetMaxConditionVariables before the first NewRtConditionVariable call.
var MaxConditionVariables = 256

var (
	condVarCountMu sync.Mutex
	condVarCount   int
)

// SetMaxConditionVariables overrides MaxConditionVariables. Intended to be
// called once, during process setup, before any RtConditionVariable exists.
func SetMaxConditionVariables(n int) {
	condVarCountMu.Lock()
	defer condVarCountMu.Unlock()
	MaxConditionVariables = n
}

// RtConditionVariable is a one-shot notify/wait channel, realtime-safe on
// the notifying side: notify() is a bounded, page-fault-free operation. It
// is used to wake a non-realtime consumer from realtime-adjacent code, and
// shares no state with TriggeredBarrier.
//
// Ported from PosixConditionVariable in condition_variable_implementation.h.
// There is at most one waiter at a time; Wait loops on the underlying
// sync.Cond, tightening the single, non-looping wait the original performs
// into a loop that defends against spurious wakeups, without changing
// observable behaviour.
type RtConditionVariable struct {
	mu       sync.Mutex
	cond     *sync.Cond
	notified bool
}

// NewRtConditionVariable creates a condition variable for the current
// substrate. Returns ErrConditionVariableLimit once MaxConditionVariables
// instances are outstanding; callers must call Close to release a slot.
func NewRtConditionVariable() (*RtConditionVariable, error) {
	condVarCountMu.Lock()
	if condVarCount >= MaxConditionVariables {
		condVarCountMu.Unlock()
		return nil, ErrConditionVariableLimit
	}
	condVarCount++
	condVarCountMu.Unlock()

	cv := &RtConditionVariable{}
	cv.cond = sync.NewCond(&cv.mu)
	return cv, nil
}

// Close releases this instance's slot against MaxConditionVariables. Safe
// to call once; a nil receiver is a no-op.
func (cv *RtConditionVariable) Close() {
	if cv == nil {
		return
	}
	condVarCountMu.Lock()
	if condVarCount > 0 {
		condVarCount--
	}
	condVarCountMu.Unlock()
}

// Notify sets the notified flag and wakes the (at most one) waiter. Bounded
// and allocation-free, safe to call from realtime code.
func (cv *RtConditionVariable) Notify() {
	cv.mu.Lock()
	cv.notified = true
	cv.cond.Signal()
	cv.mu.Unlock()
}

// Wait blocks until Notify has been called at least once since the previous
// Wait returned, then clears the flag and returns true.
func (cv *RtConditionVariable) Wait() bool {
	cv.mu.Lock()
	for !cv.notified {
		cv.cond.Wait()
	}
	notified := cv.notified
	cv.notified = false
	cv.mu.Unlock()
	return notified
}
