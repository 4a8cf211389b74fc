//go:build linux

package twine

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// schedFIFO is Linux's SCHED_FIFO policy number. Not exported by the
// vendored golang.org/x/sys/unix in this module's dependency set, so it is
// hardcoded here the way other_examples/tve-devices__thread.go hardcodes
// its own FIFO/RR policy constants for the same raw syscall.
const schedFIFO = 1

// schedParam mirrors struct sched_param's first (and, for SCHED_FIFO, only
// relevant) field.
type schedParam struct {
	priority int32
}

// platformImpl is the Linux threadPlatform: real SCHED_FIFO scheduling via
// the raw sched_setscheduler syscall, grounded on
// other_examples/tve-devices__thread.go's Realtime() (the only place in the
// retrieved corpus that calls SYS_SCHED_SETSCHEDULER directly rather than
// through cgo), and real CPU affinity via unix.SchedSetaffinity, grounded
// on other_examples/utkarsh5026-poolme__affinity_linux.go.
type platformImpl struct{}

func (platformImpl) setRealtimeScheduling(priority int) error {
	param := schedParam{priority: int32(priority)}
	// pid 0 means "the calling thread" for sched_setscheduler, same as the
	// pthread_setschedparam(pthread_self(), ...) call it replaces.
	_, _, errno := unix.Syscall(unix.SYS_SCHED_SETSCHEDULER, 0, uintptr(schedFIFO), uintptr(unsafe.Pointer(&param)))
	if errno != 0 {
		return errno
	}
	return nil
}

func (platformImpl) setAffinity(cpuID int) error {
	var mask unix.CPUSet
	mask.Zero()
	mask.Set(cpuID)
	return unix.SchedSetaffinity(0, &mask)
}
