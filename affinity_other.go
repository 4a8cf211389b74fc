//go:build !linux

package twine

import "errors"

// errUnsupportedPlatform is returned by platformImpl on GOOS targets where
// this module has no realtime-scheduling/affinity syscalls wired up, rather
// than silently no-op'ing. golang.org/x/sys/unix's CPUSet/SchedSetaffinity
// are themselves Linux-only, so there's no real binding to wire in on other
// GOOS values regardless.
var errUnsupportedPlatform = errors.New("twine: realtime scheduling/affinity unsupported on this platform")

type platformImpl struct{}

func (platformImpl) setRealtimeScheduling(int) error {
	return errUnsupportedPlatform
}

func (platformImpl) setAffinity(int) error {
	return errUnsupportedPlatform
}
