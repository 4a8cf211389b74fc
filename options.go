package twine

import (
	"time"

	"github.com/go-logr/logr"
	"k8s.io/klog/v2"
)

// Config holds the construction-time options for a WorkerPool. Callers don't
// build one directly; they pass Options to CreateWorkerPool, which starts
// from DefaultConfig and applies them in order, then calls Validate.
type Config struct {
	// DefaultPriority is used by AddWorker when no explicit priority is
	// given. Matches the original's add_worker default of 75.
	DefaultPriority int

	// DisableDenormals controls whether worker threads flush denormals to
	// zero on entry. Defaults to true, matching the original.
	DisableDenormals bool

	// BreakOnModeSwitch enables mode-switch detection on the realtime
	// substrate only; ignored on the standard substrate.
	BreakOnModeSwitch bool

	// IsolatedCPUSource supplies the isolated-CPU list text on the
	// realtime substrate. Defaults to reading /sys/devices/system/cpu/isolated.
	IsolatedCPUSource IsolatedCPUSource

	// DenormalHandler flushes denormals to zero on worker-thread entry.
	// Defaults to a no-op (see DenormalHandler doc).
	DenormalHandler DenormalHandler

	// ShutdownTimeout bounds the cooperative join each WorkerThread gets
	// during pool teardown before it is logged as leaked. Default 2s.
	ShutdownTimeout time.Duration
}

// Option configures a WorkerPool at construction time.
type Option func(*Config)

// DefaultConfig returns a Config with sensible defaults, matching the
// original's add_worker(priority=75) and disable_denormals=true defaults.
func DefaultConfig() Config {
	return Config{
		DefaultPriority:   75,
		DisableDenormals:  true,
		BreakOnModeSwitch: false,
		IsolatedCPUSource: osIsolatedCPUSource{},
		DenormalHandler:   noopDenormalHandler{},
		ShutdownTimeout:   2 * time.Second,
	}
}

// Validate checks the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.DefaultPriority < 0 || c.DefaultPriority > 100 {
		return errInvalidConfig("DefaultPriority must be in [0, 100]")
	}
	if c.ShutdownTimeout < 0 {
		return errInvalidConfig("ShutdownTimeout must be >= 0")
	}
	if c.IsolatedCPUSource == nil {
		return errInvalidConfig("IsolatedCPUSource must not be nil")
	}
	if c.DenormalHandler == nil {
		return errInvalidConfig("DenormalHandler must not be nil")
	}
	return nil
}

// WithDefaultPriority overrides the priority AddWorker uses when the caller
// doesn't supply one explicitly.
func WithDefaultPriority(p int) Option {
	return func(c *Config) { c.DefaultPriority = p }
}

// WithDisableDenormals controls whether worker threads flush denormals to
// zero on entry.
func WithDisableDenormals(disable bool) Option {
	return func(c *Config) { c.DisableDenormals = disable }
}

// WithBreakOnModeSwitch enables realtime-substrate mode-switch detection.
func WithBreakOnModeSwitch(enable bool) Option {
	return func(c *Config) { c.BreakOnModeSwitch = enable }
}

// WithIsolatedCPUSource substitutes the isolated-CPU list reader, the
// primary seam for testing CPU-isolation behaviour without root or a real
// isolcpus= kernel boot parameter.
func WithIsolatedCPUSource(src IsolatedCPUSource) Option {
	return func(c *Config) {
		if src != nil {
			c.IsolatedCPUSource = src
		}
	}
}

// WithDenormalHandler substitutes the denormals-to-zero collaborator.
func WithDenormalHandler(h DenormalHandler) Option {
	return func(c *Config) {
		if h != nil {
			c.DenormalHandler = h
		}
	}
}

// WithShutdownTimeout bounds how long pool teardown waits for a worker
// thread to exit cooperatively before logging it as leaked.
func WithShutdownTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.ShutdownTimeout = d
		}
	}
}

// WithLogger installs a logr-compatible logger for the klog-backed log
// lines this package emits (worker-thread teardown timeouts, mid-cycle
// add_worker rejections, isolated-CPU parse failures). klog's logger is
// process-wide, the same way InitRealtime's realtime flag is; calling this
// more than once replaces the previous logger.
func WithLogger(l logr.Logger) Option {
	return func(c *Config) {
		klog.SetLogger(l)
	}
}
