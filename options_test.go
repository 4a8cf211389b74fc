package twine

import "testing"

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig() fails Validate: %v", err)
	}
}

func TestConfigValidateRejectsBadPriority(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultPriority = 101
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate accepted DefaultPriority = 101")
	}

	cfg = DefaultConfig()
	cfg.DefaultPriority = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate accepted DefaultPriority = -1")
	}
}

func TestConfigValidateRejectsNegativeShutdownTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ShutdownTimeout = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate accepted a negative ShutdownTimeout")
	}
}

func TestWithIsolatedCPUSourceIgnoresNil(t *testing.T) {
	cfg := DefaultConfig()
	original := cfg.IsolatedCPUSource
	WithIsolatedCPUSource(nil)(&cfg)
	if cfg.IsolatedCPUSource != original {
		t.Fatal("WithIsolatedCPUSource(nil) replaced a non-nil default")
	}
}

func TestCreateWorkerPoolAppliesOptions(t *testing.T) {
	pool, err := CreateWorkerPool(1, WithDefaultPriority(42))
	if err != nil {
		t.Fatalf("CreateWorkerPool: %v", err)
	}
	defer pool.Close()

	if pool.cfg.DefaultPriority != 42 {
		t.Fatalf("cfg.DefaultPriority = %d, want 42", pool.cfg.DefaultPriority)
	}
}

func TestCreateWorkerPoolRejectsInvalidOption(t *testing.T) {
	_, err := CreateWorkerPool(1, WithDefaultPriority(1000))
	if err == nil {
		t.Fatal("CreateWorkerPool accepted an out-of-range DefaultPriority")
	}
}
