package twine

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSingleWorkerTick(t *testing.T) {
	pool, err := CreateWorkerPool(1)
	if err != nil {
		t.Fatalf("CreateWorkerPool: %v", err)
	}
	defer pool.Close()

	var counter int64
	var sawRealtime int32
	err = pool.AddWorker(func(data any) {
		if IsCurrentThreadRealtime() {
			atomic.StoreInt32(&sawRealtime, 1)
		}
		atomic.AddInt64(data.(*int64), 1)
	}, &counter)
	if err != nil {
		t.Fatalf("AddWorker: %v", err)
	}

	pool.WaitForWorkersIdle()
	pool.WakeupWorkers()
	pool.WaitForWorkersIdle()

	if got := atomic.LoadInt64(&counter); got != 1 {
		t.Fatalf("counter = %d, want 1", got)
	}
	if atomic.LoadInt32(&sawRealtime) != 1 {
		t.Fatal("IsCurrentThreadRealtime() was false inside the worker callback")
	}
}

func TestThreeWorkersTenCycles(t *testing.T) {
	pool, err := CreateWorkerPool(4)
	if err != nil {
		t.Fatalf("CreateWorkerPool: %v", err)
	}
	defer pool.Close()

	counters := make([]int64, 3)
	for i := range counters {
		i := i
		if err := pool.AddWorker(func(any) {
			atomic.AddInt64(&counters[i], 1)
		}, nil); err != nil {
			t.Fatalf("AddWorker(%d): %v", i, err)
		}
	}

	for cycle := 0; cycle < 10; cycle++ {
		pool.WaitForWorkersIdle()
		pool.WakeupWorkers()
	}
	pool.WaitForWorkersIdle()

	for i, c := range counters {
		if got := atomic.LoadInt64(&c); got != 10 {
			t.Errorf("counters[%d] = %d, want 10", i, got)
		}
	}
}

func TestPlacementSpread(t *testing.T) {
	pool, err := CreateWorkerPool(4)
	if err != nil {
		t.Fatalf("CreateWorkerPool: %v", err)
	}
	defer pool.Close()

	for i := 0; i < 6; i++ {
		if err := pool.AddWorker(func(any) {}, nil); err != nil {
			t.Fatalf("AddWorker(%d): %v", i, err)
		}
	}

	pool.mu.Lock()
	usage := append([]int(nil), pool.coresUsage...)
	pool.mu.Unlock()

	max := 0
	ones, twos := 0, 0
	for _, u := range usage {
		if u > max {
			max = u
		}
		switch u {
		case 1:
			ones++
		case 2:
			twos++
		}
	}
	if max != 2 {
		t.Fatalf("max core usage = %d, want 2", max)
	}
	if ones != 2 || twos != 2 {
		t.Fatalf("usage distribution = %v, want two cores at 1 and two at 2", usage)
	}
}

func TestAddWorkerBadAffinity(t *testing.T) {
	pool, err := CreateWorkerPool(2)
	if err != nil {
		t.Fatalf("CreateWorkerPool: %v", err)
	}
	defer pool.Close()

	err = pool.AddWorker(func(any) {}, nil, WithCPUID(5))
	if StatusOf(err) != InvalidArguments {
		t.Fatalf("AddWorker with bad cpu_id: status = %v, want InvalidArguments", StatusOf(err))
	}

	if err := pool.AddWorker(func(any) {}, nil, WithCPUID(1)); err != nil {
		t.Fatalf("pool unusable after bad AddWorker: %v", err)
	}
	if pool.NumWorkers() != 1 {
		t.Fatalf("NumWorkers = %d, want 1", pool.NumWorkers())
	}
}

func TestAddWorkerCPUIDBoundaries(t *testing.T) {
	pool, err := CreateWorkerPool(2)
	if err != nil {
		t.Fatalf("CreateWorkerPool: %v", err)
	}
	defer pool.Close()

	if err := pool.AddWorker(func(any) {}, nil, WithCPUID(-1)); StatusOf(err) != InvalidArguments {
		t.Fatalf("AddWorker with cpu_id = -1: status = %v, want InvalidArguments", StatusOf(err))
	}
	if err := pool.AddWorker(func(any) {}, nil, WithCPUID(2)); StatusOf(err) != InvalidArguments {
		t.Fatalf("AddWorker with cpu_id == cores (2): status = %v, want InvalidArguments", StatusOf(err))
	}
}

func TestAddWorkerPriorityBoundaries(t *testing.T) {
	pool, err := CreateWorkerPool(1)
	if err != nil {
		t.Fatalf("CreateWorkerPool: %v", err)
	}
	defer pool.Close()

	if err := pool.AddWorker(func(any) {}, nil, WithPriority(-1)); StatusOf(err) != InvalidArguments {
		t.Fatalf("AddWorker with priority = -1: status = %v, want InvalidArguments", StatusOf(err))
	}
	if err := pool.AddWorker(func(any) {}, nil, WithPriority(101)); StatusOf(err) != InvalidArguments {
		t.Fatalf("AddWorker with priority = 101: status = %v, want InvalidArguments", StatusOf(err))
	}
}

func TestShutdownWhileParked(t *testing.T) {
	pool, err := CreateWorkerPool(2)
	if err != nil {
		t.Fatalf("CreateWorkerPool: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := pool.AddWorker(func(any) {}, nil); err != nil {
			t.Fatalf("AddWorker(%d): %v", i, err)
		}
	}

	pool.WaitForWorkersIdle()
	pool.WakeupWorkers()
	pool.WaitForWorkersIdle()

	done := make(chan struct{})
	go func() {
		pool.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return, workers likely deadlocked")
	}

	if !pool.IsClosed() {
		t.Fatal("pool reports not closed after Close returned")
	}
}

func TestAddWorkerRejectsMidCycle(t *testing.T) {
	pool, err := CreateWorkerPool(2)
	if err != nil {
		t.Fatalf("CreateWorkerPool: %v", err)
	}
	defer pool.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	release := make(chan struct{})
	if err := pool.AddWorker(func(any) {
		<-release
		wg.Done()
	}, nil); err != nil {
		t.Fatalf("AddWorker: %v", err)
	}

	pool.WaitForWorkersIdle()
	pool.WakeupWorkers()

	err = pool.AddWorker(func(any) {}, nil)
	close(release)
	wg.Wait()

	if StatusOf(err) != Error {
		t.Fatalf("mid-cycle AddWorker status = %v, want Error (ErrMidCycleAddWorker)", StatusOf(err))
	}
}

func TestAddWorkerNilCallback(t *testing.T) {
	pool, err := CreateWorkerPool(1)
	if err != nil {
		t.Fatalf("CreateWorkerPool: %v", err)
	}
	defer pool.Close()

	if err := pool.AddWorker(nil, nil); err == nil {
		t.Fatal("AddWorker(nil, ...) did not return an error")
	}
}

func TestCreateWorkerPoolInvalidCores(t *testing.T) {
	if _, err := CreateWorkerPool(0); err == nil {
		t.Fatal("CreateWorkerPool(0) did not return an error")
	}
	if _, err := CreateWorkerPool(-1); err == nil {
		t.Fatal("CreateWorkerPool(-1) did not return an error")
	}
}

func TestAddWorkerAfterClose(t *testing.T) {
	pool, err := CreateWorkerPool(1)
	if err != nil {
		t.Fatalf("CreateWorkerPool: %v", err)
	}
	pool.Close()

	if err := pool.AddWorker(func(any) {}, nil); err != ErrPoolClosed {
		t.Fatalf("AddWorker after Close: err = %v, want ErrPoolClosed", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	pool, err := CreateWorkerPool(1)
	if err != nil {
		t.Fatalf("CreateWorkerPool: %v", err)
	}
	if err := pool.AddWorker(func(any) {}, nil); err != nil {
		t.Fatalf("AddWorker: %v", err)
	}

	if err := pool.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := pool.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
