package dispatcher_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/flowmesh/reactor/dispatcher"
	"github.com/flowmesh/reactor/internal/assert"
)

func TestNew_DefaultConfigBuildsSingleThread(t *testing.T) {
	d := dispatcher.New(dispatcher.DefaultConfig())
	defer d.Shutdown()

	var ran bool
	var wg sync.WaitGroup
	wg.Add(1)
	d.Dispatch(func() { ran = true; wg.Done() })
	wg.Wait()
	assert.Equal(t, true, ran)
}

func TestNew_KindSynchronousRunsInline(t *testing.T) {
	d := dispatcher.New(dispatcher.Config{Kind: dispatcher.KindSynchronous})
	ran := false
	d.Dispatch(func() { ran = true })
	assert.Equal(t, true, ran)
	assert.Equal(t, true, d.InContext())
}

func TestNew_KindWorkerPoolHonorsOpts(t *testing.T) {
	d := dispatcher.New(dispatcher.Config{Kind: dispatcher.KindWorkerPool}, dispatcher.WithWorkerCount(4))
	defer d.Shutdown()

	var concurrent, max atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		d.Dispatch(func() {
			n := concurrent.Add(1)
			for {
				m := max.Load()
				if n <= m || max.CompareAndSwap(m, n) {
					break
				}
			}
			concurrent.Add(-1)
			wg.Done()
		})
	}
	wg.Wait()
	if max.Load() < 2 {
		t.Fatalf("expected at least 2 concurrent workers, got %d", max.Load())
	}
}

func TestNew_KindRingBufferHonorsProducerType(t *testing.T) {
	d := dispatcher.New(
		dispatcher.Config{Kind: dispatcher.KindRingBuffer, QueueSize: 8},
		dispatcher.WithProducerType(dispatcher.ProducerSingle),
		dispatcher.WithWaitStrategy(dispatcher.WaitYielding),
	)
	defer d.Shutdown()

	var count atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		d.Dispatch(func() {
			count.Add(1)
			wg.Done()
		})
	}
	wg.Wait()
	assert.Equal(t, int64(50), count.Load())
}

func TestNew_PanicsOnInvalidWorkerCount(t *testing.T) {
	assert.Panics(t, func() {
		dispatcher.New(dispatcher.Config{Kind: dispatcher.KindWorkerPool, WorkerCount: 0})
	})
}

func TestNew_PanicsOnInvalidQueueSize(t *testing.T) {
	assert.Panics(t, func() {
		dispatcher.New(dispatcher.Config{Kind: dispatcher.KindSingleThread, QueueSize: 0})
	})
}

func TestWithName_SetsConfigName(t *testing.T) {
	cfg := dispatcher.DefaultConfig()
	for _, opt := range []dispatcher.Opt{dispatcher.WithName("ingest")} {
		opt(&cfg)
	}
	assert.Equal(t, "ingest", cfg.Name)
}
