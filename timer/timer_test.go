package timer_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/flowmesh/reactor/timer"
)

func TestSchedule_FiresOnce(t *testing.T) {
	svc := timer.NewService()
	defer svc.Stop()

	var calls atomic.Int64
	svc.Schedule(func() { calls.Add(1) }, 20*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected exactly one fire, got %d", got)
	}
}

func TestSchedule_Cancel(t *testing.T) {
	svc := timer.NewService()
	defer svc.Stop()

	var calls atomic.Int64
	reg := svc.Schedule(func() { calls.Add(1) }, 30*time.Millisecond)
	reg.Cancel()

	time.Sleep(80 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Fatalf("expected the cancelled callback never to fire, got %d calls", got)
	}
}

func TestSchedulePeriodic(t *testing.T) {
	svc := timer.NewService()
	defer svc.Stop()

	var calls atomic.Int64
	reg := svc.SchedulePeriodic(func() { calls.Add(1) }, 20*time.Millisecond)
	defer reg.Cancel()

	time.Sleep(110 * time.Millisecond)
	got := calls.Load()
	if got < 3 {
		t.Fatalf("expected at least 3 periodic fires in 110ms at a 20ms period, got %d", got)
	}
}

func TestSchedulePeriodic_CancelStopsFutureFires(t *testing.T) {
	svc := timer.NewService()
	defer svc.Stop()

	var calls atomic.Int64
	reg := svc.SchedulePeriodic(func() { calls.Add(1) }, 15*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	reg.Cancel()
	afterCancel := calls.Load()

	time.Sleep(80 * time.Millisecond)
	if calls.Load() != afterCancel {
		t.Fatalf("expected no further fires after cancel: had %d, now %d", afterCancel, calls.Load())
	}
}

func TestStop_HaltsAllFutureCallbacks(t *testing.T) {
	svc := timer.NewService()

	var calls atomic.Int64
	svc.SchedulePeriodic(func() { calls.Add(1) }, 15*time.Millisecond)

	time.Sleep(40 * time.Millisecond)
	svc.Stop()
	afterStop := calls.Load()

	time.Sleep(80 * time.Millisecond)
	if calls.Load() != afterStop {
		t.Fatalf("expected no fires after Stop: had %d, now %d", afterStop, calls.Load())
	}
}

func TestWithResolution_TightensPeriodicPacing(t *testing.T) {
	svc := timer.NewService(timer.WithResolution(5 * time.Millisecond))
	defer svc.Stop()

	var calls atomic.Int64
	reg := svc.SchedulePeriodic(func() { calls.Add(1) }, 10*time.Millisecond)
	defer reg.Cancel()

	time.Sleep(60 * time.Millisecond)
	got := calls.Load()
	if got < 4 {
		t.Fatalf("expected at least 4 periodic fires in 60ms at a 10ms period with a tight resolution, got %d", got)
	}
}

func TestConcurrentRegistrations(t *testing.T) {
	svc := timer.NewService()
	defer svc.Stop()

	var wg sync.WaitGroup
	var calls atomic.Int64
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Schedule(func() { calls.Add(1) }, 10*time.Millisecond)
		}()
	}
	wg.Wait()
	time.Sleep(80 * time.Millisecond)
	if got := calls.Load(); got != 50 {
		t.Fatalf("expected all 50 concurrently registered one-shots to fire, got %d", got)
	}
}
