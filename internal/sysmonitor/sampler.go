package sysmonitor

import (
	"math"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

// Sampler is the single entry point dispatcher.ResourcePolicy and
// operator.AdaptiveThrottle poll for current resource pressure. It prefers
// gopsutil for both CPU and memory, since it reports actual process/host
// figures rather than an estimate, and falls back to the package's own
// per-platform proc readers (or, failing those, the goroutine-count
// heuristic) when gopsutil is unavailable: a container without /proc
// access, or a platform gopsutil doesn't support.
type Sampler struct {
	interval time.Duration

	gopsutilProc *process.Process
	fallback     ProcessCPUSampler

	mu          sync.Mutex
	lastCPU     float64
	lastSample  time.Time
	closed      atomic.Bool
}

// NewSampler returns a Sampler that samples no more often than interval.
func NewSampler(interval time.Duration) *Sampler {
	s := &Sampler{interval: interval}
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		s.gopsutilProc = proc
	}
	if fb, err := NewProcessSampler(); err == nil {
		s.fallback = fb
	} else {
		s.fallback = NewGoroutineHeuristicSampler()
	}
	return s
}

// CPUPercent returns the process's current CPU usage, 0-100, throttled to
// at most one real sample per interval.
func (s *Sampler) CPUPercent() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if !s.lastSample.IsZero() && now.Sub(s.lastSample) < s.interval {
		return s.lastCPU
	}

	var percent float64
	if s.gopsutilProc != nil {
		if p, err := s.gopsutilProc.CPUPercent(); err == nil {
			percent = p
		} else {
			percent = s.fallback.Sample(s.interval)
		}
	} else {
		percent = s.fallback.Sample(s.interval)
	}
	percent = clampPercent(percent)

	s.lastCPU = percent
	s.lastSample = now
	return percent
}

// MemoryPercent returns current system memory usage, 0-100. It queries
// gopsutil's host view first and falls back to the package's cgroup-aware
// GetSystemMemory when gopsutil cannot read host memory (e.g. inside some
// restricted containers).
func (s *Sampler) MemoryPercent() float64 {
	if v, err := mem.VirtualMemory(); err == nil && v.Total > 0 {
		return clampPercent(v.UsedPercent)
	}
	if m, err := GetSystemMemory(); err == nil && m.Total > 0 {
		available := m.Available
		if available > m.Total {
			available = m.Total
		}
		used := m.Total - available
		return clampPercent(float64(used) / float64(m.Total) * 100)
	}
	return 0
}

// Close releases the Sampler. It is safe to call multiple times.
func (s *Sampler) Close() {
	s.closed.Store(true)
}

func clampPercent(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
