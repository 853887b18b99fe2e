package profiler

import (
	"fmt"
	"io"
	"runtime"
)

// MemoryProbe answers the read-only memory queries used in reports.
type MemoryProbe interface {
	// FreeHeapBytes returns the heap bytes currently available.
	FreeHeapBytes() uint64
	// MinimumFreeHeapEverBytes returns the lowest free heap value observed.
	MinimumFreeHeapEverBytes() uint64
	// ArenaUsedBytes returns the bytes reserved by the engine for tensors.
	ArenaUsedBytes() uint64
}

// ArenaReporter is implemented by engines that know their tensor footprint.
type ArenaReporter interface {
	ArenaBytes() uint64
}

// RuntimeProbe derives heap figures from the Go runtime. Free heap is the
// portion of heap memory obtained from the OS that is not in use by spans.
//
// RuntimeProbe is not safe for concurrent use.
type RuntimeProbe struct {
	arena    ArenaReporter
	readMem  func(*runtime.MemStats)
	minFree  uint64
	observed bool
}

// NewRuntimeProbe creates a probe. arena may be nil, in which case
// ArenaUsedBytes reports zero.
func NewRuntimeProbe(arena ArenaReporter) *RuntimeProbe {
	return &RuntimeProbe{
		arena:   arena,
		readMem: runtime.ReadMemStats,
	}
}

// FreeHeapBytes samples the runtime and updates the observed minimum.
func (p *RuntimeProbe) FreeHeapBytes() uint64 {
	var ms runtime.MemStats
	p.readMem(&ms)

	var free uint64
	if ms.HeapSys > ms.HeapInuse {
		free = ms.HeapSys - ms.HeapInuse
	}
	if !p.observed || free < p.minFree {
		p.minFree = free
		p.observed = true
	}
	return free
}

// MinimumFreeHeapEverBytes returns the lowest free heap seen by any previous
// FreeHeapBytes call, sampling once if nothing has been observed yet.
func (p *RuntimeProbe) MinimumFreeHeapEverBytes() uint64 {
	if !p.observed {
		p.FreeHeapBytes()
	}
	return p.minFree
}

// ArenaUsedBytes returns the engine's tensor footprint.
func (p *RuntimeProbe) ArenaUsedBytes() uint64 {
	if p.arena == nil {
		return 0
	}
	return p.arena.ArenaBytes()
}

// WriteSystemInfo prints the startup memory banner.
func WriteSystemInfo(w io.Writer, probe MemoryProbe) error {
	_, err := fmt.Fprintf(w, "System Info:\n  Free Heap: %d bytes\n  Minimum Free Heap: %d bytes\n  Arena: %s\n",
		probe.FreeHeapBytes(), probe.MinimumFreeHeapEverBytes(), FormatBytes(probe.ArenaUsedBytes()))
	return err
}

// FormatBytes formats byte counts in human-readable format.
func FormatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
