// Package uploadstats reports how many fence/queue/device waits the
// backend's batched upload path triggered during a period, drained
// atomically each frame (spec.md §3.12 / §4.J).
package uploadstats

import "github.com/vkforge/corepool/backend"

// Stats mirrors backend.UploadWaitStats; a distinct type keeps this
// package's callers from depending on backend internals beyond the
// UploadWaitReporter capability.
type Stats struct {
	FenceWaitCount      uint64
	QueueWaitIdleCount  uint64
	DeviceWaitIdleCount uint64
}

// Collect reports and resets the backend's upload-wait counters.
// Collect forwards to the backend and zeroes its counters atomically
// from the caller's perspective. If dev does not implement
// backend.UploadWaitReporter, it returns a zero Stats and false.
func Collect(dev backend.Device) (Stats, bool) {
	reporter, ok := dev.(backend.UploadWaitReporter)
	if !ok {
		return Stats{}, false
	}

	s := reporter.GetAndResetUploadWaitStats()
	return Stats{
		FenceWaitCount:      s.FenceWaitCount,
		QueueWaitIdleCount:  s.QueueWaitIdleCount,
		DeviceWaitIdleCount: s.DeviceWaitIdleCount,
	}, true
}
