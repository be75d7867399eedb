package correlation

import (
	"time"

	"nmea-drift/internal/angle"
)

// HeadingHistory keeps the compass headings seen during the last integration
// window, oldest first.
type HeadingHistory struct {
	window  time.Duration
	samples []angle.Sample
}

// NewHeadingHistory builds a history retaining samples up to window old.
func NewHeadingHistory(window time.Duration) *HeadingHistory {
	return &HeadingHistory{window: window}
}

// Push appends a heading. Samples older than the previous one are ignored.
func (h *HeadingHistory) Push(at time.Time, heading float64) {
	if n := len(h.samples); n > 0 && at.Before(h.samples[n-1].At) {
		return
	}
	h.samples = append(h.samples, angle.Sample{At: at, Heading: heading})
	h.Trim(at)
}

// Trim drops samples older than now minus the window.
func (h *HeadingHistory) Trim(now time.Time) {
	drop := 0
	for drop < len(h.samples) && now.Sub(h.samples[drop].At) > h.window {
		drop++
	}
	if drop == 0 {
		return
	}
	h.samples = append(h.samples[:0], h.samples[drop:]...)
}

// Samples returns the retained samples; the slice is only valid until the next Push.
func (h *HeadingHistory) Samples() []angle.Sample {
	return h.samples
}

// Len reports how many samples are retained.
func (h *HeadingHistory) Len() int {
	return len(h.samples)
}

// Reset forgets every sample.
func (h *HeadingHistory) Reset() {
	h.samples = h.samples[:0]
}
