// Package angle holds the wraparound-safe heading arithmetic shared by the
// correlation metrics.
package angle

import (
	"math"
	"time"
)

// Delta returns the signed circular difference a - b folded into (-180, 180].
//
// Delta(a, b) == -Delta(b, a) except when the headings are exactly opposite,
// where both orders return 180.
func Delta(a, b float64) float64 {
	d := math.Mod(a-b, 360)
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	return d
}

// Sample is one timestamped heading.
type Sample struct {
	At      time.Time
	Heading float64
}

// RotationRate returns the absolute heading change per second between the oldest
// and the newest sample. ok is false when fewer than minSamples samples are given
// (two at least) or when no time elapsed between the first and the last one.
func RotationRate(samples []Sample, minSamples int) (rate float64, ok bool) {
	if minSamples < 2 {
		minSamples = 2
	}
	if len(samples) < minSamples {
		return 0, false
	}
	oldest, newest := samples[0], samples[len(samples)-1]
	elapsed := newest.At.Sub(oldest.At).Seconds()
	if elapsed <= 0 {
		return 0, false
	}
	return math.Abs(Delta(newest.Heading, oldest.Heading)) / elapsed, true
}
