package service

import "time"

// rolloverThreshold is how far the clock must jump back to count as a new day.
const rolloverThreshold = 12 * time.Hour

// undated anchors sentences read before any session marker.
var undated = time.Unix(0, 0).UTC()

// timeline turns time-of-day clocks into absolute times. The date comes from the
// last session marker and advances when the clock wraps past midnight.
type timeline struct {
	date      time.Time
	lastClock time.Duration
	seen      bool
}

func newTimeline() *timeline {
	return &timeline{date: undated}
}

func (t *timeline) begin(session time.Time) {
	y, m, d := session.Date()
	t.date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	t.lastClock = session.Sub(t.date)
	t.seen = true
}

func (t *timeline) resolve(clock time.Duration) time.Time {
	if t.seen && t.lastClock-clock > rolloverThreshold {
		t.date = t.date.AddDate(0, 0, 1)
	}
	t.lastClock = clock
	t.seen = true
	return t.date.Add(clock)
}
