package correlation

import (
	"time"

	"github.com/rs/zerolog"

	"nmea-drift/internal/angle"
	"nmea-drift/internal/sentence"
)

// Options tune slot closure and metric gating.
type Options struct {
	// TimeSlot is how long a slot accumulates before it is evaluated.
	TimeSlot time.Duration
	// MinSpeedKnots is the bottom speed below which bottom-track heading and
	// speed are left out of the metrics.
	MinSpeedKnots float64
	// IntegrationDuration bounds the heading history used for rotation speed.
	IntegrationDuration time.Duration
	// MinHistorySamples is the smallest history that yields a rotation speed.
	MinHistorySamples int
}

// DefaultOptions returns the reference thresholds.
func DefaultOptions() Options {
	return Options{
		TimeSlot:            2 * time.Second,
		MinSpeedKnots:       5,
		IntegrationDuration: 5 * time.Second,
		MinHistorySamples:   2,
	}
}

// Counters summarise what the window did with the slots it saw.
type Counters struct {
	Emitted   int
	Discarded int
	// Rejected counts sentences whose timestamp went backwards.
	Rejected int
}

// Slot holds the latest record per category since Start.
type Slot struct {
	Start   time.Time
	records map[sentence.Category]sentence.Record
}

func (s *Slot) put(rec sentence.Record) {
	if s.records == nil {
		s.records = make(map[sentence.Category]sentence.Record)
	}
	s.records[rec.Category()] = rec
}

// Get returns the record kept for category, if any.
func (s *Slot) Get(category sentence.Category) (sentence.Record, bool) {
	rec, ok := s.records[category]
	return rec, ok
}

// Len reports how many categories are filled.
func (s *Slot) Len() int {
	return len(s.records)
}

func (s *Slot) reset(start time.Time) {
	s.Start = start
	clear(s.records)
}

// Window correlates decoded sentences over fixed time slots. It is driven by a
// single goroutine and is not safe for concurrent use.
type Window struct {
	opts     Options
	logger   zerolog.Logger
	slot     Slot
	history  *HeadingHistory
	last     time.Time
	counters Counters
}

// New constructs a Window. Zero option values fall back to DefaultOptions.
func New(opts Options, logger zerolog.Logger) *Window {
	def := DefaultOptions()
	if opts.TimeSlot <= 0 {
		opts.TimeSlot = def.TimeSlot
	}
	if opts.IntegrationDuration <= 0 {
		opts.IntegrationDuration = def.IntegrationDuration
	}
	if opts.MinHistorySamples < 2 {
		opts.MinHistorySamples = def.MinHistorySamples
	}
	return &Window{
		opts:    opts,
		logger:  logger.With().Str("component", "correlation").Logger(),
		history: NewHeadingHistory(opts.IntegrationDuration),
	}
}

// Observe stores rec as the latest reading of its category and evaluates the slot
// at the record time. A metric is returned when the slot closed with data.
func (w *Window) Observe(rec sentence.Record) (Metric, bool) {
	at := rec.Time()
	w.slot.put(rec)
	if !w.accept(at, rec.Category()) {
		return Metric{}, false
	}

	if c, ok := rec.(sentence.Compass); ok && c.TrueHeading != nil {
		w.history.Push(at, *c.TrueHeading)
	}
	return w.evaluate(at)
}

// Advance evaluates the slot at at without storing anything; every valid sentence
// moves logical time forward, including the ones that are not correlated.
func (w *Window) Advance(at time.Time) (Metric, bool) {
	if !w.accept(at, sentence.CategoryUnknown) {
		return Metric{}, false
	}
	return w.evaluate(at)
}

// Reset starts over, forgetting the slot, the heading history and the clock.
func (w *Window) Reset() {
	w.slot.reset(time.Time{})
	w.history.Reset()
	w.last = time.Time{}
}

// Counters returns the running totals.
func (w *Window) Counters() Counters {
	return w.counters
}

// Slot exposes the current slot for inspection.
func (w *Window) Slot() *Slot {
	return &w.slot
}

func (w *Window) accept(at time.Time, category sentence.Category) bool {
	if !w.last.IsZero() && at.Before(w.last) {
		w.counters.Rejected++
		w.logger.Error().
			Time("at", at).
			Time("previous", w.last).
			Str("category", category.String()).
			Msg("timestamp earlier than previous sentence; ignored for timing")
		return false
	}
	w.last = at
	if w.slot.Start.IsZero() {
		w.slot.Start = at
	}
	return true
}

func (w *Window) evaluate(at time.Time) (Metric, bool) {
	if at.Sub(w.slot.Start) <= w.opts.TimeSlot {
		return Metric{}, false
	}

	track, hasTrack := w.bottomTrack()
	compass, hasCompass := w.compass()
	if !hasTrack || !hasCompass {
		w.counters.Discarded++
		w.logger.Warn().
			Time("slot_start", w.slot.Start).
			Time("at", at).
			Bool("bottom_track", hasTrack).
			Bool("compass", hasCompass).
			Msg("time slot elapsed before bottom track and compass were both read; slot discarded")
		w.slot.reset(at)
		return Metric{}, false
	}

	w.history.Trim(at)
	metric := w.compute(at, track, compass)
	w.counters.Emitted++
	w.slot.reset(at)
	return metric, true
}

func (w *Window) compute(at time.Time, track sentence.BottomTrack, compass sentence.Compass) Metric {
	m := Metric{
		At:             at,
		BottomHeading:  clone(track.TrueTrack),
		BottomSpeed:    clone(track.SpeedKnots),
		CompassHeading: clone(compass.TrueHeading),
	}

	// Bottom track is unreliable at low speed: leave it out rather than flag it.
	moving := track.SpeedKnots != nil && *track.SpeedKnots >= w.opts.MinSpeedKnots

	if moving && track.TrueTrack != nil && compass.TrueHeading != nil {
		m.DeltaHeading = float(angle.Delta(*track.TrueTrack, *compass.TrueHeading))
	}
	if moving && compass.SpeedKnots != nil {
		m.DeltaSpeed = float(*track.SpeedKnots - *compass.SpeedKnots)
	}
	if compass.TrueHeading != nil && compass.MagneticHeading != nil {
		m.Declination = float(angle.Delta(*compass.TrueHeading, *compass.MagneticHeading))
	}
	if rate, ok := angle.RotationRate(w.history.Samples(), w.opts.MinHistorySamples); ok {
		m.RotationSpeed = float(rate)
	}

	w.logger.Debug().
		Time("at", at).
		Bool("moving", moving).
		Int("history", w.history.Len()).
		Msg("slot closed")
	return m
}

func (w *Window) bottomTrack() (sentence.BottomTrack, bool) {
	rec, ok := w.slot.Get(sentence.CategoryBottomTrack)
	if !ok {
		return sentence.BottomTrack{}, false
	}
	track, ok := rec.(sentence.BottomTrack)
	return track, ok
}

func (w *Window) compass() (sentence.Compass, bool) {
	rec, ok := w.slot.Get(sentence.CategoryCompass)
	if !ok {
		return sentence.Compass{}, false
	}
	c, ok := rec.(sentence.Compass)
	return c, ok
}
