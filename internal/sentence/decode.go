package sentence

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Reason classifies why an attribute was left absent.
type Reason string

const (
	ReasonNoMarker   Reason = "marker not found"
	ReasonEmpty      Reason = "empty value"
	ReasonUnparsable Reason = "not a number"
	ReasonOutOfRange Reason = "out of range"
)

// FieldError records one attribute that could not be decoded. Decoding of the
// other attributes of the sentence is unaffected.
type FieldError struct {
	Category Category
	Field    string
	Value    string
	Reason   Reason
}

func (e FieldError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s.%s: %s", e.Category, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s.%s: %s (%q)", e.Category, e.Field, e.Reason, e.Value)
}

// Decode builds the typed record for category from the sentence fields (sentence id
// excluded). It never fails as a whole: unusable attributes are nil and reported
// in the returned FieldErrors. Unknown categories yield a nil record.
func Decode(at time.Time, talker string, category Category, fields []string) (Record, []FieldError) {
	r := &fieldReader{category: category, fields: fields}
	meta := Meta{At: at, Talker: talker}

	var rec Record
	switch category {
	case CategoryHeadingMag:
		rec = HeadingMag{
			Meta:      meta,
			Heading:   r.positional("heading", 0, heading),
			Deviation: r.signedPositional("deviation", 1, 2),
			Variation: r.signedPositional("variation", 3, 4),
		}
	case CategoryCompass:
		rec = Compass{
			Meta:            meta,
			TrueHeading:     r.marked("true_heading", "T", heading),
			MagneticHeading: r.marked("magnetic_heading", "M", heading),
			SpeedKnots:      r.marked("speed_knots", "N", speed),
			SpeedKph:        r.marked("speed_kph", "K", speed),
		}
	case CategoryBottomTrack:
		rec = BottomTrack{
			Meta:          meta,
			TrueTrack:     r.marked("true_track", "T", heading),
			MagneticTrack: r.marked("magnetic_track", "M", heading),
			SpeedKnots:    r.marked("speed_knots", "N", speed),
			SpeedKph:      r.marked("speed_kph", "K", speed),
		}
	case CategoryApparentWind:
		rec = ApparentWind{
			Meta:       meta,
			Angle:      r.windAngle("angle"),
			SpeedKnots: r.marked("speed_knots", "N", speed),
		}
	case CategoryTrueWind:
		rec = TrueWind{
			Meta:       meta,
			Angle:      r.windAngle("angle"),
			SpeedKnots: r.marked("speed_knots", "N", speed),
		}
	case CategoryWindDirection:
		rec = WindDirection{
			Meta:              meta,
			TrueDirection:     r.marked("true_direction", "T", heading),
			MagneticDirection: r.marked("magnetic_direction", "M", heading),
			SpeedKnots:        r.marked("speed_knots", "N", speed),
		}
	default:
		return nil, nil
	}
	return rec, r.issues
}

type bounds struct {
	min, max     float64
	maxExclusive bool
}

func (b bounds) contains(v float64) bool {
	if v < b.min {
		return false
	}
	if b.maxExclusive {
		return v < b.max
	}
	return v <= b.max
}

var (
	heading  = bounds{min: 0, max: 360, maxExclusive: true}
	speed    = bounds{min: 0, max: math.MaxFloat64}
	halfTurn = bounds{min: 0, max: 180}
)

type fieldReader struct {
	category Category
	fields   []string
	issues   []FieldError
}

func (r *fieldReader) fail(field, value string, reason Reason) {
	r.issues = append(r.issues, FieldError{Category: r.category, Field: field, Value: value, Reason: reason})
}

func (r *fieldReader) index(marker string) int {
	for i, f := range r.fields {
		if strings.TrimSpace(f) == marker {
			return i
		}
	}
	return -1
}

// marked reads the value placed right before the unit/reference marker.
func (r *fieldReader) marked(field, marker string, b bounds) *float64 {
	idx := r.index(marker)
	if idx < 1 {
		r.fail(field, "", ReasonNoMarker)
		return nil
	}
	return r.number(field, r.fields[idx-1], b)
}

func (r *fieldReader) positional(field string, idx int, b bounds) *float64 {
	if idx >= len(r.fields) {
		r.fail(field, "", ReasonEmpty)
		return nil
	}
	return r.number(field, r.fields[idx], b)
}

// signedPositional reads a magnitude followed by an E/W field; west is negative.
func (r *fieldReader) signedPositional(field string, idx, dirIdx int) *float64 {
	v := r.positional(field, idx, halfTurn)
	if v == nil {
		return nil
	}
	dir := ""
	if dirIdx < len(r.fields) {
		dir = strings.TrimSpace(r.fields[dirIdx])
	}
	switch dir {
	case "E":
		return v
	case "W":
		signed := -*v
		return &signed
	default:
		r.fail(field+"_direction", dir, ReasonNoMarker)
		return nil
	}
}

// windAngle reads a 0-180 angle qualified by R or L. R is looked up first and
// negated; L keeps its sign.
func (r *fieldReader) windAngle(field string) *float64 {
	if idx := r.index("R"); idx >= 1 {
		v := r.number(field, r.fields[idx-1], halfTurn)
		if v == nil {
			return nil
		}
		signed := -*v
		return &signed
	}
	if idx := r.index("L"); idx >= 1 {
		return r.number(field, r.fields[idx-1], halfTurn)
	}
	r.fail(field, "", ReasonNoMarker)
	return nil
}

func (r *fieldReader) number(field, raw string, b bounds) *float64 {
	text := strings.TrimSpace(raw)
	if text == "" {
		r.fail(field, "", ReasonEmpty)
		return nil
	}
	v, ok := parseNumber(text)
	if !ok {
		r.fail(field, text, ReasonUnparsable)
		return nil
	}
	if !b.contains(v) {
		r.fail(field, text, ReasonOutOfRange)
		return nil
	}
	return &v
}

// parseNumber accepts both integer and decimal renderings of the same field;
// instruments disagree on which one they emit.
func parseNumber(text string) (float64, bool) {
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return float64(n), true
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
