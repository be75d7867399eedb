package correlation

import "time"

// Metric is the result of one closed slot. Nil fields were not computable for
// that slot (missing input, speed below the floor, short heading history).
type Metric struct {
	At time.Time `json:"at"`
	// DeltaHeading is bottom track minus compass true heading, in (-180, 180].
	DeltaHeading *float64 `json:"delta_heading,omitempty"`
	// RotationSpeed is the compass turn rate in degrees per second.
	RotationSpeed *float64 `json:"rotation_speed,omitempty"`
	// DeltaSpeed is speed over ground minus speed through water, in knots.
	DeltaSpeed    *float64 `json:"delta_speed,omitempty"`
	BottomHeading *float64 `json:"bottom_heading,omitempty"`
	// Declination is compass true minus compass magnetic heading.
	Declination    *float64 `json:"declination,omitempty"`
	CompassHeading *float64 `json:"compass_heading,omitempty"`
	BottomSpeed    *float64 `json:"bottom_speed,omitempty"`
}

func float(v float64) *float64 {
	return &v
}

func clone(p *float64) *float64 {
	if p == nil {
		return nil
	}
	return float(*p)
}
