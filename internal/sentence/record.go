package sentence

import "time"

// Record is a decoded sentence. Concrete types are HeadingMag, Compass,
// BottomTrack, ApparentWind, TrueWind and WindDirection; switch on the
// concrete type (or on Category) to reach the attributes.
//
// A nil attribute means the value was absent or unusable in the sentence.
type Record interface {
	Category() Category
	Time() time.Time
}

// Meta carries what every record shares.
type Meta struct {
	At     time.Time
	Talker string
}

// Time returns the log time of the sentence.
func (m Meta) Time() time.Time { return m.At }

// HeadingMag is an HDG reading: IIHDG,32,,,,*66
type HeadingMag struct {
	Meta
	Heading *float64
	// Deviation and Variation are signed: east positive, west negative.
	Deviation *float64
	Variation *float64
}

// Compass is a VHW reading: IIVHW,109.2,T,101,M,2.01,N,3.73,K*45
type Compass struct {
	Meta
	TrueHeading     *float64
	MagneticHeading *float64
	SpeedKnots      *float64
	SpeedKph        *float64
}

// BottomTrack is a VTG reading: IIVTG,20,T,,M,5.43,N,10.06,K,A*03
type BottomTrack struct {
	Meta
	TrueTrack     *float64
	MagneticTrack *float64
	SpeedKnots    *float64
	SpeedKph      *float64
}

// ApparentWind is a VWR reading: IIVWR,x.x,a,x.x,N,x.x,M,x.x,K
type ApparentWind struct {
	Meta
	// Angle is negative for wind on the starboard (R) side.
	Angle      *float64
	SpeedKnots *float64
}

// TrueWind is a VWT reading, laid out like VWR.
type TrueWind struct {
	Meta
	Angle      *float64
	SpeedKnots *float64
}

// WindDirection is an MWD reading: IIMWD,x.x,T,x.x,M,x.x,N,x.x,M
type WindDirection struct {
	Meta
	TrueDirection     *float64
	MagneticDirection *float64
	SpeedKnots        *float64
}

func (HeadingMag) Category() Category    { return CategoryHeadingMag }
func (Compass) Category() Category       { return CategoryCompass }
func (BottomTrack) Category() Category   { return CategoryBottomTrack }
func (ApparentWind) Category() Category  { return CategoryApparentWind }
func (TrueWind) Category() Category      { return CategoryTrueWind }
func (WindDirection) Category() Category { return CategoryWindDirection }

var (
	_ Record = HeadingMag{}
	_ Record = Compass{}
	_ Record = BottomTrack{}
	_ Record = ApparentWind{}
	_ Record = TrueWind{}
	_ Record = WindDirection{}
)
