package sentence

// Category identifies the instrument reading a sentence carries.
type Category int

const (
	CategoryUnknown Category = iota
	// CategoryHeadingMag is HDG: magnetic heading with deviation and variation.
	CategoryHeadingMag
	// CategoryCompass is VHW: compass true/magnetic heading and speed through water.
	CategoryCompass
	// CategoryBottomTrack is VTG: track and speed over ground.
	CategoryBottomTrack
	// CategoryApparentWind is VWR: apparent wind angle and speed.
	CategoryApparentWind
	// CategoryTrueWind is VWT: true wind angle and speed relative to the bow.
	CategoryTrueWind
	// CategoryWindDirection is MWD: true wind direction and speed.
	CategoryWindDirection
)

var sentenceTypes = map[string]Category{
	"HDG": CategoryHeadingMag,
	"VHW": CategoryCompass,
	"VTG": CategoryBottomTrack,
	"VWR": CategoryApparentWind,
	"VWT": CategoryTrueWind,
	"MWD": CategoryWindDirection,
}

// CategoryOf maps a three-letter sentence type (talker stripped) to its category.
func CategoryOf(sentenceType string) (Category, bool) {
	c, ok := sentenceTypes[sentenceType]
	return c, ok
}

func (c Category) String() string {
	switch c {
	case CategoryHeadingMag:
		return "HEADING_MAG"
	case CategoryCompass:
		return "HEADING_COMPASS_TRUE_MAG"
	case CategoryBottomTrack:
		return "BOTTOM_TRACK"
	case CategoryApparentWind:
		return "APPARENT_WIND"
	case CategoryTrueWind:
		return "TRUE_WIND"
	case CategoryWindDirection:
		return "TRUE_WIND_DIRECTION"
	default:
		return "UNKNOWN"
	}
}

// SentenceType returns the NMEA sentence type decoded into this category.
func (c Category) SentenceType() string {
	for typ, cat := range sentenceTypes {
		if cat == c {
			return typ
		}
	}
	return ""
}
