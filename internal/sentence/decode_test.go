package sentence

import (
	"strings"
	"testing"
	"time"
)

var at = time.Date(2021, time.August, 9, 16, 13, 6, 0, time.UTC)

func split(payload string) []string {
	return strings.Split(payload, ",")
}

func assertValue(t *testing.T, name string, got *float64, want float64) {
	t.Helper()
	if got == nil {
		t.Fatalf("%s: expected %v, got absent", name, want)
	}
	if *got != want {
		t.Fatalf("%s: expected %v, got %v", name, want, *got)
	}
}

func assertAbsent(t *testing.T, name string, got *float64) {
	t.Helper()
	if got != nil {
		t.Fatalf("%s: expected absent, got %v", name, *got)
	}
}

func hasIssue(issues []FieldError, field string, reason Reason) bool {
	for _, issue := range issues {
		if issue.Field == field && issue.Reason == reason {
			return true
		}
	}
	return false
}

func TestDecodeHeadingMagOnlyHeading(t *testing.T) {
	rec, issues := Decode(at, "II", CategoryHeadingMag, split("32,,,,"))
	hdg, ok := rec.(HeadingMag)
	if !ok {
		t.Fatalf("expected HeadingMag, got %T", rec)
	}
	assertValue(t, "heading", hdg.Heading, 32)
	assertAbsent(t, "deviation", hdg.Deviation)
	assertAbsent(t, "variation", hdg.Variation)
	if !hasIssue(issues, "deviation", ReasonEmpty) || !hasIssue(issues, "variation", ReasonEmpty) {
		t.Fatalf("expected empty diagnostics, got %v", issues)
	}
	if hdg.Time() != at || hdg.Talker != "II" {
		t.Fatalf("meta not carried: %+v", hdg.Meta)
	}
}

func TestDecodeHeadingMagSignedVariation(t *testing.T) {
	rec, _ := Decode(at, "II", CategoryHeadingMag, split("101.5,2.0,E,1.5,W"))
	hdg := rec.(HeadingMag)
	assertValue(t, "heading", hdg.Heading, 101.5)
	assertValue(t, "deviation", hdg.Deviation, 2)
	assertValue(t, "variation", hdg.Variation, -1.5)
}

func TestDecodeCompass(t *testing.T) {
	rec, issues := Decode(at, "II", CategoryCompass, split("109.2,T,101,M,2.01,N,3.73,K"))
	vhw := rec.(Compass)
	assertValue(t, "true_heading", vhw.TrueHeading, 109.2)
	assertValue(t, "magnetic_heading", vhw.MagneticHeading, 101)
	assertValue(t, "speed_knots", vhw.SpeedKnots, 2.01)
	assertValue(t, "speed_kph", vhw.SpeedKph, 3.73)
	if len(issues) != 0 {
		t.Fatalf("expected no diagnostics, got %v", issues)
	}
}

func TestDecodeBottomTrackMissingMagnetic(t *testing.T) {
	rec, issues := Decode(at, "II", CategoryBottomTrack, split("20,T,,M,5.43,N,10.06,K,A"))
	vtg := rec.(BottomTrack)
	assertValue(t, "true_track", vtg.TrueTrack, 20)
	assertAbsent(t, "magnetic_track", vtg.MagneticTrack)
	assertValue(t, "speed_knots", vtg.SpeedKnots, 5.43)
	assertValue(t, "speed_kph", vtg.SpeedKph, 10.06)
	if !hasIssue(issues, "magnetic_track", ReasonEmpty) {
		t.Fatalf("expected magnetic_track diagnostic, got %v", issues)
	}
}

func TestDecodeOutOfRangeIsAbsent(t *testing.T) {
	rec, issues := Decode(at, "II", CategoryBottomTrack, split("361,T,,M,-1,N,10.06,K,A"))
	vtg := rec.(BottomTrack)
	assertAbsent(t, "true_track", vtg.TrueTrack)
	assertAbsent(t, "speed_knots", vtg.SpeedKnots)
	assertValue(t, "speed_kph", vtg.SpeedKph, 10.06)
	if !hasIssue(issues, "true_track", ReasonOutOfRange) || !hasIssue(issues, "speed_knots", ReasonOutOfRange) {
		t.Fatalf("expected out of range diagnostics, got %v", issues)
	}

	rec, _ = Decode(at, "II", CategoryCompass, split("360,T,,M,,N,,K"))
	assertAbsent(t, "true_heading", rec.(Compass).TrueHeading)
}

func TestDecodeWindAngleSign(t *testing.T) {
	rec, _ := Decode(at, "II", CategoryApparentWind, split("45,R,12.5,N,6.4,M,23.1,K"))
	vwr := rec.(ApparentWind)
	assertValue(t, "angle", vwr.Angle, -45)
	assertValue(t, "speed_knots", vwr.SpeedKnots, 12.5)

	rec, _ = Decode(at, "II", CategoryTrueWind, split("30.5,L,8,N,4.1,M,14.8,K"))
	assertValue(t, "angle", rec.(TrueWind).Angle, 30.5)

	rec, issues := Decode(at, "II", CategoryApparentWind, split("30,,8,N,4.1,M,14.8,K"))
	assertAbsent(t, "angle", rec.(ApparentWind).Angle)
	if !hasIssue(issues, "angle", ReasonNoMarker) {
		t.Fatalf("expected marker diagnostic, got %v", issues)
	}
}

func TestDecodeWindDirection(t *testing.T) {
	rec, issues := Decode(at, "II", CategoryWindDirection, split(",T,187,M,9.2,N,4.7,M"))
	mwd := rec.(WindDirection)
	assertAbsent(t, "true_direction", mwd.TrueDirection)
	assertValue(t, "magnetic_direction", mwd.MagneticDirection, 187)
	assertValue(t, "speed_knots", mwd.SpeedKnots, 9.2)
	if !hasIssue(issues, "true_direction", ReasonEmpty) {
		t.Fatalf("expected true_direction diagnostic, got %v", issues)
	}
}

func TestDecodeNeverAbortsOnMalformedFields(t *testing.T) {
	payloads := []string{
		"",
		",,,,,,,,,,",
		"T",
		"M,T,N,K",
		"abc,T,def,M,ghi,N,jkl,K",
		"NaN,T,Inf,M,1e400,N,-0,K",
		"R,L,R,L",
		"1,2,3,4,5,6,7,8,9,10,11,12,T",
		"0x10,T,1_000,M",
	}
	categories := []Category{
		CategoryHeadingMag, CategoryCompass, CategoryBottomTrack,
		CategoryApparentWind, CategoryTrueWind, CategoryWindDirection,
	}
	for _, cat := range categories {
		for _, p := range payloads {
			rec, _ := Decode(at, "II", cat, split(p))
			if rec == nil {
				t.Fatalf("%s %q: expected a record", cat, p)
			}
			if rec.Category() != cat {
				t.Fatalf("%s %q: record category %s", cat, p, rec.Category())
			}
		}
	}
}

func TestDecodeIntegerAndFloatForms(t *testing.T) {
	for _, text := range []string{"85", "85.0", " 85 "} {
		rec, _ := Decode(at, "II", CategoryCompass, split(text+",T,,M,,N,,K"))
		assertValue(t, text, rec.(Compass).TrueHeading, 85)
	}
}

func TestCategoryOf(t *testing.T) {
	cat, ok := CategoryOf("VTG")
	if !ok || cat != CategoryBottomTrack {
		t.Fatalf("VTG should map to bottom track, got %s", cat)
	}
	if cat.SentenceType() != "VTG" {
		t.Fatalf("round trip failed: %s", cat.SentenceType())
	}
	if _, ok := CategoryOf("DPT"); ok {
		t.Fatal("DPT is not decoded")
	}
	rec, issues := Decode(at, "II", CategoryUnknown, nil)
	if rec != nil || issues != nil {
		t.Fatal("unknown category should decode to nothing")
	}
}
