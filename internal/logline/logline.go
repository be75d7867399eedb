package logline

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/adrianmo/go-nmea"
)

var (
	// ErrUnrecognized marks a line matching neither the sentence nor the session layout.
	ErrUnrecognized = errors.New("logline: unrecognized line")
	// ErrChecksum marks a sentence whose trailing checksum does not match its payload.
	ErrChecksum = errors.New("logline: checksum mismatch")
)

const (
	sessionLayout = "02/01/2006 15:04:05"
	sessionSuffix = "- Debut"

	proprietaryPrefix = "P"
)

// Kind tells sentence lines and session markers apart.
type Kind int

const (
	KindSentence Kind = iota + 1
	KindSession
)

func (k Kind) String() string {
	switch k {
	case KindSentence:
		return "sentence"
	case KindSession:
		return "session"
	default:
		return "unknown"
	}
}

// Line is one successfully tokenized log line.
type Line struct {
	Kind Kind
	// Clock is the time of day of a sentence line.
	Clock time.Duration
	// Session is the local date and time carried by a session marker.
	Session  time.Time
	Sentence nmea.BaseSentence
}

// Parse tokenizes a recorder line of the form
//
//	HH:MM:SS:mmm $IIVTG,20,T,,M,5.43,N,10.06,K,A*03
//
// or a session marker such as "09/08/2021 16:13:06  - Debut".
func Parse(raw string) (Line, error) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return Line{}, ErrUnrecognized
	}

	if session, ok := parseSession(line); ok {
		return Line{Kind: KindSession, Session: session}, nil
	}

	clockText, rest, ok := strings.Cut(line, " ")
	if !ok {
		return Line{}, ErrUnrecognized
	}
	clock, err := parseClock(clockText)
	if err != nil {
		return Line{}, fmt.Errorf("%w: %v", ErrUnrecognized, err)
	}

	sentence, err := parseSentence(strings.TrimSpace(rest))
	if err != nil {
		return Line{}, err
	}
	return Line{Kind: KindSentence, Clock: clock, Sentence: sentence}, nil
}

func parseSession(line string) (time.Time, bool) {
	if len(line) < len(sessionLayout) {
		return time.Time{}, false
	}
	if strings.TrimSpace(line[len(sessionLayout):]) != sessionSuffix {
		return time.Time{}, false
	}
	at, err := time.Parse(sessionLayout, line[:len(sessionLayout)])
	if err != nil {
		return time.Time{}, false
	}
	return at, true
}

// parseClock reads HH:MM:SS[:frac]; the fraction is scaled by its digit count.
func parseClock(text string) (time.Duration, error) {
	parts := strings.Split(text, ":")
	if len(parts) != 3 && len(parts) != 4 {
		return 0, fmt.Errorf("clock %q: want HH:MM:SS:mmm", text)
	}

	limits := [3]int{24, 60, 60}
	units := [3]time.Duration{time.Hour, time.Minute, time.Second}
	var clock time.Duration
	for i := 0; i < 3; i++ {
		v, err := strconv.Atoi(parts[i])
		if err != nil || v < 0 || v >= limits[i] || len(parts[i]) > 2 {
			return 0, fmt.Errorf("clock %q: bad component %q", text, parts[i])
		}
		clock += time.Duration(v) * units[i]
	}

	if len(parts) == 4 {
		frac := parts[3]
		if frac == "" || len(frac) > 9 {
			return 0, fmt.Errorf("clock %q: bad fraction", text)
		}
		v, err := strconv.Atoi(frac)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("clock %q: bad fraction", text)
		}
		scale := time.Duration(1)
		for i := len(frac); i < 9; i++ {
			scale *= 10
		}
		clock += time.Duration(v) * scale
	}
	return clock, nil
}

func parseSentence(text string) (nmea.BaseSentence, error) {
	if !strings.HasPrefix(text, nmea.SentenceStart) {
		return nmea.BaseSentence{}, fmt.Errorf("%w: missing '$'", ErrUnrecognized)
	}
	star := strings.LastIndexByte(text, '*')
	if star == -1 {
		return nmea.BaseSentence{}, fmt.Errorf("%w: missing checksum", ErrUnrecognized)
	}

	payload := text[1:star]
	sum := strings.ToUpper(strings.TrimSpace(text[star+1:]))
	if len(sum) != 2 {
		return nmea.BaseSentence{}, fmt.Errorf("%w: checksum %q", ErrUnrecognized, sum)
	}
	if _, err := strconv.ParseUint(sum, 16, 8); err != nil {
		return nmea.BaseSentence{}, fmt.Errorf("%w: checksum %q", ErrUnrecognized, sum)
	}
	if want := nmea.Checksum(payload); want != sum {
		return nmea.BaseSentence{}, fmt.Errorf("%w: computed %s, line carries %s", ErrChecksum, want, sum)
	}

	fields := strings.Split(payload, nmea.FieldSep)
	id := fields[0]
	if id == "" {
		return nmea.BaseSentence{}, fmt.Errorf("%w: empty sentence id", ErrUnrecognized)
	}
	talker, typ := splitID(id)

	return nmea.BaseSentence{
		Talker:   talker,
		Type:     typ,
		Fields:   fields[1:],
		Checksum: sum,
		Raw:      text,
	}, nil
}

// splitID separates talker and sentence type: "IIVTG" -> ("II", "VTG"),
// proprietary "PNKEP" -> ("P", "NKEP").
func splitID(id string) (string, string) {
	switch {
	case strings.HasPrefix(id, proprietaryPrefix):
		return proprietaryPrefix, id[1:]
	case len(id) >= 5:
		return id[:2], id[2:]
	default:
		return "", id
	}
}
