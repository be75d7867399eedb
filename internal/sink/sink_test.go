package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"nmea-drift/internal/correlation"
)

var base = time.Date(2021, time.August, 9, 16, 13, 6, 0, time.UTC)

func f(v float64) *float64 { return &v }

func metricAt(sec int, delta float64) correlation.Metric {
	return correlation.Metric{
		At:             base.Add(time.Duration(sec) * time.Second),
		DeltaHeading:   f(delta),
		BottomHeading:  f(90 + float64(sec)),
		CompassHeading: f(90 + float64(sec) - delta),
		BottomSpeed:    f(7.5),
	}
}

type recorder struct {
	mu     sync.Mutex
	events []string
	failOn string
}

func (r *recorder) record(event string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	if event == r.failOn {
		return errors.New("boom")
	}
	return nil
}

func (r *recorder) Start(_ context.Context, s Session) error {
	return r.record("start:" + s.Source)
}

func (r *recorder) Write(_ context.Context, m correlation.Metric) error {
	return r.record("metric:" + m.At.Format("15:04:05"))
}

func (r *recorder) Stop(context.Context) error {
	return r.record("stop")
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func TestQueuePreservesFraming(t *testing.T) {
	rec := &recorder{}
	q := NewQueue(rec, QueueOptions{Size: 2}, zerolog.Nop())
	ctx := context.Background()

	if err := q.Start(ctx, Session{Source: "log"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 10; i++ {
		if err := q.Write(ctx, metricAt(i, 1)); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
	if err := q.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	events := rec.snapshot()
	if len(events) != 12 {
		t.Fatalf("expected 12 events, got %d: %v", len(events), events)
	}
	if events[0] != "start:log" || events[11] != "stop" {
		t.Fatalf("framing out of order: %v", events)
	}
	for i := 1; i <= 10; i++ {
		want := "metric:" + base.Add(time.Duration(i-1)*time.Second).Format("15:04:05")
		if events[i] != want {
			t.Fatalf("event %d = %q, want %q", i, events[i], want)
		}
	}

	if err := q.Write(ctx, metricAt(20, 1)); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed after stop, got %v", err)
	}
	if err := q.Stop(ctx); err != nil {
		t.Fatalf("second stop should be a no-op, got %v", err)
	}
}

func TestQueueReportsInnerStopError(t *testing.T) {
	rec := &recorder{failOn: "stop"}
	q := NewQueue(rec, QueueOptions{}, zerolog.Nop())
	ctx := context.Background()

	_ = q.Start(ctx, Session{Source: "log"})
	if err := q.Stop(ctx); err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected inner stop error, got %v", err)
	}
}

func TestQueueWriteFailuresDoNotStopTheStream(t *testing.T) {
	rec := &recorder{failOn: "metric:16:13:06"}
	q := NewQueue(rec, QueueOptions{}, zerolog.Nop())
	ctx := context.Background()

	_ = q.Start(ctx, Session{Source: "log"})
	_ = q.Write(ctx, metricAt(0, 1))
	_ = q.Write(ctx, metricAt(1, 1))
	if err := q.Stop(ctx); err != nil {
		t.Fatalf("write failures must not fail stop: %v", err)
	}
	if got := len(rec.snapshot()); got != 4 {
		t.Fatalf("expected 4 events, got %d", got)
	}
}

func TestFanoutJoinsErrors(t *testing.T) {
	good := &recorder{}
	bad := &recorder{failOn: "start:log"}
	fan := NewFanout(bad, good)

	err := fan.Start(context.Background(), Session{Source: "log"})
	if err == nil {
		t.Fatal("expected error from failing sink")
	}
	if len(good.snapshot()) != 1 {
		t.Fatal("healthy sink must still be started")
	}
	if fan.Len() != 2 {
		t.Fatalf("Len = %d", fan.Len())
	}
}

func TestCSVWritesEmptyCellsForAbsentValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "metrics.csv")
	c, err := NewCSV(CSVOptions{Path: path, Delimiter: ';', DecimalComma: true, DecimalPlaces: 2})
	if err != nil {
		t.Fatalf("NewCSV: %v", err)
	}
	ctx := context.Background()

	m := correlation.Metric{
		At:            base,
		DeltaHeading:  f(5),
		DeltaSpeed:    f(1.25),
		BottomHeading: f(90),
	}
	if err := c.Start(ctx, Session{Source: "log"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := c.Write(ctx, m); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one row, got %q", data)
	}
	if !strings.HasPrefix(lines[0], "time;delta_heading;rotation_speed") {
		t.Fatalf("unexpected header %q", lines[0])
	}
	want := "2021-08-09T16:13:06.000;5,00;;1,25;90,00;;;"
	if lines[1] != want {
		t.Fatalf("row = %q, want %q", lines[1], want)
	}
	if c.Rows() != 1 {
		t.Fatalf("Rows = %d", c.Rows())
	}
}

func TestCSVRejectsAmbiguousDecimalComma(t *testing.T) {
	if _, err := NewCSV(CSVOptions{Path: "x.csv", DecimalComma: true}); err == nil {
		t.Fatal("decimal comma with comma delimiter must be rejected")
	}
	if _, err := NewCSV(CSVOptions{}); err == nil {
		t.Fatal("empty path must be rejected")
	}
}

func TestTableKeepsLastRows(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, 2)
	ctx := context.Background()

	_ = table.Start(ctx, Session{Source: "log"})
	for i := 0; i < 3; i++ {
		_ = table.Write(ctx, metricAt(i, float64(i)))
	}
	if err := table.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	out := buf.String()
	if strings.Contains(out, "16:13:06.000") {
		t.Fatalf("oldest row should have been dropped:\n%s", out)
	}
	if !strings.Contains(out, "16:13:08.000") || !strings.Contains(out, "(2 of 3 metrics shown)") {
		t.Fatalf("unexpected table:\n%s", out)
	}
}

func TestTableEmptySession(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, 0)
	_ = table.Start(context.Background(), Session{Source: "empty.log"})
	_ = table.Stop(context.Background())
	if buf.String() != "no metrics in empty.log\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

type fakePublisher struct {
	subjects []string
	payloads [][]byte
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, data)
	return nil
}

func TestNATSPublishesMetricsAndControl(t *testing.T) {
	pub := &fakePublisher{}
	s := NewNATS(pub, "nmea.metrics", zerolog.Nop())
	ctx := context.Background()

	_ = s.Start(ctx, Session{Source: "log", Title: "delta heading"})
	if err := s.Write(ctx, metricAt(0, 5)); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = s.Stop(ctx)

	wantSubjects := []string{"nmea.metrics.control", "nmea.metrics", "nmea.metrics.control"}
	if strings.Join(pub.subjects, ",") != strings.Join(wantSubjects, ",") {
		t.Fatalf("subjects = %v", pub.subjects)
	}

	var decoded map[string]any
	if err := json.Unmarshal(pub.payloads[1], &decoded); err != nil {
		t.Fatalf("metric payload: %v", err)
	}
	if decoded["delta_heading"] != 5.0 {
		t.Fatalf("delta_heading = %v", decoded["delta_heading"])
	}
	if _, ok := decoded["rotation_speed"]; ok {
		t.Fatal("absent values must be omitted from the payload")
	}

	var stop controlMessage
	if err := json.Unmarshal(pub.payloads[2], &stop); err != nil {
		t.Fatalf("control payload: %v", err)
	}
	if stop.Type != "stop" || stop.Count != 1 {
		t.Fatalf("unexpected stop message %+v", stop)
	}
}

func TestChartRendersPNGs(t *testing.T) {
	dir := t.TempDir()
	c, err := NewChart(ChartOptions{
		TimeSeriesPath: filepath.Join(dir, "series.png"),
		ScatterPath:    filepath.Join(dir, "scatter.png"),
		Width:          640,
		Height:         480,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewChart: %v", err)
	}
	ctx := context.Background()

	_ = c.Start(ctx, Session{Source: "log", Title: "delta heading"})
	for i := 0; i < 5; i++ {
		_ = c.Write(ctx, metricAt(i*2, float64(i)-2))
	}
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	for _, name := range []string{"series.png", "scatter.png"} {
		file, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		img, err := png.Decode(file)
		file.Close()
		if err != nil {
			t.Fatalf("decode %s: %v", name, err)
		}
		if img.Bounds().Dx() != 640 {
			t.Fatalf("%s width = %d", name, img.Bounds().Dx())
		}
	}
}

func TestChartSkipsSinglePoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "series.png")
	c, _ := NewChart(ChartOptions{TimeSeriesPath: path}, zerolog.Nop())
	ctx := context.Background()

	_ = c.Start(ctx, Session{Source: "log"})
	_ = c.Write(ctx, metricAt(0, 1))
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("no chart should be written for a single metric")
	}
}

func TestDownsampleKeepsEnds(t *testing.T) {
	var metrics []correlation.Metric
	for i := 0; i < 100; i++ {
		metrics = append(metrics, metricAt(i, 0))
	}
	got := downsample(metrics, 10)
	if len(got) != 10 {
		t.Fatalf("len = %d", len(got))
	}
	if !got[0].At.Equal(metrics[0].At) || !got[9].At.Equal(metrics[99].At) {
		t.Fatal("first and last metrics must be kept")
	}
}
