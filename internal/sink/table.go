package sink

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"nmea-drift/internal/correlation"
)

// Table prints the last Limit metrics of a session as aligned columns on Stop.
type Table struct {
	out     io.Writer
	limit   int
	session Session
	rows    []correlation.Metric
	total   int
}

// NewTable prints to out. A limit of zero or less keeps every metric.
func NewTable(out io.Writer, limit int) *Table {
	return &Table{out: out, limit: limit}
}

func (t *Table) Start(_ context.Context, session Session) error {
	t.session = session
	t.rows = t.rows[:0]
	t.total = 0
	return nil
}

func (t *Table) Write(_ context.Context, m correlation.Metric) error {
	t.total++
	t.rows = append(t.rows, m)
	if t.limit > 0 && len(t.rows) > t.limit {
		t.rows = t.rows[1:]
	}
	return nil
}

func (t *Table) Stop(_ context.Context) error {
	if len(t.rows) == 0 {
		_, err := fmt.Fprintf(t.out, "no metrics in %s\n", t.session.Source)
		return err
	}

	writer := tabwriter.NewWriter(t.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time\tDeltaHdg\tRotation\tDeltaSpd\tBottomHdg\tCompassHdg\tDeclination\tBottomSpd")
	for _, m := range t.rows {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			m.At.Format("2006-01-02 15:04:05.000"),
			cell(m.DeltaHeading, 1),
			cell(m.RotationSpeed, 2),
			cell(m.DeltaSpeed, 2),
			cell(m.BottomHeading, 1),
			cell(m.CompassHeading, 1),
			cell(m.Declination, 1),
			cell(m.BottomSpeed, 2),
		)
	}
	if err := writer.Flush(); err != nil {
		return err
	}
	if t.total > len(t.rows) {
		_, err := fmt.Fprintf(t.out, "(%d of %d metrics shown)\n", len(t.rows), t.total)
		return err
	}
	return nil
}

func cell(v *float64, places int32) string {
	if v == nil {
		return "-"
	}
	return decimal.NewFromFloat(*v).StringFixed(places)
}

var _ Sink = (*Table)(nil)
