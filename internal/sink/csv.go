package sink

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"nmea-drift/internal/correlation"
)

const csvTimeLayout = "2006-01-02T15:04:05.000"

var csvHeader = []string{
	"time",
	"delta_heading",
	"rotation_speed",
	"delta_speed",
	"bottom_heading",
	"declination",
	"compass_heading",
	"bottom_speed",
}

// CSVOptions control the file layout.
type CSVOptions struct {
	Path      string
	Delimiter rune
	// DecimalComma writes 12,5 instead of 12.5 for spreadsheets in such locales.
	DecimalComma  bool
	DecimalPlaces int32
}

// CSV writes one row per metric. Absent values are left as empty cells.
type CSV struct {
	opts   CSVOptions
	file   *os.File
	writer *csv.Writer
	rows   int
}

// NewCSV validates opts; the file is created on Start.
func NewCSV(opts CSVOptions) (*CSV, error) {
	if opts.Path == "" {
		return nil, errors.New("csv sink: path is required")
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	if opts.DecimalComma && opts.Delimiter == ',' {
		return nil, errors.New("csv sink: decimal comma needs a delimiter other than ','")
	}
	if opts.DecimalPlaces < 0 {
		opts.DecimalPlaces = 0
	}
	return &CSV{opts: opts}, nil
}

// Rows reports how many data rows were written.
func (c *CSV) Rows() int {
	return c.rows
}

func (c *CSV) Start(_ context.Context, _ Session) error {
	if err := ensureDir(c.opts.Path); err != nil {
		return fmt.Errorf("csv sink: %w", err)
	}
	file, err := os.Create(c.opts.Path)
	if err != nil {
		return fmt.Errorf("csv sink: %w", err)
	}
	c.file = file
	c.writer = csv.NewWriter(file)
	c.writer.Comma = c.opts.Delimiter
	c.rows = 0
	return c.writer.Write(csvHeader)
}

func (c *CSV) Write(_ context.Context, m correlation.Metric) error {
	if c.writer == nil {
		return errors.New("csv sink: write before start")
	}
	record := []string{
		m.At.Format(csvTimeLayout),
		c.format(m.DeltaHeading),
		c.format(m.RotationSpeed),
		c.format(m.DeltaSpeed),
		c.format(m.BottomHeading),
		c.format(m.Declination),
		c.format(m.CompassHeading),
		c.format(m.BottomSpeed),
	}
	if err := c.writer.Write(record); err != nil {
		return err
	}
	c.rows++
	return nil
}

func (c *CSV) Stop(_ context.Context) error {
	if c.writer == nil {
		return nil
	}
	c.writer.Flush()
	werr := c.writer.Error()
	cerr := c.file.Close()
	c.writer = nil
	c.file = nil
	return errors.Join(werr, cerr)
}

func (c *CSV) format(v *float64) string {
	if v == nil {
		return ""
	}
	s := decimal.NewFromFloat(*v).StringFixed(c.opts.DecimalPlaces)
	if c.opts.DecimalComma {
		s = strings.Replace(s, ".", ",", 1)
	}
	return s
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

var _ Sink = (*CSV)(nil)
