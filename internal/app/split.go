package app

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"nmea-drift/internal/logline"
)

const splitStampLayout = "02012006150405"

// SplitResult lists the files written by Split.
type SplitResult struct {
	Files   []string
	Lines   int
	Dropped int
}

// Split copies a log holding several recording sessions into one file per session
// marker, named <base><DDMMYYYYhhmmss>.log. Lines before the first marker are
// dropped. Existing files are never overwritten.
func (a *App) Split(opts SplitOptions) (SplitResult, error) {
	var result SplitResult

	in, err := openInput(opts.Input)
	if err != nil {
		return result, err
	}
	defer in.Close()

	outDir := opts.OutDir
	if outDir == "" {
		outDir = filepath.Dir(opts.Input)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return result, fmt.Errorf("create output directory: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(opts.Input), filepath.Ext(opts.Input))

	var (
		out    *os.File
		writer *bufio.Writer
	)
	closeOut := func() error {
		if out == nil {
			return nil
		}
		err := errors.Join(writer.Flush(), out.Close())
		out, writer = nil, nil
		return err
	}
	defer closeOut()

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, min(4096, a.Config.Input.MaxLineBytes)), a.Config.Input.MaxLineBytes)
	for scanner.Scan() {
		line := scanner.Text()
		result.Lines++

		if parsed, err := logline.Parse(line); err == nil && parsed.Kind == logline.KindSession {
			if err := closeOut(); err != nil {
				return result, fmt.Errorf("close split file: %w", err)
			}
			name := filepath.Join(outDir, base+parsed.Session.Format(splitStampLayout)+".log")
			out, err = os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
			if err != nil {
				return result, fmt.Errorf("create split file: %w", err)
			}
			writer = bufio.NewWriter(out)
			result.Files = append(result.Files, name)
			a.Logger.Info().Str("file", name).Int("line", result.Lines).Msg("new session file")
		}

		if writer == nil {
			result.Dropped++
			continue
		}
		if _, err := writer.WriteString(line + "\n"); err != nil {
			return result, fmt.Errorf("write split file: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("read %s: %w", opts.Input, err)
	}
	if err := closeOut(); err != nil {
		return result, fmt.Errorf("close split file: %w", err)
	}

	a.Logger.Info().
		Str("input", opts.Input).
		Int("files", len(result.Files)).
		Int("lines", result.Lines).
		Int("dropped", result.Dropped).
		Msg("split complete")
	return result, nil
}
