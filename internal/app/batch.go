package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// BatchResult counts the logs handled by Batch.
type BatchResult struct {
	Processed int
	Failed    int
	Metrics   int
}

// Batch parses every log in a directory one after the other, writing a CSV (and
// optionally a chart) per log into OutDir. A failing log does not stop the batch.
func (a *App) Batch(ctx context.Context, opts BatchOptions) (BatchResult, error) {
	var result BatchResult

	if opts.Pattern == "" {
		opts.Pattern = "*.log"
	}
	matches, err := filepath.Glob(filepath.Join(opts.Dir, opts.Pattern))
	if err != nil {
		return result, fmt.Errorf("invalid --pattern: %w", err)
	}
	sort.Strings(matches)
	if len(matches) == 0 {
		return result, fmt.Errorf("no file matching %s in %s", opts.Pattern, opts.Dir)
	}

	outDir := opts.OutDir
	if outDir == "" {
		outDir = opts.Dir
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return result, fmt.Errorf("create output directory: %w", err)
	}

	for _, input := range matches {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		parseOpts := ParseOptions{
			Input:   input,
			CSVPath: filepath.Join(outDir, base+".csv"),
		}
		if opts.PNG {
			parseOpts.PNGPath = filepath.Join(outDir, base+".png")
			parseOpts.ScatterPath = filepath.Join(outDir, base+"_scatter.png")
		}

		stats, err := a.Parse(ctx, parseOpts)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return result, err
			}
			result.Failed++
			a.Logger.Error().Err(err).Str("input", input).Msg("batch item failed")
			continue
		}
		result.Processed++
		result.Metrics += stats.Emitted
	}

	a.Logger.Info().Int("processed", result.Processed).Int("failed", result.Failed).Msg("batch complete")
	if result.Failed > 0 {
		return result, errors.New("some logs failed to parse, check the log output")
	}
	return result, nil
}
