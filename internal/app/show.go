package app

import (
	"context"
	"fmt"

	"nmea-drift/internal/service"
	"nmea-drift/internal/sink"
)

// Show correlates a log and prints the last metrics as a table.
func (a *App) Show(ctx context.Context, opts ShowOptions) (service.Stats, error) {
	if opts.Limit <= 0 {
		return service.Stats{}, fmt.Errorf("limit must be greater than zero")
	}

	file, err := openInput(opts.Input)
	if err != nil {
		return service.Stats{}, err
	}
	defer file.Close()

	svc := a.newService(sink.NewTable(a.Out, opts.Limit))
	return svc.Process(ctx, file, opts.Input)
}
