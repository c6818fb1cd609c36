package storage

import (
	"context"

	"github.com/juju/clock"
	"github.com/rs/zerolog"
)

// Replicator copies a finished artifact to every configured destination,
// one destination at a time.
type Replicator struct {
	backends []Backend
	clock    clock.Clock
	logger   zerolog.Logger
}

// NewReplicator creates a replicator over the given backends. A nil clk
// uses the wall clock.
func NewReplicator(backends []Backend, clk clock.Clock, logger zerolog.Logger) *Replicator {
	if clk == nil {
		clk = clock.WallClock
	}
	return &Replicator{backends: backends, clock: clk, logger: logger}
}

// Backends returns the destinations this replicator writes to.
func (r *Replicator) Backends() []Backend {
	return r.backends
}

// Replicate uploads sourcePath to destPath on each backend in order.
// A failing backend does not stop the others.
func (r *Replicator) Replicate(ctx context.Context, sourcePath, destPath string) []Result {
	results := make([]Result, 0, len(r.backends))

	for _, b := range r.backends {
		start := r.clock.Now()

		r.logger.Debug().
			Str("backend", b.Name()).
			Str("type", b.Type()).
			Str("file", destPath).
			Msg("starting upload")

		err := b.Write(ctx, sourcePath, destPath)
		duration := r.clock.Now().Sub(start)

		if err != nil {
			r.logger.Error().
				Err(err).
				Str("backend", b.Name()).
				Dur("duration", duration).
				Msg("upload failed")
		} else {
			r.logger.Info().
				Str("backend", b.Name()).
				Dur("duration", duration).
				Msg("upload succeeded")
		}

		results = append(results, Result{
			BackendName: b.Name(),
			BackendType: b.Type(),
			Success:     err == nil,
			Error:       err,
			Duration:    duration,
		})
	}

	return results
}

// Close closes every backend.
func (r *Replicator) Close() {
	CloseAll(r.backends)
}

// Failed returns the results that carry an error.
func Failed(results []Result) []Result {
	var failed []Result
	for _, res := range results {
		if !res.Success {
			failed = append(failed, res)
		}
	}
	return failed
}
