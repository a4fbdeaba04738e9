// Package executor runs one comparison worker per pivot range and joins them.
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/compare"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/domain"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/signature"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/similarity"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/ports"
)

// Config holds executor settings.
type Config struct {
	// Timeout bounds the whole parallel phase. Zero disables it.
	Timeout time.Duration
}

// Executor spawns exactly one goroutine per range.
type Executor struct {
	config Config
	logger ports.Logger
}

// New creates a new executor.
func New(config Config, logger ports.Logger) *Executor {
	if logger == nil {
		logger = ports.NopLogger{}
	}
	return &Executor{config: config, logger: logger}
}

// Run starts len(pivots)-1 workers and blocks until all of them have returned.
// On failure no partial output is returned; the first worker error is reported
// after every worker has joined.
func (e *Executor) Run(
	ctx context.Context,
	entities []domain.Entity,
	pivots domain.Pivots,
	sigs []signature.Signature,
	calc *similarity.Calculator,
) ([]compare.Output, error) {
	if err := pivots.Validate(len(entities)); err != nil {
		return nil, fmt.Errorf("pivots %v for %d entities: %w", pivots, len(entities), err)
	}

	runCtx := ctx
	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	ranges := pivots.Ranges()
	outputs := make([]compare.Output, len(ranges))
	g, gctx := errgroup.WithContext(runCtx)

	for k, r := range ranges {
		w := compare.Worker{ID: k, Range: r}
		g.Go(func() (err error) {
			defer func() {
				if p := recover(); p != nil {
					err = &domain.WorkerError{WorkerID: w.ID, Range: w.Range, Err: fmt.Errorf("panic: %v", p)}
				}
			}()
			out, err := w.Run(gctx, entities, sigs, calc)
			if err != nil {
				return err
			}
			outputs[w.ID] = out
			e.logger.Debug("Worker finished",
				"worker", w.ID,
				"start", r.Start,
				"end", r.End,
				"pairs", out.Pairs,
				"duration", out.Duration,
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("%w after %s: %w", domain.ErrTimeout, e.config.Timeout, err)
		}
		e.logger.Error("Parallel comparison failed", "workers", len(ranges), "error", err)
		return nil, err
	}
	return outputs, nil
}
