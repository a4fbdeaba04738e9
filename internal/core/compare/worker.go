// Package compare runs the comparisons of one contiguous slice of the pair space.
package compare

import (
	"context"
	"time"

	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/domain"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/partition"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/signature"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/similarity"
)

// Worker owns the row range [Range.Start, Range.End).
type Worker struct {
	ID    int
	Range domain.Range
}

// Output is the private result buffer of one worker.
type Output struct {
	WorkerID   int
	Range      domain.Range
	Rows       []domain.ResultRow
	Pairs      int
	Degenerate int
	Duration   time.Duration
}

// Run compares every row i in the worker's range against all rows j < i.
// sigs[i] must be the signature of entities[i]. Neither slice is modified.
func (w Worker) Run(
	ctx context.Context,
	entities []domain.Entity,
	sigs []signature.Signature,
	calc *similarity.Calculator,
) (Output, error) {
	start := time.Now()
	out := Output{WorkerID: w.ID, Range: w.Range}

	if w.Range.Start < 0 || w.Range.End > len(entities) || w.Range.Start > w.Range.End ||
		len(sigs) != len(entities) {
		return out, w.fail(domain.ErrRangeOutOfBounds)
	}

	out.Rows = make([]domain.ResultRow, 0, partition.Work(w.Range.Start, w.Range.End))
	done := ctx.Done()

	for i := w.Range.Start; i < w.Range.End; i++ {
		sigA := sigs[i]
		idA := entities[i].ID
		for j := 0; j < i; j++ {
			select {
			case <-done:
				return out, w.fail(ctx.Err())
			default:
			}

			sigB := sigs[j]
			coef, err := calc.Compute(sigA, sigB)
			if err != nil {
				return out, w.fail(err)
			}
			if similarity.IsDegenerate(sigA, sigB) {
				out.Degenerate++
			}
			out.Rows = append(out.Rows, domain.ResultRow{
				IDA:         idA,
				IDB:         entities[j].ID,
				Coefficient: coef,
			})
		}
	}

	out.Pairs = len(out.Rows)
	out.Duration = time.Since(start)
	return out, nil
}

func (w Worker) fail(err error) error {
	return &domain.WorkerError{WorkerID: w.ID, Range: w.Range, Err: err}
}
