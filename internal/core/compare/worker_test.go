package compare

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/domain"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/signature"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/similarity"
)

func testCalc(t *testing.T, strict bool) *similarity.Calculator {
	t.Helper()
	cfg := similarity.DefaultConfig()
	cfg.Strict = strict
	calc, err := similarity.NewCalculator(cfg)
	require.NoError(t, err)
	return calc
}

var testEntities = []domain.Entity{
	{ID: "X1", Encoding: "AAB"},
	{ID: "X2", Encoding: "ABB"},
	{ID: "X3", Encoding: "AA"},
	{ID: "X4", Encoding: "BB"},
}

func TestWorkerRunFullRange(t *testing.T) {
	sigs := signature.BuildAll(testEntities)
	w := Worker{ID: 0, Range: domain.Range{Start: 0, End: len(testEntities)}}

	out, err := w.Run(context.Background(), testEntities, sigs, testCalc(t, false))
	require.NoError(t, err)

	expected := []domain.ResultRow{
		{IDA: "X2", IDB: "X1", Coefficient: 0.5},
		{IDA: "X3", IDB: "X1", Coefficient: 0.67},
		{IDA: "X3", IDB: "X2", Coefficient: 0.25},
		{IDA: "X4", IDB: "X1", Coefficient: 0.25},
		{IDA: "X4", IDB: "X2", Coefficient: 0.67},
		{IDA: "X4", IDB: "X3", Coefficient: 0},
	}
	assert.Equal(t, expected, out.Rows)
	assert.Equal(t, 6, out.Pairs)
	assert.Equal(t, 0, out.Degenerate)
	assert.Equal(t, 6, cap(out.Rows))
}

func TestWorkerRunSubRange(t *testing.T) {
	sigs := signature.BuildAll(testEntities)
	w := Worker{ID: 3, Range: domain.Range{Start: 3, End: 4}}

	out, err := w.Run(context.Background(), testEntities, sigs, testCalc(t, false))
	require.NoError(t, err)
	assert.Equal(t, 3, out.WorkerID)
	require.Len(t, out.Rows, 3)
	for _, row := range out.Rows {
		assert.Equal(t, "X4", row.IDA)
	}
}

func TestWorkerEmptyRange(t *testing.T) {
	sigs := signature.BuildAll(testEntities)
	w := Worker{ID: 1, Range: domain.Range{Start: 2, End: 2}}

	out, err := w.Run(context.Background(), testEntities, sigs, testCalc(t, false))
	require.NoError(t, err)
	assert.Empty(t, out.Rows)
}

func TestWorkerDegenerate(t *testing.T) {
	entities := []domain.Entity{{ID: "E1"}, {ID: "E2"}}
	sigs := signature.BuildAll(entities)
	w := Worker{Range: domain.Range{Start: 0, End: 2}}

	out, err := w.Run(context.Background(), entities, sigs, testCalc(t, false))
	require.NoError(t, err)
	require.Len(t, out.Rows, 1)
	assert.Equal(t, 0.0, out.Rows[0].Coefficient)
	assert.Equal(t, 1, out.Degenerate)

	_, err = w.Run(context.Background(), entities, sigs, testCalc(t, true))
	assert.ErrorIs(t, err, domain.ErrDegenerate)
	var werr *domain.WorkerError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, domain.Range{Start: 0, End: 2}, werr.Range)
}

func TestWorkerOutOfBounds(t *testing.T) {
	sigs := signature.BuildAll(testEntities)
	for _, r := range []domain.Range{{Start: -1, End: 2}, {Start: 0, End: 5}, {Start: 3, End: 2}} {
		_, err := Worker{Range: r}.Run(context.Background(), testEntities, sigs, testCalc(t, false))
		assert.ErrorIs(t, err, domain.ErrRangeOutOfBounds, "range %v", r)
	}

	_, err := Worker{Range: domain.Range{Start: 0, End: 4}}.Run(context.Background(), testEntities, sigs[:2], testCalc(t, false))
	assert.ErrorIs(t, err, domain.ErrRangeOutOfBounds)
}

func TestWorkerCancelled(t *testing.T) {
	sigs := signature.BuildAll(testEntities)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Worker{Range: domain.Range{Start: 0, End: 4}}.Run(ctx, testEntities, sigs, testCalc(t, false))
	assert.ErrorIs(t, err, context.Canceled)
}
