package aggregate

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/compare"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/domain"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/executor"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/partition"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/signature"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/similarity"
)

func TestMergeConcatenates(t *testing.T) {
	outputs := []compare.Output{
		{WorkerID: 0, Rows: []domain.ResultRow{{IDA: "B", IDB: "A", Coefficient: 0.1}}},
		{WorkerID: 1},
		{WorkerID: 2, Rows: []domain.ResultRow{
			{IDA: "A", IDB: "C", Coefficient: 0.2},
			{IDA: "A", IDB: "B", Coefficient: 0.3},
		}},
	}

	raw := Merge(outputs, false)
	assert.Equal(t, domain.ResultSet{
		{IDA: "B", IDB: "A", Coefficient: 0.1},
		{IDA: "A", IDB: "C", Coefficient: 0.2},
		{IDA: "A", IDB: "B", Coefficient: 0.3},
	}, raw)
	assert.False(t, IsSorted(raw))

	sorted := Merge(outputs, true)
	assert.Equal(t, domain.ResultSet{
		{IDA: "A", IDB: "B", Coefficient: 0.3},
		{IDA: "A", IDB: "C", Coefficient: 0.2},
		{IDA: "B", IDB: "A", Coefficient: 0.1},
	}, sorted)
	assert.True(t, IsSorted(sorted))
}

func TestMergeEmpty(t *testing.T) {
	rs := Merge(nil, true)
	assert.NotNil(t, rs)
	assert.Empty(t, rs)
}

func TestSortIsStable(t *testing.T) {
	rs := domain.ResultSet{
		{IDA: "A", IDB: "B", Coefficient: 0.9},
		{IDA: "A", IDB: "B", Coefficient: 0.1},
	}
	Sort(rs)
	assert.Equal(t, 0.9, rs[0].Coefficient)
	assert.Equal(t, 0.1, rs[1].Coefficient)
}

// TestParallelMatchesSingleWorker checks that the worker count changes only
// the production order of rows, never the rows themselves.
func TestParallelMatchesSingleWorker(t *testing.T) {
	entities := make([]domain.Entity, 120)
	for i := range entities {
		entities[i] = domain.Entity{
			ID:       fmt.Sprintf("ZINC%04d", (i*37)%1000),
			Encoding: fmt.Sprintf("C%sO%s[C@@H]N", string(rune('A'+i%9)), string(rune('a'+i%5))),
		}
	}
	sigs := signature.BuildAll(entities)
	calc, err := similarity.NewCalculator(similarity.DefaultConfig())
	require.NoError(t, err)

	run := func(workers int) domain.ResultSet {
		pivots, err := partition.Partition(len(entities), workers)
		require.NoError(t, err)
		outputs, err := executor.New(executor.Config{}, nil).Run(context.Background(), entities, pivots, sigs, calc)
		require.NoError(t, err)
		return Merge(outputs, true)
	}

	baseline := run(1)
	require.Len(t, baseline, partition.TotalWork(len(entities)))
	for _, workers := range []int{2, 3, 7, 16, 120} {
		assert.True(t, Equal(baseline, run(workers)), "workers=%d", workers)
	}
}
