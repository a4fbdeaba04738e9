package partition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/domain"
)

type pair struct{ i, j int }

func TestPartitionErrors(t *testing.T) {
	_, err := Partition(10, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidWorkers)

	_, err = Partition(10, -3)
	assert.ErrorIs(t, err, domain.ErrInvalidWorkers)

	_, err = Partition(-1, 2)
	assert.ErrorIs(t, err, domain.ErrInvalidEntityCount)
}

func TestPartitionShape(t *testing.T) {
	pivots, err := Partition(100, 4)
	require.NoError(t, err)
	require.Len(t, pivots, 5)
	assert.Equal(t, 0, pivots[0])
	assert.Equal(t, 100, pivots[4])
	assert.NoError(t, pivots.Validate(100))
	assert.Equal(t, 4, pivots.Workers())

	single, err := Partition(7, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.Pivots{0, 7}, single)

	empty, err := Partition(0, 3)
	require.NoError(t, err)
	assert.Equal(t, domain.Pivots{0, 0, 0, 0}, empty)
}

// TestPartitionCoverage rebuilds the pair set from every worker range and
// compares it with a direct double loop.
func TestPartitionCoverage(t *testing.T) {
	for n := 1; n <= 60; n++ {
		for p := 1; p <= 16; p++ {
			pivots, err := Partition(n, p)
			require.NoError(t, err)
			require.NoError(t, pivots.Validate(n), "n=%d p=%d pivots=%v", n, p, pivots)

			seen := make(map[pair]int)
			for _, r := range pivots.Ranges() {
				for i := r.Start; i < r.End; i++ {
					for j := 0; j < i; j++ {
						seen[pair{i, j}]++
					}
				}
			}

			expected := 0
			for i := 0; i < n; i++ {
				for j := 0; j < i; j++ {
					expected++
					assert.Equal(t, 1, seen[pair{i, j}], "n=%d p=%d pair (%d,%d)", n, p, i, j)
				}
			}
			assert.Len(t, seen, expected, "n=%d p=%d", n, p)
			assert.Equal(t, TotalWork(n), expected)
		}
	}
}

func TestPartitionBalance(t *testing.T) {
	for _, p := range []int{2, 4, 8, 16} {
		pivots, err := Partition(5000, p)
		require.NoError(t, err)
		assert.Less(t, Imbalance(pivots), 1.05, "p=%d pivots=%v", p, pivots)
	}
}

func TestWork(t *testing.T) {
	assert.Equal(t, 0, TotalWork(0))
	assert.Equal(t, 0, TotalWork(1))
	assert.Equal(t, 6, TotalWork(4))
	assert.Equal(t, 5, Work(2, 4))
	assert.Equal(t, 0, Work(3, 3))
	assert.Equal(t, 0, Work(4, 2))
}

func TestBoundary(t *testing.T) {
	assert.Equal(t, 0, Boundary(0))
	// cumulative work of rows 0..2 is 3, so the next range starts at row 3
	assert.Equal(t, 3, Boundary(3))
	assert.Equal(t, 4, Boundary(6))
}
