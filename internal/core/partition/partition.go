// Package partition splits the triangular pair space over a fixed number of workers.
//
// Rows are compared against every earlier row (j < i), so row i costs i
// comparisons and n rows cost T = n(n-1)/2. Self-pairs are never compared.
// Worker k owns the half-open row range [pivots[k], pivots[k+1]).
package partition

import (
	"math"

	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/domain"
)

// TotalWork returns the number of unordered pairs among n entities.
func TotalWork(n int) int {
	if n < 2 {
		return 0
	}
	return n * (n - 1) / 2
}

// Work returns the number of comparisons made by rows [start, end).
func Work(start, end int) int {
	if end <= start {
		return 0
	}
	return TotalWork(end) - TotalWork(start)
}

// Partition computes p+1 pivots that divide n rows into p contiguous ranges of
// near-equal comparison work. More workers than rows is allowed here and
// produces empty ranges.
func Partition(n, p int) (domain.Pivots, error) {
	if p <= 0 {
		return nil, domain.ErrInvalidWorkers
	}
	if n < 0 {
		return nil, domain.ErrInvalidEntityCount
	}

	pivots := make(domain.Pivots, p+1)
	pivots[0] = 0
	total := float64(TotalWork(n))
	for k := 1; k < p; k++ {
		target := float64(k) * total / float64(p)
		boundary := Boundary(target)
		// clamp keeps the sequence monotonic and inside [0, n]
		boundary = max(boundary, pivots[k-1])
		boundary = min(boundary, n)
		pivots[k] = boundary
	}
	pivots[p] = n
	return pivots, nil
}

// Boundary returns the first row of the range whose cumulative work reaches w.
// It solves i² + i - 2w = 0, rounds the root and steps past it.
func Boundary(w float64) int {
	if w <= 0 {
		return 0
	}
	root := (-1 + math.Sqrt(1+8*w)) / 2
	return int(math.Round(root)) + 1
}

// Imbalance reports the largest worker's share of work relative to a perfect
// split. 1.0 means perfectly balanced.
func Imbalance(pivots domain.Pivots) float64 {
	workers := pivots.Workers()
	if workers == 0 {
		return 0
	}
	total := Work(pivots[0], pivots[workers])
	if total == 0 {
		return 1
	}
	largest := 0
	for _, r := range pivots.Ranges() {
		largest = max(largest, Work(r.Start, r.End))
	}
	return float64(largest) * float64(workers) / float64(total)
}
