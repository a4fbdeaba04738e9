package domain

import "time"

// Entity is one loaded compound: an identifier and its structure encoding.
type Entity struct {
	ID       string `json:"id"`
	Encoding string `json:"encoding"`
}

// ResultRow holds the coefficient computed for one unordered entity pair.
type ResultRow struct {
	IDA         string  `json:"id_a"`
	IDB         string  `json:"id_b"`
	Coefficient float64 `json:"coefficient"`
}

// ResultSet is the merged output of all comparison workers.
type ResultSet []ResultRow

// Range is a half-open interval [Start, End) of row indices.
type Range struct {
	Start int
	End   int
}

// Len returns the number of rows in the range.
func (r Range) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start
}

// Pivots holds numberOfWorkers+1 row boundaries. Worker k owns [Pivots[k], Pivots[k+1]).
type Pivots []int

// Workers returns the number of ranges described by the pivots.
func (p Pivots) Workers() int {
	if len(p) == 0 {
		return 0
	}
	return len(p) - 1
}

// Ranges expands the pivots into one Range per worker.
func (p Pivots) Ranges() []Range {
	ranges := make([]Range, 0, p.Workers())
	for k := 0; k+1 < len(p); k++ {
		ranges = append(ranges, Range{Start: p[k], End: p[k+1]})
	}
	return ranges
}

// Validate checks that the pivots are anchored to [0, n] and non-decreasing.
func (p Pivots) Validate(n int) error {
	if len(p) < 2 {
		return ErrInvalidPivots
	}
	if p[0] != 0 || p[len(p)-1] != n {
		return ErrInvalidPivots
	}
	for k := 1; k < len(p); k++ {
		if p[k] < p[k-1] {
			return ErrInvalidPivots
		}
	}
	return nil
}

// Report describes one completed batch run.
type Report struct {
	RunID      string
	Results    ResultSet
	Entities   int
	Workers    int
	Pivots     Pivots
	Pairs      int
	Degenerate int
	Elapsed    time.Duration
}
