// Package aggregate merges the per-worker outputs into one result set.
package aggregate

import (
	"cmp"
	"slices"

	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/compare"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/domain"
)

// Merge concatenates worker outputs in worker order. When sorted is set the
// rows are stably sorted by IDA, ties broken by IDB.
func Merge(outputs []compare.Output, sorted bool) domain.ResultSet {
	total := 0
	for _, out := range outputs {
		total += len(out.Rows)
	}
	rs := make(domain.ResultSet, 0, total)
	for _, out := range outputs {
		rs = append(rs, out.Rows...)
	}
	if sorted {
		Sort(rs)
	}
	return rs
}

// Sort stably orders rows by IDA then IDB.
func Sort(rs domain.ResultSet) {
	slices.SortStableFunc(rs, compareRows)
}

// IsSorted reports whether rows are in canonical order.
func IsSorted(rs domain.ResultSet) bool {
	return slices.IsSortedFunc(rs, compareRows)
}

// Equal reports whether two result sets hold the same rows in the same order.
func Equal(a, b domain.ResultSet) bool {
	return slices.Equal(a, b)
}

func compareRows(a, b domain.ResultRow) int {
	if c := cmp.Compare(a.IDA, b.IDA); c != 0 {
		return c
	}
	return cmp.Compare(a.IDB, b.IDB)
}
