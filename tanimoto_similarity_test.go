// tanimoto_similarity_test.go
package tanimotosimilarity

import (
	"context"
	"testing"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected float64
	}{
		{name: "Identical", a: "CC(=O)O", b: "CC(=O)O", expected: 1},
		{name: "Mirrored counts", a: "AAB", b: "ABB", expected: 0.5},
		{name: "Disjoint", a: "AA", b: "BB", expected: 0},
		{name: "Both empty", a: "", b: "", expected: 0},
		{name: "Stereo markers count once", a: "C@@@", b: "C@", expected: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Similarity(tc.a, tc.b); got != tc.expected {
				t.Errorf("expected %v, got %v", tc.expected, got)
			}
			if got := Similarity(tc.b, tc.a); got != tc.expected {
				t.Errorf("expected symmetric %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestCompareAll(t *testing.T) {
	entities := []Entity{
		{ID: "X3", Encoding: "AA"},
		{ID: "X1", Encoding: "AAB"},
		{ID: "X2", Encoding: "ABB"},
	}
	rs, err := CompareAll(context.Background(), entities, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rs) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rs))
	}
	if rs[0].IDA != "X1" || rs[0].IDB != "X3" || rs[0].Coefficient != 0.67 {
		t.Errorf("unexpected first row %+v", rs[0])
	}

	if _, err := CompareAll(context.Background(), entities, 5); err == nil {
		t.Error("expected an error for more workers than entities")
	}
}
