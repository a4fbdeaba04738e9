package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/domain"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name     string
		encoding string
		expected Signature
	}{
		{"Empty", "", Signature{}},
		{"Repeated symbols", "AAB", Signature{'A': 2, 'B': 1}},
		{"Stereo marker pinned", "C@@C@", Signature{'C': 2, '@': 1}},
		{"Single stereo marker", "@", Signature{'@': 1}},
		{"SMILES", "CC(=O)O", Signature{'C': 2, '(': 1, '=': 1, 'O': 2, ')': 1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sig := Build(tc.encoding)
			assert.NotNil(t, sig)
			assert.Equal(t, tc.expected, sig)
		})
	}
}

func TestStereoMarkerCountsOnce(t *testing.T) {
	sig := Build("N@@@C")
	assert.Equal(t, 1, sig['@'])
	assert.Equal(t, 3, sig.Total())
}

func TestTotal(t *testing.T) {
	assert.Equal(t, 0, Build("").Total())
	assert.Equal(t, 3, Build("AAB").Total())
	assert.Equal(t, 7, Build("CC(=O)O").Total())
}

func TestIntersection(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected int
	}{
		{"Mirrored counts", "AAB", "ABB", 2},
		{"Disjoint", "AA", "BB", 0},
		{"Both empty", "", "", 0},
		{"One empty", "ABC", "", 0},
		{"Subset", "AB", "AABBC", 2},
		{"Stereo markers", "C@@", "C@", 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a, b := Build(tc.a), Build(tc.b)
			assert.Equal(t, tc.expected, Intersection(a, b))
			assert.Equal(t, tc.expected, Intersection(b, a))
		})
	}
}

func TestBuildAll(t *testing.T) {
	entities := []domain.Entity{
		{ID: "X1", Encoding: "AAB"},
		{ID: "X2", Encoding: ""},
		{ID: "X3", Encoding: "@@"},
	}
	sigs := BuildAll(entities)
	assert.Len(t, sigs, 3)
	assert.Equal(t, Signature{'A': 2, 'B': 1}, sigs[0])
	assert.Equal(t, Signature{}, sigs[1])
	assert.Equal(t, Signature{'@': 1}, sigs[2])
}
