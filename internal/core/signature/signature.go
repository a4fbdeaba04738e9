package signature

import "github.com/baditaflorin/go_tanimoto_similarity/internal/core/domain"

// StereoMarker is counted at most once per encoding regardless of repetitions.
const StereoMarker = '@'

// Signature is the symbol frequency histogram of one encoding.
type Signature map[rune]int

// Build counts every symbol in the encoding. If the stereo marker occurs at all
// its count is pinned to 1.
func Build(encoding string) Signature {
	sig := make(Signature)
	for _, r := range encoding {
		sig[r]++
	}
	if _, ok := sig[StereoMarker]; ok {
		sig[StereoMarker] = 1
	}
	return sig
}

// Total returns the number of symbols counted in the signature.
func (s Signature) Total() int {
	total := 0
	for _, count := range s {
		total += count
	}
	return total
}

// Intersection returns the multiset intersection cardinality of a and b:
// the sum over shared symbols of the smaller count.
func Intersection(a, b Signature) int {
	// Walk the smaller map; the result does not depend on the direction.
	if len(b) < len(a) {
		a, b = b, a
	}
	shared := 0
	for symbol, countA := range a {
		countB, ok := b[symbol]
		if !ok {
			continue
		}
		shared += min(countA, countB)
	}
	return shared
}

// BuildAll builds one signature per entity, index aligned with entities.
func BuildAll(entities []domain.Entity) []Signature {
	sigs := make([]Signature, len(entities))
	for i, e := range entities {
		sigs[i] = Build(e.Encoding)
	}
	return sigs
}
