// tanimoto_similarity.go
// Package tanimotosimilarity computes Jaccard/Tanimoto similarity between
// compound structure encodings such as SMILES strings.
// Each encoding is reduced to a symbol histogram (the stereo marker '@' counts
// once) and two histograms are compared with:
//
//	coefficient = shared / (totalA + totalB - shared)
//
// where shared is the multiset intersection size. Coefficients are rounded
// half-up to two decimal digits; two empty encodings score 0.
//
// For configurable batch runs use pkg/tanimoto directly.
package tanimotosimilarity

import (
	"context"

	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/signature"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/similarity"
	"github.com/baditaflorin/go_tanimoto_similarity/pkg/tanimoto"
)

// Entity is one compound to compare.
type Entity = tanimoto.Entity

// ResultSet is the similarity table sorted by (IDA, IDB).
type ResultSet = tanimoto.ResultSet

// Similarity returns the rounded coefficient of two encodings.
func Similarity(a, b string) float64 {
	return similarity.Coefficient(signature.Build(a), signature.Build(b), similarity.HalfUp, similarity.DefaultPrecision)
}

// CompareAll computes the coefficient of every unordered pair of entities on
// the given number of workers, logging to stderr.
func CompareAll(ctx context.Context, entities []Entity, workers int) (ResultSet, error) {
	lg, err := createDefaultLogger()
	if err != nil {
		return nil, err
	}
	defer lg.Close()

	engine, err := tanimoto.New(tanimoto.WithWorkers(workers), tanimoto.WithLogger(lg))
	if err != nil {
		return nil, err
	}
	report, err := engine.Run(ctx, entities)
	if err != nil {
		return nil, err
	}
	return report.Results, nil
}
