package ports

import (
	"context"

	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/domain"
)

// SimilarityCalculator compares two encodings.
type SimilarityCalculator interface {
	Compare(a, b string) (float64, error)
}

// MatrixCalculator computes the full pairwise table of a batch of entities.
type MatrixCalculator interface {
	Run(ctx context.Context, entities []domain.Entity) (*domain.Report, error)
}
