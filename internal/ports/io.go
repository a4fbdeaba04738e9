package ports

import (
	"context"
	"io"
	"time"

	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/domain"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/signature"
)

// EntityLoader reads the entity table.
type EntityLoader interface {
	Load(ctx context.Context, r io.Reader) ([]domain.Entity, error)
	LoadFile(ctx context.Context, path string) ([]domain.Entity, error)
}

// ResultWriter writes the similarity table.
type ResultWriter interface {
	Write(ctx context.Context, w io.Writer, rs domain.ResultSet, elapsed time.Duration) error
	WriteFile(ctx context.Context, path string, rs domain.ResultSet, elapsed time.Duration) error
}

// SignatureCache remembers signatures by encoding.
type SignatureCache interface {
	Get(encoding string) (signature.Signature, bool)
	Add(encoding string, sig signature.Signature)
}
