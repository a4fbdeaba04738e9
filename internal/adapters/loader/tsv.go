// Package loader reads the tab-separated entity table.
package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/baditaflorin/go_tanimoto_similarity/internal/adapters/compression"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/adapters/normalizer"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/domain"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/ports"
)

// Zero-based column positions of the identifier and the encoding.
const (
	IDColumn       = 1
	EncodingColumn = 3
	minColumns     = EncodingColumn + 1
)

// Config holds loader settings.
type Config struct {
	// SkipHeader drops the first record.
	SkipHeader bool
}

// TSVLoader parses rows of the form `_ \t id \t _ \t encoding ...`.
type TSVLoader struct {
	config     Config
	logger     ports.Logger
	normalizer ports.Normalizer
}

// NewTSVLoader creates a loader. A nil normalizer trims whitespace.
func NewTSVLoader(config Config, logger ports.Logger, norm ports.Normalizer) *TSVLoader {
	if logger == nil {
		logger = ports.NopLogger{}
	}
	if norm == nil {
		norm = normalizer.NewDefaultNormalizer()
	}
	return &TSVLoader{config: config, logger: logger, normalizer: norm}
}

// LoadFile opens path, decompressing by extension, and loads it.
func (t *TSVLoader) LoadFile(ctx context.Context, path string) ([]domain.Entity, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	codec := compression.FromPath(path)
	r, err := compression.NewReader(f, codec)
	if err != nil {
		return nil, fmt.Errorf("open %s stream: %w", codec, err)
	}
	defer r.Close()

	entities, err := t.Load(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	t.logger.Info("Loaded entities", "path", path, "codec", codec.String(), "count", len(entities))
	return entities, nil
}

// Load reads every record from r. A record with fewer than four columns fails
// the whole load with a *domain.ParseError.
func (t *TSVLoader) Load(ctx context.Context, r io.Reader) ([]domain.Entity, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	var entities []domain.Entity
	first := true
	for n := 0; ; n++ {
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}
		if first {
			first = false
			if t.config.SkipHeader {
				continue
			}
		}

		if len(record) < minColumns {
			line, _ := cr.FieldPos(0)
			return nil, &domain.ParseError{Line: line, Columns: len(record), Err: domain.ErrMalformedRow}
		}
		entities = append(entities, domain.Entity{
			ID:       record[IDColumn],
			Encoding: t.normalizer.Normalize(record[EncodingColumn]),
		})
	}

	t.logger.Debug("Parsed entity table", "rows", len(entities))
	return entities, nil
}
