// Package cache keeps recently built signatures keyed by encoding.
package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/domain"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/signature"
)

// DefaultSize is the number of distinct encodings kept.
const DefaultSize = 100_000

// SignatureCache is a thread-safe LRU of signatures. Cached signatures are
// shared between callers and must not be modified.
type SignatureCache struct {
	cache *lru.Cache[string, signature.Signature]
}

// NewSignatureCache creates a cache holding up to size signatures.
func NewSignatureCache(size int) (*SignatureCache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	c, err := lru.New[string, signature.Signature](size)
	if err != nil {
		return nil, fmt.Errorf("create signature cache: %w", err)
	}
	return &SignatureCache{cache: c}, nil
}

// Get returns the cached signature of encoding.
func (s *SignatureCache) Get(encoding string) (signature.Signature, bool) {
	return s.cache.Get(encoding)
}

// Add stores the signature of encoding.
func (s *SignatureCache) Add(encoding string, sig signature.Signature) {
	s.cache.Add(encoding, sig)
}

// Len returns the number of cached signatures.
func (s *SignatureCache) Len() int {
	return s.cache.Len()
}

// BuildAll returns one signature per entity, building only those not cached.
// It also reports how many were served from the cache.
func (s *SignatureCache) BuildAll(entities []domain.Entity) ([]signature.Signature, int) {
	sigs := make([]signature.Signature, len(entities))
	hits := 0
	for i, e := range entities {
		if sig, ok := s.cache.Get(e.Encoding); ok {
			sigs[i] = sig
			hits++
			continue
		}
		sig := signature.Build(e.Encoding)
		s.cache.Add(e.Encoding, sig)
		sigs[i] = sig
	}
	return sigs, hits
}
