package normalizer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/baditaflorin/go_tanimoto_similarity/internal/ports"
)

// Type selects a normalizer implementation.
type Type int

const (
	// TrimType strips surrounding whitespace. This is the default.
	TrimType Type = iota
	// RawType leaves encodings untouched, so every symbol is counted.
	RawType
	// CompactType removes all whitespace, including inside the encoding.
	CompactType
)

// ParseType parses "trim", "raw" or "compact".
func ParseType(s string) (Type, error) {
	switch s {
	case "", "trim":
		return TrimType, nil
	case "raw":
		return RawType, nil
	case "compact":
		return CompactType, nil
	default:
		return TrimType, fmt.Errorf("unknown normalizer %q", s)
	}
}

// New creates a normalizer of the given type.
func New(t Type) ports.Normalizer {
	switch t {
	case RawType:
		return RawNormalizer{}
	case CompactType:
		return CompactNormalizer{}
	default:
		return NewDefaultNormalizer()
	}
}

// DefaultNormalizer trims surrounding whitespace and carriage returns.
type DefaultNormalizer struct{}

// NewDefaultNormalizer creates a new default normalizer.
func NewDefaultNormalizer() ports.Normalizer {
	return DefaultNormalizer{}
}

func (DefaultNormalizer) Normalize(text string) string {
	return strings.TrimSpace(text)
}

// RawNormalizer returns its input unchanged.
type RawNormalizer struct{}

func (RawNormalizer) Normalize(text string) string {
	return text
}

// CompactNormalizer drops every whitespace rune.
type CompactNormalizer struct{}

func (CompactNormalizer) Normalize(text string) string {
	// fast path: nothing to drop
	clean := true
	for i := 0; i < len(text); i++ {
		if c := text[i]; c == ' ' || c == '\t' || c == '\r' || c == '\n' || c >= 0x80 {
			clean = false
			break
		}
	}
	if clean {
		return text
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
}
