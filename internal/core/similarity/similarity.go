// Package similarity computes the Jaccard/Tanimoto coefficient of two signatures.
//
//	coefficient = intersection / (totalA + totalB - intersection)
//
// The ratio is rounded in integer arithmetic so the result never depends on
// floating point representation of the intermediate quotient.
package similarity

import (
	"errors"
	"strconv"

	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/domain"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/signature"
)

// RoundingMode selects how ties are resolved when rounding the coefficient.
type RoundingMode int

const (
	// HalfUp rounds ties away from zero (0.125 -> 0.13).
	HalfUp RoundingMode = iota
	// HalfEven rounds ties to the even digit (0.125 -> 0.12).
	HalfEven
)

// DefaultPrecision is the number of decimal digits kept in a coefficient.
const DefaultPrecision = 2

// MaxPrecision bounds the precision so the scaled intersection fits an int64.
const MaxPrecision = 9

// String returns the configuration name of the mode.
func (m RoundingMode) String() string {
	switch m {
	case HalfUp:
		return "half-up"
	case HalfEven:
		return "half-even"
	default:
		return "unknown"
	}
}

// ParseRoundingMode parses "half-up" or "half-even".
func ParseRoundingMode(s string) (RoundingMode, error) {
	switch s {
	case "", "half-up":
		return HalfUp, nil
	case "half-even":
		return HalfEven, nil
	default:
		return HalfUp, errors.New("rounding must be 'half-up' or 'half-even'")
	}
}

// Config holds configuration for the coefficient calculator.
type Config struct {
	Precision int
	Rounding  RoundingMode
	// Strict turns the degenerate case into ErrDegenerate instead of 0.
	Strict bool
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Precision: DefaultPrecision,
		Rounding:  HalfUp,
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.Precision < 0 || c.Precision > MaxPrecision {
		return errors.New("precision must be between 0 and 9")
	}
	if c.Rounding != HalfUp && c.Rounding != HalfEven {
		return errors.New("unknown rounding mode")
	}
	return nil
}

// Calculator computes rounded coefficients with a fixed configuration.
type Calculator struct {
	config Config
	scale  int64
}

// NewCalculator creates a new coefficient calculator.
func NewCalculator(config Config) (*Calculator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{
		config: config,
		scale:  pow10(config.Precision),
	}, nil
}

// Config returns the calculator configuration.
func (c *Calculator) Config() Config {
	return c.config
}

// Compute returns the rounded coefficient of a and b. Two empty signatures
// yield 0, or ErrDegenerate when the calculator is strict.
func (c *Calculator) Compute(a, b signature.Signature) (float64, error) {
	shared := signature.Intersection(a, b)
	union := a.Total() + b.Total() - shared
	if union == 0 {
		if c.config.Strict {
			return 0, domain.ErrDegenerate
		}
		return 0, nil
	}
	return c.round(int64(shared), int64(union)), nil
}

// round returns num/den rounded to the configured precision.
func (c *Calculator) round(num, den int64) float64 {
	scaled := num * c.scale
	q, r := scaled/den, scaled%den
	switch c.config.Rounding {
	case HalfEven:
		if 2*r > den || (2*r == den && q%2 == 1) {
			q++
		}
	default:
		if 2*r >= den {
			q++
		}
	}
	return float64(q) / float64(c.scale)
}

// Format renders the coefficient with exactly the configured number of digits.
func (c *Calculator) Format(coef float64) string {
	return Format(coef, c.config.Precision)
}

// IsDegenerate reports whether both signatures are empty.
func IsDegenerate(a, b signature.Signature) bool {
	return a.Total() == 0 && b.Total() == 0
}

// Coefficient computes the coefficient with the given rounding, mapping the
// degenerate case to 0.
func Coefficient(a, b signature.Signature, mode RoundingMode, precision int) float64 {
	calc := Calculator{
		config: Config{Precision: precision, Rounding: mode},
		scale:  pow10(precision),
	}
	coef, _ := calc.Compute(a, b)
	return coef
}

// Format renders coef in fixed point with precision digits.
func Format(coef float64, precision int) string {
	return strconv.FormatFloat(coef, 'f', precision, 64)
}

// AppendFormat appends the fixed point rendering of coef to dst.
func AppendFormat(dst []byte, coef float64, precision int) []byte {
	return strconv.AppendFloat(dst, coef, 'f', precision, 64)
}

func pow10(n int) int64 {
	scale := int64(1)
	for i := 0; i < n; i++ {
		scale *= 10
	}
	return scale
}
