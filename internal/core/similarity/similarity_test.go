package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/domain"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/signature"
)

func newCalc(t *testing.T, cfg Config) *Calculator {
	t.Helper()
	calc, err := NewCalculator(cfg)
	require.NoError(t, err)
	return calc
}

func TestComputeExamples(t *testing.T) {
	calc := newCalc(t, DefaultConfig())

	tests := []struct {
		name     string
		a, b     string
		expected float64
		text     string
	}{
		// intersection min(2,1)+min(1,2) = 2, union 3+3-2 = 4
		{"Mirrored counts", "AAB", "ABB", 0.5, "0.50"},
		{"Disjoint", "AA", "BB", 0, "0.00"},
		{"Both empty", "", "", 0, "0.00"},
		{"One empty", "CCO", "", 0, "0.00"},
		{"Identical", "CC(=O)O", "CC(=O)O", 1, "1.00"},
		// 2 / 7 = 0.2857...
		{"Rounded up", "AB", "ABCDEFG", 0.29, "0.29"},
		// 1 / 3 = 0.333...
		{"Rounded down", "A", "ABC", 0.33, "0.33"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			coef, err := calc.Compute(signature.Build(tc.a), signature.Build(tc.b))
			require.NoError(t, err)
			assert.Equal(t, tc.expected, coef)
			assert.Equal(t, tc.text, calc.Format(coef))
		})
	}
}

func TestRoundingTies(t *testing.T) {
	// 1 / 8 = 0.125 is an exact tie at two digits.
	a := signature.Build("A")
	b := signature.Build("ABCDEFGH")

	assert.Equal(t, 0.13, newCalc(t, Config{Precision: 2, Rounding: HalfUp}).mustCompute(a, b))
	assert.Equal(t, 0.12, newCalc(t, Config{Precision: 2, Rounding: HalfEven}).mustCompute(a, b))

	// 3 / 8 = 0.375: half-even rounds towards 0.38.
	c := signature.Build("ABC")
	assert.Equal(t, 0.38, newCalc(t, Config{Precision: 2, Rounding: HalfUp}).mustCompute(c, b))
	assert.Equal(t, 0.38, newCalc(t, Config{Precision: 2, Rounding: HalfEven}).mustCompute(c, b))

	// 1 / 2 at zero digits.
	d := signature.Build("AB")
	assert.Equal(t, 1.0, newCalc(t, Config{Precision: 0, Rounding: HalfUp}).mustCompute(signature.Build("A"), d))
	assert.Equal(t, 0.0, newCalc(t, Config{Precision: 0, Rounding: HalfEven}).mustCompute(signature.Build("A"), d))
}

func (c *Calculator) mustCompute(a, b signature.Signature) float64 {
	coef, err := c.Compute(a, b)
	if err != nil {
		panic(err)
	}
	return coef
}

func TestStrictDegenerate(t *testing.T) {
	calc := newCalc(t, Config{Precision: 2, Strict: true})
	_, err := calc.Compute(signature.Build(""), signature.Build(""))
	assert.ErrorIs(t, err, domain.ErrDegenerate)

	coef, err := calc.Compute(signature.Build("A"), signature.Build(""))
	require.NoError(t, err)
	assert.Equal(t, 0.0, coef)

	assert.True(t, IsDegenerate(signature.Build(""), signature.Build("")))
	assert.False(t, IsDegenerate(signature.Build("A"), signature.Build("")))
}

func TestProperties(t *testing.T) {
	encodings := []string{
		"C", "CC", "CCO", "c1ccccc1", "C[C@@H](O)C(=O)O", "N[C@@H](C)C(=O)O",
		"O=C=O", "ClC(Cl)(Cl)Cl", "CC(C)CC1=CC=C(C=C1)C(C)C(=O)O", "@@@", "Br",
	}
	for _, mode := range []RoundingMode{HalfUp, HalfEven} {
		calc := newCalc(t, Config{Precision: 2, Rounding: mode})
		for _, x := range encodings {
			sx := signature.Build(x)
			assert.Equal(t, 1.0, calc.mustCompute(sx, sx), "self similarity of %q", x)
			for _, y := range encodings {
				sy := signature.Build(y)
				xy, yx := calc.mustCompute(sx, sy), calc.mustCompute(sy, sx)
				assert.Equal(t, xy, yx, "symmetry of %q and %q", x, y)
				assert.GreaterOrEqual(t, xy, 0.0)
				assert.LessOrEqual(t, xy, 1.0)
			}
		}
	}
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, Config{Precision: -1}.Validate())
	assert.Error(t, Config{Precision: 10}.Validate())
	assert.Error(t, Config{Precision: 2, Rounding: RoundingMode(7)}.Validate())

	_, err := NewCalculator(Config{Precision: 12})
	assert.Error(t, err)
}

func TestParseRoundingMode(t *testing.T) {
	mode, err := ParseRoundingMode("half-even")
	require.NoError(t, err)
	assert.Equal(t, HalfEven, mode)

	mode, err = ParseRoundingMode("")
	require.NoError(t, err)
	assert.Equal(t, HalfUp, mode)
	assert.Equal(t, "half-up", mode.String())

	_, err = ParseRoundingMode("banker")
	assert.Error(t, err)
}

func TestCoefficientHelper(t *testing.T) {
	assert.Equal(t, 0.5, Coefficient(signature.Build("AAB"), signature.Build("ABB"), HalfUp, 2))
	assert.Equal(t, 0.0, Coefficient(signature.Build(""), signature.Build(""), HalfUp, 2))
	assert.Equal(t, "0.500", Format(0.5, 3))
	assert.Equal(t, "x0.25", string(AppendFormat([]byte("x"), 0.25, 2)))
}
