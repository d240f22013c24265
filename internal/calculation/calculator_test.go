package calculation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return v
}

func TestStandardStrategy(t *testing.T) {
	result, err := Calculate(StrategyStandard, Factors{
		BaseAmount:  d(t, "50000"),
		CGPA:        d(t, "9.2"),
		CourseLevel: "undergraduate",
	})
	require.NoError(t, err)

	assert.True(t, result.FinalAmount.Equal(d(t, "60000")), result.FinalAmount.String())
	assert.True(t, result.Breakdown.Tuition.Equal(d(t, "42000")), result.Breakdown.Tuition.String())
	assert.True(t, result.Breakdown.Maintenance.Equal(d(t, "15000")), result.Breakdown.Maintenance.String())
	assert.True(t, result.Breakdown.Books.Equal(d(t, "3000")), result.Breakdown.Books.String())
}

func TestStandardStrategyCGPABrackets(t *testing.T) {
	cases := []struct {
		cgpa string
		want string
	}{
		{"9.5", "1.2"},
		{"9.0", "1.2"},
		{"8.9", "1.1"},
		{"8.0", "1.1"},
		{"7.5", "1.0"},
		{"6.2", "0.9"},
		{"5.0", "0.8"},
	}
	for _, tc := range cases {
		result, err := Calculate(StrategyStandard, Factors{
			BaseAmount:  d(t, "10000"),
			CGPA:        d(t, tc.cgpa),
			CourseLevel: "undergraduate",
		})
		require.NoError(t, err)
		require.Len(t, result.Lines, 2)
		assert.Equal(t, "cgpa_multiplier", result.Lines[0].Name)
		assert.True(t, result.Lines[0].Value.Equal(d(t, tc.want)), "cgpa %s", tc.cgpa)
	}
}

func TestNeedBasedStrategy(t *testing.T) {
	result, err := Calculate(StrategyNeedBased, Factors{
		BaseAmount:   d(t, "40000"),
		FamilyIncome: d(t, "95000"),
		CourseLevel:  "postgraduate",
	})
	require.NoError(t, err)

	// 40000 * 1.5 * 1.1
	assert.True(t, result.FinalAmount.Equal(d(t, "66000")), result.FinalAmount.String())
}

func TestNeedBasedIncomeBrackets(t *testing.T) {
	cases := []struct {
		income string
		want   string
	}{
		{"100000", "1.5"},
		{"150000", "1.3"},
		{"200000", "1.3"},
		{"350000", "1.1"},
		{"500000", "0.9"},
		{"700000", "0.7"},
	}
	for _, tc := range cases {
		result, err := Calculate(StrategyNeedBased, Factors{
			BaseAmount:   d(t, "10000"),
			FamilyIncome: d(t, tc.income),
			CourseLevel:  "undergraduate",
		})
		require.NoError(t, err)
		assert.True(t, result.Lines[0].Value.Equal(d(t, tc.want)), "income %s", tc.income)
	}
}

func TestMeritBasedStrategy(t *testing.T) {
	result, err := Calculate(StrategyMeritBased, Factors{
		BaseAmount:      d(t, "30000"),
		CGPA:            d(t, "9.6"),
		ScholarshipType: "research",
	})
	require.NoError(t, err)

	// 30000 * 1.5 * 1.2
	assert.True(t, result.FinalAmount.Equal(d(t, "54000")), result.FinalAmount.String())
}

func TestGovernmentSchemeIgnoresRequestedBase(t *testing.T) {
	factors := Factors{
		BaseAmount:    d(t, "999999"),
		CourseLevel:   "postgraduate",
		StateCategory: "obc",
		RuralUrban:    "rural",
	}
	result, err := Calculate(StrategyGovernmentScheme, factors)
	require.NoError(t, err)

	// 40000 * 1.1 * 1.1, requested base plays no part.
	assert.True(t, result.BaseAmount.Equal(d(t, "40000")), result.BaseAmount.String())
	assert.True(t, result.FinalAmount.Equal(d(t, "48400")), result.FinalAmount.String())
}

func TestGovernmentSchemeDefaults(t *testing.T) {
	result, err := Calculate(StrategyGovernmentScheme, Factors{
		CourseLevel:   "unknown",
		StateCategory: "unknown",
		RuralUrban:    "urban",
	})
	require.NoError(t, err)
	assert.True(t, result.FinalAmount.Equal(d(t, "30000")), result.FinalAmount.String())
}

func TestCustomStrategyClampsInputs(t *testing.T) {
	result, err := Calculate(StrategyCustom, Factors{
		BaseAmount: d(t, "10000"),
		Multipliers: map[string]decimal.Decimal{
			"boost": d(t, "9.0"),  // clamped to 5.0
			"tiny":  d(t, "0.01"), // clamped to 0.1
		},
		Adjustments: map[string]decimal.Decimal{
			"grant":   d(t, "90000"),  // clamped to 50000
			"penalty": d(t, "-80000"), // clamped to -50000
		},
	})
	require.NoError(t, err)

	// 10000 * 5.0 * 0.1 + 50000 - 50000
	assert.True(t, result.FinalAmount.Equal(d(t, "5000")), result.FinalAmount.String())

	// Lines come out in sorted-key order: multipliers then adjustments.
	require.Len(t, result.Lines, 4)
	assert.Equal(t, "multiplier:boost", result.Lines[0].Name)
	assert.Equal(t, "multiplier:tiny", result.Lines[1].Name)
	assert.Equal(t, "adjustment:grant", result.Lines[2].Name)
	assert.Equal(t, "adjustment:penalty", result.Lines[3].Name)
}

func TestCustomStrategyNeverNegative(t *testing.T) {
	result, err := Calculate(StrategyCustom, Factors{
		BaseAmount: d(t, "1000"),
		Adjustments: map[string]decimal.Decimal{
			"penalty": d(t, "-50000"),
		},
	})
	require.NoError(t, err)
	assert.True(t, result.FinalAmount.IsZero(), result.FinalAmount.String())
}

func TestUnknownStrategy(t *testing.T) {
	_, err := Calculate(Strategy("lottery"), Factors{})
	require.Error(t, err)
}

func TestDeterminism(t *testing.T) {
	factors := Factors{
		BaseAmount: d(t, "12345.67"),
		CGPA:       d(t, "8.4"),
		Multipliers: map[string]decimal.Decimal{
			"z": d(t, "1.1"),
			"a": d(t, "0.9"),
			"m": d(t, "1.05"),
		},
		Adjustments: map[string]decimal.Decimal{
			"late": d(t, "-500"),
			"need": d(t, "1200"),
		},
	}

	first, err := Calculate(StrategyCustom, factors)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		again, err := Calculate(StrategyCustom, factors)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestBreakdownSumsExactly(t *testing.T) {
	amounts := []string{"0", "0.01", "0.05", "1", "99.99", "33333.33", "60000", "123456.78", "0.07"}
	for _, raw := range amounts {
		final := d(t, raw)
		b := SplitBreakdown(final)
		sum := b.Tuition.Add(b.Maintenance).Add(b.Books)
		assert.True(t, sum.Equal(final), "amount %s: %s + %s + %s = %s",
			raw, b.Tuition, b.Maintenance, b.Books, sum)
		assert.True(t, b.Tuition.Exponent() >= -2)
		assert.True(t, b.Maintenance.Exponent() >= -2)
	}
}

func TestRoundingHalfUp(t *testing.T) {
	// 100.005 * 1.0 rounds to 100.01 under half-up.
	result, err := Calculate(StrategyStandard, Factors{
		BaseAmount:  d(t, "100.005"),
		CGPA:        d(t, "7.0"),
		CourseLevel: "undergraduate",
	})
	require.NoError(t, err)
	assert.True(t, result.FinalAmount.Equal(d(t, "100.01")), result.FinalAmount.String())
}
