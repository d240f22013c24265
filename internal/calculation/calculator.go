// Package calculation implements the scholarship amount engine. Every
// function is pure and deterministic: identical inputs always produce
// identical results, amounts round half-up to two decimal places, and the
// tuition/maintenance/books breakdown sums exactly to the final amount.
package calculation

import (
	"sort"

	"github.com/shopspring/decimal"

	appErrors "github.com/noah-isme/ssp-workflow-api/pkg/errors"
)

// Strategy selects the formula applied to the factors.
type Strategy string

const (
	StrategyStandard         Strategy = "standard"
	StrategyNeedBased        Strategy = "need_based"
	StrategyMeritBased       Strategy = "merit_based"
	StrategyGovernmentScheme Strategy = "government_scheme"
	StrategyCustom           Strategy = "custom"
)

// ValidStrategy reports whether s names a known strategy.
func ValidStrategy(s Strategy) bool {
	switch s {
	case StrategyStandard, StrategyNeedBased, StrategyMeritBased, StrategyGovernmentScheme, StrategyCustom:
		return true
	}
	return false
}

// Factors carries every input a strategy may consume. Unused fields are
// ignored by the selected strategy.
type Factors struct {
	BaseAmount      decimal.Decimal
	CGPA            decimal.Decimal
	CourseLevel     string
	FamilyIncome    decimal.Decimal
	ScholarshipType string
	StateCategory   string
	RuralUrban      string

	// Custom strategy inputs.
	Multipliers map[string]decimal.Decimal
	Adjustments map[string]decimal.Decimal
}

// Line is one named multiplier or adjustment applied to the base amount.
// Lines are ordered so encoded results are byte-identical across calls.
type Line struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

// Breakdown splits the final amount into its spend components. The books
// component absorbs the rounding remainder so the three always sum exactly
// to the final amount.
type Breakdown struct {
	Tuition     decimal.Decimal `json:"tuition"`
	Maintenance decimal.Decimal `json:"maintenance"`
	Books       decimal.Decimal `json:"books"`
}

// Result is the full calculation outcome.
type Result struct {
	Strategy    Strategy        `json:"strategy"`
	BaseAmount  decimal.Decimal `json:"baseAmount"`
	Lines       []Line          `json:"lines"`
	FinalAmount decimal.Decimal `json:"finalAmount"`
	Breakdown   Breakdown       `json:"breakdown"`
}

var (
	two = int32(2)

	courseMultipliers = map[string]decimal.Decimal{
		"undergraduate": decimal.RequireFromString("1.0"),
		"postgraduate":  decimal.RequireFromString("1.2"),
		"doctoral":      decimal.RequireFromString("1.5"),
		"diploma":       decimal.RequireFromString("0.8"),
	}

	courseAdjustments = map[string]decimal.Decimal{
		"undergraduate": decimal.RequireFromString("1.0"),
		"postgraduate":  decimal.RequireFromString("1.1"),
		"doctoral":      decimal.RequireFromString("1.2"),
		"diploma":       decimal.RequireFromString("0.9"),
	}

	typeBonuses = map[string]decimal.Decimal{
		"research": decimal.RequireFromString("1.2"),
		"sports":   decimal.RequireFromString("1.1"),
		"arts":     decimal.RequireFromString("1.1"),
		"merit":    decimal.RequireFromString("1.0"),
	}

	schemeBaseAmounts = map[string]decimal.Decimal{
		"undergraduate": decimal.NewFromInt(30000),
		"postgraduate":  decimal.NewFromInt(40000),
		"doctoral":      decimal.NewFromInt(60000),
		"diploma":       decimal.NewFromInt(20000),
	}

	categoryMultipliers = map[string]decimal.Decimal{
		"sc":       decimal.RequireFromString("1.2"),
		"st":       decimal.RequireFromString("1.2"),
		"obc":      decimal.RequireFromString("1.1"),
		"general":  decimal.RequireFromString("1.0"),
		"minority": decimal.RequireFromString("1.15"),
	}

	one = decimal.RequireFromString("1.0")

	customMultiplierMin = decimal.RequireFromString("0.1")
	customMultiplierMax = decimal.RequireFromString("5.0")
	customAdjustmentMin = decimal.NewFromInt(-50000)
	customAdjustmentMax = decimal.NewFromInt(50000)
)

// Calculate applies the selected strategy to the factors.
func Calculate(strategy Strategy, f Factors) (Result, error) {
	switch strategy {
	case StrategyStandard:
		return standard(f), nil
	case StrategyNeedBased:
		return needBased(f), nil
	case StrategyMeritBased:
		return meritBased(f), nil
	case StrategyGovernmentScheme:
		return governmentScheme(f), nil
	case StrategyCustom:
		return custom(f), nil
	default:
		return Result{}, appErrors.Clone(appErrors.ErrValidation, "unknown calculation strategy: "+string(strategy))
	}
}

func standard(f Factors) Result {
	cgpaMultiplier := bracket(f.CGPA, []bracketEntry{
		{decimal.RequireFromString("9.0"), decimal.RequireFromString("1.2")},
		{decimal.RequireFromString("8.0"), decimal.RequireFromString("1.1")},
		{decimal.RequireFromString("7.0"), decimal.RequireFromString("1.0")},
		{decimal.RequireFromString("6.0"), decimal.RequireFromString("0.9")},
	}, decimal.RequireFromString("0.8"))

	courseMultiplier := lookup(courseMultipliers, f.CourseLevel, one)

	final := f.BaseAmount.Mul(cgpaMultiplier).Mul(courseMultiplier).Round(two)
	return assemble(StrategyStandard, f.BaseAmount, final, []Line{
		{Name: "cgpa_multiplier", Value: cgpaMultiplier},
		{Name: "course_multiplier", Value: courseMultiplier},
	})
}

func needBased(f Factors) Result {
	incomeMultiplier := incomeBracket(f.FamilyIncome)
	courseAdjustment := lookup(courseAdjustments, f.CourseLevel, one)

	final := f.BaseAmount.Mul(incomeMultiplier).Mul(courseAdjustment).Round(two)
	return assemble(StrategyNeedBased, f.BaseAmount, final, []Line{
		{Name: "income_multiplier", Value: incomeMultiplier},
		{Name: "course_adjustment", Value: courseAdjustment},
	})
}

func meritBased(f Factors) Result {
	meritMultiplier := bracket(f.CGPA, []bracketEntry{
		{decimal.RequireFromString("9.5"), decimal.RequireFromString("1.5")},
		{decimal.RequireFromString("9.0"), decimal.RequireFromString("1.3")},
		{decimal.RequireFromString("8.5"), decimal.RequireFromString("1.2")},
		{decimal.RequireFromString("8.0"), decimal.RequireFromString("1.1")},
	}, one)

	typeBonus := lookup(typeBonuses, f.ScholarshipType, one)

	final := f.BaseAmount.Mul(meritMultiplier).Mul(typeBonus).Round(two)
	return assemble(StrategyMeritBased, f.BaseAmount, final, []Line{
		{Name: "merit_multiplier", Value: meritMultiplier},
		{Name: "type_bonus", Value: typeBonus},
	})
}

// governmentScheme ignores the requested amount entirely: the scheme fixes
// the base by course level and adjusts by category and location.
func governmentScheme(f Factors) Result {
	base := lookup(schemeBaseAmounts, f.CourseLevel, schemeBaseAmounts["undergraduate"])
	categoryMultiplier := lookup(categoryMultipliers, f.StateCategory, one)

	locationMultiplier := one
	if f.RuralUrban == "rural" {
		locationMultiplier = decimal.RequireFromString("1.1")
	}

	final := base.Mul(categoryMultiplier).Mul(locationMultiplier).Round(two)
	return assemble(StrategyGovernmentScheme, base, final, []Line{
		{Name: "category_multiplier", Value: categoryMultiplier},
		{Name: "location_multiplier", Value: locationMultiplier},
	})
}

func custom(f Factors) Result {
	lines := make([]Line, 0, len(f.Multipliers)+len(f.Adjustments))

	totalMultiplier := one
	for _, name := range sortedKeys(f.Multipliers) {
		v := clamp(f.Multipliers[name], customMultiplierMin, customMultiplierMax)
		totalMultiplier = totalMultiplier.Mul(v)
		lines = append(lines, Line{Name: "multiplier:" + name, Value: v})
	}

	totalAdjustment := decimal.Zero
	for _, name := range sortedKeys(f.Adjustments) {
		v := clamp(f.Adjustments[name], customAdjustmentMin, customAdjustmentMax)
		totalAdjustment = totalAdjustment.Add(v)
		lines = append(lines, Line{Name: "adjustment:" + name, Value: v})
	}

	final := f.BaseAmount.Mul(totalMultiplier).Add(totalAdjustment)
	if final.IsNegative() {
		final = decimal.Zero
	}
	final = final.Round(two)
	return assemble(StrategyCustom, f.BaseAmount, final, lines)
}

func assemble(strategy Strategy, base, final decimal.Decimal, lines []Line) Result {
	return Result{
		Strategy:    strategy,
		BaseAmount:  base,
		Lines:       lines,
		FinalAmount: final,
		Breakdown:   SplitBreakdown(final),
	}
}

// SplitBreakdown divides an amount 70/25/5 across tuition, maintenance and
// books, folding any rounding remainder into books.
func SplitBreakdown(final decimal.Decimal) Breakdown {
	tuition := final.Mul(decimal.RequireFromString("0.70")).Round(two)
	maintenance := final.Mul(decimal.RequireFromString("0.25")).Round(two)
	books := final.Sub(tuition).Sub(maintenance)
	return Breakdown{Tuition: tuition, Maintenance: maintenance, Books: books}
}

type bracketEntry struct {
	threshold decimal.Decimal
	value     decimal.Decimal
}

func bracket(v decimal.Decimal, entries []bracketEntry, fallback decimal.Decimal) decimal.Decimal {
	for _, e := range entries {
		if v.GreaterThanOrEqual(e.threshold) {
			return e.value
		}
	}
	return fallback
}

func incomeBracket(income decimal.Decimal) decimal.Decimal {
	switch {
	case income.LessThanOrEqual(decimal.NewFromInt(100000)):
		return decimal.RequireFromString("1.5")
	case income.LessThanOrEqual(decimal.NewFromInt(200000)):
		return decimal.RequireFromString("1.3")
	case income.LessThanOrEqual(decimal.NewFromInt(400000)):
		return decimal.RequireFromString("1.1")
	case income.LessThanOrEqual(decimal.NewFromInt(600000)):
		return decimal.RequireFromString("0.9")
	default:
		return decimal.RequireFromString("0.7")
	}
}

func lookup(m map[string]decimal.Decimal, key string, fallback decimal.Decimal) decimal.Decimal {
	if v, ok := m[key]; ok {
		return v
	}
	return fallback
}

func clamp(v, min, max decimal.Decimal) decimal.Decimal {
	if v.LessThan(min) {
		return min
	}
	if v.GreaterThan(max) {
		return max
	}
	return v
}

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
