// Package valuation turns declared property attributes and a rule version into a
// confidence-bounded value range.
//
// The engine is a pure function of its inputs: it performs no I/O and holds no
// shared state, so it may run on any goroutine. The only ambient input is the clock,
// used to bound the construction year.
package valuation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"juragites_estimation/internal/domain/domainerr"
	"juragites_estimation/internal/domain/entities"

	"github.com/shopspring/decimal"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

type Engine struct {
	now func() time.Time
}

type Option func(*Engine)

// WithClock fixes the clock used for construction year plausibility.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

type tracer struct {
	entries []entities.TraceEntry
}

func (t *tracer) add(stage, format string, args ...any) {
	t.entries = append(t.entries, entities.TraceEntry{
		Step:    len(t.entries) + 1,
		Stage:   stage,
		Message: fmt.Sprintf(format, args...),
	})
}

// Calculate runs the valuation steps in their fixed order. It returns either a
// complete result or an error, never a partial result.
//
// Errors are *domainerr.ValidationError for bad attributes and
// *domainerr.RuleResolutionError when the rule version cannot price the property.
func (e *Engine) Calculate(attrs entities.PropertyAttributes, version entities.RuleVersion) (entities.ValuationResult, error) {
	if err := ValidateAttributes(attrs, e.now()); err != nil {
		return entities.ValuationResult{}, err
	}
	if version.ID == "" {
		return entities.ValuationResult{}, &domainerr.RuleResolutionError{Reason: "no rule version supplied"}
	}

	tr := &tracer{}
	rs := version.RuleSet
	tr.add("validation", "declared attributes validated")
	tr.add("rules", "rule version %d (%s)", version.VersionNumber, version.ID)

	price, source, err := resolvePrice(attrs, rs)
	if err != nil {
		return entities.ValuationResult{}, err
	}
	tr.add("pricing", "price per m² %s from %s", price.StringFixed(2), source)

	area := decimal.NewFromFloat(attrs.HabitableArea)
	baseValue := area.Mul(price)
	tr.add("base_value", "%s m² × %s = %s", area, price.StringFixed(2), baseValue.StringFixed(2))

	typeCoeff := lookupCoefficient(rs.TypeCoefficients, attrs.PropertyType, "property type", string(attrs.PropertyType), tr)
	condCoeff := lookupCoefficient(rs.ConditionCoefficients, attrs.Condition, "condition", string(attrs.Condition), tr)
	afterCoeffs := baseValue.Mul(typeCoeff).Mul(condCoeff)
	tr.add("coefficients", "type %s × condition %s = %s", typeCoeff, condCoeff, afterCoeffs.StringFixed(2))

	terrainCoeff := terrainCoefficient(decimal.NewFromFloat(attrs.TerrainAreaValue()), rs.TerrainSteps, tr)
	afterTerrain := afterCoeffs.Mul(terrainCoeff)
	tr.add("terrain", "terrain coefficient %s = %s", terrainCoeff, afterTerrain.StringFixed(2))

	applied, pct, fixed := amenityAdjustments(attrs.Amenities, rs.Amenities, tr)
	afterPct := afterTerrain.Mul(one.Add(pct.Div(hundred)))
	tr.add("amenities_percentage", "percentage adjustments %s%% = %s", pct, afterPct.StringFixed(2))

	final := afterPct.Add(fixed)
	tr.add("amenities_fixed", "fixed adjustments %s = %s", fixed.StringFixed(2), final.StringFixed(2))

	median := final.Round(0).IntPart()
	if median <= 0 {
		return entities.ValuationResult{}, &domainerr.RuleResolutionError{
			Reason: fmt.Sprintf("rule version %d produced a non-positive value %s", version.VersionNumber, final.StringFixed(2)),
		}
	}
	tr.add("rounding", "median %d", median)

	rules, versioned := rs.ConfidenceOrDefault()
	if !versioned {
		tr.add("confidence", "rule version carries no confidence rules, defaults applied")
	}
	conf := AssessConfidence(attrs, rules)
	tr.add("confidence", "completeness %d%%, level %s, margin ±%d%%", conf.Completeness, conf.Level, conf.MarginPercent)

	low, high := Range(median, conf.MarginPercent)
	tr.add("range", "%d - %d - %d", low, median, high)

	return entities.ValuationResult{
		Low:              low,
		Median:           median,
		High:             high,
		ConfidenceLevel:  conf.Level,
		ConfidenceMargin: conf.MarginPercent,
		Completeness:     conf.Completeness,
		Breakdown: entities.ValuationBreakdown{
			PricePerM2:             price,
			PriceSource:            source,
			BaseValue:              baseValue,
			TypeCoefficient:        typeCoeff,
			ConditionCoefficient:   condCoeff,
			ValueAfterCoefficients: afterCoeffs,
			TerrainCoefficient:     terrainCoeff,
			ValueAfterTerrain:      afterTerrain,
			PercentageAdjustment:   pct,
			ValueAfterPercentage:   afterPct,
			FixedAdjustment:        fixed,
			FinalValue:             final,
			AppliedAmenities:       applied,
		},
		Trace:             tr.entries,
		RuleVersionID:     version.ID,
		RuleVersionNumber: version.VersionNumber,
	}, nil
}

// resolvePrice walks locality price, then zone price, then the global default.
// Non-positive prices are skipped; an exhausted chain is a rule resolution error.
func resolvePrice(a entities.PropertyAttributes, rs entities.RuleSet) (decimal.Decimal, entities.PriceSource, error) {
	locality := strings.TrimSpace(a.LocalityID)
	postal := strings.TrimSpace(a.PostalCode)

	if locality != "" {
		if p, ok := rs.LocalityPrices[locality]; ok && p.IsPositive() {
			return p, entities.PriceSourceLocality, nil
		}
	}

	zone := ""
	if locality != "" {
		zone = rs.LocalityZones[locality]
	}
	if zone == "" && postal != "" {
		zone = rs.PostalCodeZones[postal]
	}
	if zone != "" {
		if p, ok := rs.ZonePrices[zone]; ok && p.IsPositive() {
			return p, entities.PriceSourceZone, nil
		}
	}

	if rs.DefaultPricePerM2.IsPositive() {
		return rs.DefaultPricePerM2, entities.PriceSourceDefault, nil
	}
	return decimal.Zero, "", &domainerr.RuleResolutionError{
		Reason: fmt.Sprintf("no price for locality %q / postal code %q and no default price", locality, postal),
	}
}

func lookupCoefficient[K comparable](table map[K]decimal.Decimal, key K, label, raw string, tr *tracer) decimal.Decimal {
	if c, ok := table[key]; ok {
		return c
	}
	tr.add("coefficients", "no %s coefficient for %q, 1.0 applied", label, raw)
	return one
}

// terrainCoefficient picks the step whose [min, max] contains area. An area of 0
// means no terrain. An area beyond every step takes the last step's factor.
func terrainCoefficient(area decimal.Decimal, steps []entities.TerrainStep, tr *tracer) decimal.Decimal {
	if !area.IsPositive() {
		return one
	}
	if len(steps) == 0 {
		tr.add("terrain", "rule version has no terrain steps, 1.0 applied")
		return one
	}
	for _, s := range steps {
		if area.GreaterThanOrEqual(s.MinArea) && area.LessThanOrEqual(s.MaxArea) {
			return s.Factor
		}
	}
	last := steps[len(steps)-1]
	tr.add("terrain", "terrain %s m² outside every step, last step factor applied", area)
	return last.Factor
}

// amenityAdjustments sums the adjustments of the selected amenities. Keys are
// deduplicated and sorted so the trace is stable. Keys the rule version does not
// price are ignored and traced.
func amenityAdjustments(selected []string, table map[string]entities.AmenityAdjustment, tr *tracer) ([]entities.AppliedAmenity, decimal.Decimal, decimal.Decimal) {
	pct, fixed := decimal.Zero, decimal.Zero
	if len(selected) == 0 {
		return nil, pct, fixed
	}

	seen := make(map[string]struct{}, len(selected))
	keys := make([]string, 0, len(selected))
	for _, k := range selected {
		k = strings.TrimSpace(k)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	applied := make([]entities.AppliedAmenity, 0, len(keys))
	for _, k := range keys {
		adj, ok := table[k]
		if !ok {
			tr.add("amenities", "amenity %q is not priced by this rule version, ignored", k)
			continue
		}
		switch adj.Kind {
		case entities.AmenityKindPercentage:
			pct = pct.Add(adj.Value)
		case entities.AmenityKindFixed:
			fixed = fixed.Add(adj.Value)
		default:
			tr.add("amenities", "amenity %q has unknown kind %q, ignored", k, adj.Kind)
			continue
		}
		applied = append(applied, entities.AppliedAmenity{Key: k, Kind: adj.Kind, Value: adj.Value})
	}
	return applied, pct, fixed
}
