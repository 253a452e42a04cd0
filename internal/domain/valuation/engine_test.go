package valuation

import (
	"errors"
	"testing"
	"time"

	"juragites_estimation/internal/domain/domainerr"
	"juragites_estimation/internal/domain/entities"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testVersion() entities.RuleVersion {
	conf := entities.DefaultConfidenceRules()
	return entities.RuleVersion{
		ID:            "v1",
		VersionNumber: 1,
		IsActive:      true,
		RuleSet: entities.RuleSet{
			DefaultPricePerM2: d("1000"),
			LocalityPrices:    map[string]decimal.Decimal{"39300": d("1500")},
			ZonePrices:        map[string]decimal.Decimal{"haut-jura": d("1200")},
			LocalityZones:     map[string]string{"39310": "haut-jura"},
			PostalCodeZones:   map[string]string{"39400": "haut-jura"},
			TypeCoefficients: map[entities.PropertyType]decimal.Decimal{
				entities.PropertyTypeHouse:     d("1.0"),
				entities.PropertyTypeApartment: d("0.9"),
			},
			ConditionCoefficients: map[entities.PropertyCondition]decimal.Decimal{
				entities.ConditionToRenovate: d("0.8"),
				entities.ConditionFair:       d("0.9"),
				entities.ConditionGood:       d("1.0"),
				entities.ConditionExcellent:  d("1.1"),
			},
			TerrainSteps: entities.DefaultTerrainSteps(),
			Amenities: map[string]entities.AmenityAdjustment{
				"pool": {Label: "Piscine", Kind: entities.AmenityKindFixed, Value: d("30000")},
				"view": {Label: "Vue", Kind: entities.AmenityKindPercentage, Value: d("10")},
			},
			Confidence: &conf,
		},
	}
}

// baseAttrs fills six of the eight tracked fields: completeness 75%.
func baseAttrs() entities.PropertyAttributes {
	year := 1985
	return entities.PropertyAttributes{
		PropertyType:     entities.PropertyTypeHouse,
		HabitableArea:    150,
		LocalityID:       "39300",
		PostalCode:       "39300",
		Condition:        entities.ConditionGood,
		ConstructionYear: &year,
	}
}

func newTestEngine() *Engine {
	return NewEngine(WithClock(func() time.Time { return fixedNow }))
}

func TestCalculate_BaseScenario(t *testing.T) {
	res, err := newTestEngine().Calculate(baseAttrs(), testVersion())
	require.NoError(t, err)

	assert.Equal(t, int64(225000), res.Median)
	assert.Equal(t, int64(202500), res.Low)
	assert.Equal(t, int64(247500), res.High)
	assert.Equal(t, 75, res.Completeness)
	assert.Equal(t, entities.ConfidenceMedium, res.ConfidenceLevel)
	assert.Equal(t, 10, res.ConfidenceMargin)
	assert.Equal(t, entities.PriceSourceLocality, res.Breakdown.PriceSource)
	assert.True(t, res.Breakdown.BaseValue.Equal(d("225000")))
	assert.Equal(t, "v1", res.RuleVersionID)
	assert.Equal(t, 1, res.RuleVersionNumber)
}

func TestCalculate_Amenities(t *testing.T) {
	attrs := baseAttrs()
	attrs.Amenities = []string{"view", "pool"}

	res, err := newTestEngine().Calculate(attrs, testVersion())
	require.NoError(t, err)

	assert.True(t, res.Breakdown.ValueAfterPercentage.Equal(d("247500")), res.Breakdown.ValueAfterPercentage.String())
	assert.True(t, res.Breakdown.FinalValue.Equal(d("277500")), res.Breakdown.FinalValue.String())
	assert.Equal(t, int64(277500), res.Median)
	require.Len(t, res.Breakdown.AppliedAmenities, 2)
	assert.Equal(t, "pool", res.Breakdown.AppliedAmenities[0].Key)
	assert.Equal(t, "view", res.Breakdown.AppliedAmenities[1].Key)
}

func TestCalculate_TerrainStep(t *testing.T) {
	attrs := baseAttrs()
	terrain := 3000.0
	attrs.TerrainArea = &terrain

	res, err := newTestEngine().Calculate(attrs, testVersion())
	require.NoError(t, err)

	assert.True(t, res.Breakdown.TerrainCoefficient.Equal(d("1.2")))
	assert.True(t, res.Breakdown.ValueAfterTerrain.Equal(d("270000")), res.Breakdown.ValueAfterTerrain.String())
}

func TestCalculate_TerrainBoundaryTakesFirstMatchingStep(t *testing.T) {
	attrs := baseAttrs()
	terrain := 500.0
	attrs.TerrainArea = &terrain

	res, err := newTestEngine().Calculate(attrs, testVersion())
	require.NoError(t, err)
	assert.True(t, res.Breakdown.TerrainCoefficient.Equal(d("1.0")))
}

func TestCalculate_Deterministic(t *testing.T) {
	attrs := baseAttrs()
	attrs.Amenities = []string{"pool", "view", "pool"}
	e := newTestEngine()

	first, err := e.Calculate(attrs, testVersion())
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := e.Calculate(attrs, testVersion())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestCalculate_RangeIsOrderedAndSymmetric(t *testing.T) {
	cases := []func(*entities.PropertyAttributes){
		func(a *entities.PropertyAttributes) {},
		func(a *entities.PropertyAttributes) { a.HabitableArea = 1 },
		func(a *entities.PropertyAttributes) { a.HabitableArea = 500; a.Condition = entities.ConditionExcellent },
		func(a *entities.PropertyAttributes) { a.ConstructionYear = nil; a.LocalityID = "" },
		func(a *entities.PropertyAttributes) {
			a.Amenities = []string{"pool"}
			tr := 8000.0
			a.TerrainArea = &tr
		},
	}
	for i, mutate := range cases {
		attrs := baseAttrs()
		mutate(&attrs)
		res, err := newTestEngine().Calculate(attrs, testVersion())
		require.NoError(t, err, "case %d", i)
		assert.Less(t, res.Low, res.Median, "case %d", i)
		assert.Less(t, res.Median, res.High, "case %d", i)
		assert.Equal(t, res.Median-res.Low, res.High-res.Median, "case %d", i)
		assert.GreaterOrEqual(t, res.Completeness, 0)
		assert.LessOrEqual(t, res.Completeness, 100)
	}
}

func TestCalculate_PriceFallback(t *testing.T) {
	tests := []struct {
		name       string
		locality   string
		postal     string
		wantSource entities.PriceSource
		wantPrice  string
	}{
		{"locality price", "39300", "", entities.PriceSourceLocality, "1500"},
		{"zone via locality", "39310", "", entities.PriceSourceZone, "1200"},
		{"zone via postal code", "", "39400", entities.PriceSourceZone, "1200"},
		{"default price", "99999", "99999", entities.PriceSourceDefault, "1000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := baseAttrs()
			attrs.LocalityID = tt.locality
			attrs.PostalCode = tt.postal
			res, err := newTestEngine().Calculate(attrs, testVersion())
			require.NoError(t, err)
			assert.Equal(t, tt.wantSource, res.Breakdown.PriceSource)
			assert.True(t, res.Breakdown.PricePerM2.Equal(d(tt.wantPrice)))
		})
	}
}

func TestCalculate_NoPriceIsRuleResolutionError(t *testing.T) {
	v := testVersion()
	v.RuleSet.DefaultPricePerM2 = decimal.Zero
	attrs := baseAttrs()
	attrs.LocalityID = "unknown"
	attrs.PostalCode = ""

	_, err := newTestEngine().Calculate(attrs, v)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerr.ErrRuleResolution))
	assert.True(t, domainerr.IsSystemFault(err))
}

func TestCalculate_InvalidAttributes(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*entities.PropertyAttributes)
		field  string
	}{
		{"area too small", func(a *entities.PropertyAttributes) { a.HabitableArea = 0.5 }, "habitable_area"},
		{"area too large", func(a *entities.PropertyAttributes) { a.HabitableArea = 501 }, "habitable_area"},
		{"unknown type", func(a *entities.PropertyAttributes) { a.PropertyType = "castle" }, "property_type"},
		{"no location", func(a *entities.PropertyAttributes) { a.LocalityID = ""; a.PostalCode = "" }, "locality_id"},
		{"future year", func(a *entities.PropertyAttributes) { y := 2030; a.ConstructionYear = &y }, "construction_year"},
		{"terrain above bound", func(a *entities.PropertyAttributes) { tr := 100001.0; a.TerrainArea = &tr }, "terrain_area"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := baseAttrs()
			tt.mutate(&attrs)
			_, err := newTestEngine().Calculate(attrs, testVersion())
			require.Error(t, err)
			var ve *domainerr.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
			assert.False(t, domainerr.IsSystemFault(err))
		})
	}
}

func TestCalculate_MissingCoefficientFallsBackAndTraces(t *testing.T) {
	v := testVersion()
	delete(v.RuleSet.ConditionCoefficients, entities.ConditionGood)

	res, err := newTestEngine().Calculate(baseAttrs(), v)
	require.NoError(t, err)
	assert.True(t, res.Breakdown.ConditionCoefficient.Equal(d("1")))

	found := false
	for _, e := range res.Trace {
		if e.Stage == "coefficients" && e.Message == `no condition coefficient for "good", 1.0 applied` {
			found = true
		}
	}
	assert.True(t, found, "expected fallback in trace: %+v", res.Trace)
}

func TestCalculate_UnknownAmenityIgnored(t *testing.T) {
	attrs := baseAttrs()
	attrs.Amenities = []string{"helipad"}

	res, err := newTestEngine().Calculate(attrs, testVersion())
	require.NoError(t, err)
	assert.Equal(t, int64(225000), res.Median)
	assert.Empty(t, res.Breakdown.AppliedAmenities)
}

func TestCalculate_TraceStepsAreSequential(t *testing.T) {
	res, err := newTestEngine().Calculate(baseAttrs(), testVersion())
	require.NoError(t, err)
	require.NotEmpty(t, res.Trace)
	for i, e := range res.Trace {
		assert.Equal(t, i+1, e.Step)
	}
	assert.Equal(t, "validation", res.Trace[0].Stage)
	assert.Equal(t, "range", res.Trace[len(res.Trace)-1].Stage)
}

func TestCalculate_LegacyVersionWithoutConfidenceUsesDefaults(t *testing.T) {
	v := testVersion()
	v.RuleSet.Confidence = nil

	res, err := newTestEngine().Calculate(baseAttrs(), v)
	require.NoError(t, err)
	assert.Equal(t, entities.ConfidenceMedium, res.ConfidenceLevel)
	assert.Equal(t, 10, res.ConfidenceMargin)
}

func TestCompleteness_MonotonicInFilledFields(t *testing.T) {
	attrs := entities.PropertyAttributes{}
	prev := Completeness(attrs)
	assert.Equal(t, 0, prev)

	year := 2000
	terrain := 200.0
	steps := []func(*entities.PropertyAttributes){
		func(a *entities.PropertyAttributes) { a.PropertyType = entities.PropertyTypeHouse },
		func(a *entities.PropertyAttributes) { a.HabitableArea = 90 },
		func(a *entities.PropertyAttributes) { a.PostalCode = "39300" },
		func(a *entities.PropertyAttributes) { a.Condition = entities.ConditionFair },
		func(a *entities.PropertyAttributes) { a.TerrainArea = &terrain },
		func(a *entities.PropertyAttributes) { a.ConstructionYear = &year },
		func(a *entities.PropertyAttributes) { a.LocalityID = "39300" },
		func(a *entities.PropertyAttributes) { a.Amenities = []string{"pool"} },
	}
	for _, s := range steps {
		s(&attrs)
		c := Completeness(attrs)
		assert.Greater(t, c, prev)
		prev = c
	}
	assert.Equal(t, 100, prev)
}

func TestAssessConfidence_Thresholds(t *testing.T) {
	rules := entities.DefaultConfidenceRules()
	full := baseAttrs()
	terrain := 100.0
	full.TerrainArea = &terrain
	full.Amenities = []string{"pool"}

	c := AssessConfidence(full, rules)
	assert.Equal(t, entities.ConfidenceHigh, c.Level)
	assert.Equal(t, 5, c.MarginPercent)

	sparse := entities.PropertyAttributes{PropertyType: entities.PropertyTypeHouse, HabitableArea: 80, PostalCode: "39300"}
	c = AssessConfidence(sparse, rules)
	assert.Equal(t, entities.ConfidenceLow, c.Level)
	assert.Equal(t, 20, c.MarginPercent)
}

func TestRange_MinimumHalfWidth(t *testing.T) {
	low, high := Range(3, 5)
	assert.Equal(t, int64(2), low)
	assert.Equal(t, int64(4), high)
}

func TestValidateRuleSet(t *testing.T) {
	require.NoError(t, ValidateRuleSet(testVersion().RuleSet))

	tests := []struct {
		name   string
		mutate func(*entities.RuleSet)
	}{
		{"no price at all", func(rs *entities.RuleSet) {
			rs.DefaultPricePerM2 = decimal.Zero
			rs.LocalityPrices = nil
			rs.ZonePrices = nil
			rs.LocalityZones = nil
			rs.PostalCodeZones = nil
		}},
		{"negative locality price", func(rs *entities.RuleSet) { rs.LocalityPrices["39300"] = d("-1") }},
		{"zone reference without price", func(rs *entities.RuleSet) { rs.PostalCodeZones["39000"] = "bresse" }},
		{"gap in terrain steps", func(rs *entities.RuleSet) { rs.TerrainSteps[1].MinArea = d("600") }},
		{"terrain does not reach bound", func(rs *entities.RuleSet) { rs.TerrainSteps[3].MaxArea = d("9000") }},
		{"no terrain steps", func(rs *entities.RuleSet) { rs.TerrainSteps = nil }},
		{"zero factor", func(rs *entities.RuleSet) { rs.TerrainSteps[0].Factor = decimal.Zero }},
		{"unknown amenity kind", func(rs *entities.RuleSet) {
			rs.Amenities["sauna"] = entities.AmenityAdjustment{Kind: "bonus", Value: d("1")}
		}},
		{"inverted thresholds", func(rs *entities.RuleSet) {
			rs.Confidence = &entities.ConfidenceRules{HighThreshold: 50, MediumThreshold: 60, HighMargin: 5, MediumMargin: 10, LowMargin: 20}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := testVersion().RuleSet
			tt.mutate(&rs)
			err := ValidateRuleSet(rs)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domainerr.ErrValidation))
		})
	}
}
