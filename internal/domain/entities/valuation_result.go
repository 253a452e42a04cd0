package entities

import "github.com/shopspring/decimal"

type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

type PriceSource string

const (
	PriceSourceLocality PriceSource = "locality"
	PriceSourceZone     PriceSource = "zone"
	PriceSourceDefault  PriceSource = "default"
)

// ValuationResult is the snapshot persisted on an estimation after calculation.
// Values are whole currency units. Low < Median < High always holds.
type ValuationResult struct {
	Low               int64              `json:"low"`
	Median            int64              `json:"median"`
	High              int64              `json:"high"`
	ConfidenceLevel   ConfidenceLevel    `json:"confidence_level"`
	ConfidenceMargin  int                `json:"confidence_margin"`
	Completeness      int                `json:"completeness"`
	Breakdown         ValuationBreakdown `json:"breakdown"`
	Trace             []TraceEntry       `json:"trace"`
	RuleVersionID     string             `json:"rule_version_id"`
	RuleVersionNumber int                `json:"rule_version_number"`
}

// ValuationBreakdown keeps every intermediate value of the calculation.
type ValuationBreakdown struct {
	PricePerM2             decimal.Decimal  `json:"price_per_m2"`
	PriceSource            PriceSource      `json:"price_source"`
	BaseValue              decimal.Decimal  `json:"base_value"`
	TypeCoefficient        decimal.Decimal  `json:"type_coefficient"`
	ConditionCoefficient   decimal.Decimal  `json:"condition_coefficient"`
	ValueAfterCoefficients decimal.Decimal  `json:"value_after_coefficients"`
	TerrainCoefficient     decimal.Decimal  `json:"terrain_coefficient"`
	ValueAfterTerrain      decimal.Decimal  `json:"value_after_terrain"`
	PercentageAdjustment   decimal.Decimal  `json:"percentage_adjustment"`
	ValueAfterPercentage   decimal.Decimal  `json:"value_after_percentage"`
	FixedAdjustment        decimal.Decimal  `json:"fixed_adjustment"`
	FinalValue             decimal.Decimal  `json:"final_value"`
	AppliedAmenities       []AppliedAmenity `json:"applied_amenities,omitempty"`
}

type AppliedAmenity struct {
	Key   string          `json:"key"`
	Kind  AmenityKind     `json:"kind"`
	Value decimal.Decimal `json:"value"`
}

// TraceEntry is one audit line of the calculation, in execution order.
type TraceEntry struct {
	Step    int    `json:"step"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}
