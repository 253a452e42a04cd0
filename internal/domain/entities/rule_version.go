package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RuleVersion is an immutable, numbered snapshot of pricing data.
//
// Storage model (DynamoDB):
//   - PK: id ("v<version_number>", so a version number can only be written once)
//
// Exactly one version has IsActive=true. Activating a new version flips the flag on
// the previous one and never deletes it.
type RuleVersion struct {
	ID            string    `json:"id"`
	VersionNumber int       `json:"version_number"`
	Description   string    `json:"description"`
	RuleSet       RuleSet   `json:"rule_set"`
	IsActive      bool      `json:"is_active"`
	CreatedBy     string    `json:"created_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// RuleVersionID derives the storage id of a version number.
func RuleVersionID(versionNumber int) string {
	return fmt.Sprintf("v%d", versionNumber)
}

// RuleSet holds everything the valuation engine reads.
type RuleSet struct {
	DefaultPricePerM2     decimal.Decimal                       `json:"default_price_per_m2"`
	LocalityPrices        map[string]decimal.Decimal            `json:"locality_prices,omitempty"`
	ZonePrices            map[string]decimal.Decimal            `json:"zone_prices,omitempty"`
	LocalityZones         map[string]string                     `json:"locality_zones,omitempty"`
	PostalCodeZones       map[string]string                     `json:"postal_code_zones,omitempty"`
	TypeCoefficients      map[PropertyType]decimal.Decimal      `json:"type_coefficients,omitempty"`
	ConditionCoefficients map[PropertyCondition]decimal.Decimal `json:"condition_coefficients,omitempty"`
	TerrainSteps          []TerrainStep                         `json:"terrain_steps,omitempty"`
	Amenities             map[string]AmenityAdjustment          `json:"amenities,omitempty"`
	Confidence            *ConfidenceRules                      `json:"confidence,omitempty"`
}

// TerrainStep maps terrain areas in [MinArea, MaxArea] to a multiplier.
type TerrainStep struct {
	MinArea decimal.Decimal `json:"min_area"`
	MaxArea decimal.Decimal `json:"max_area"`
	Factor  decimal.Decimal `json:"factor"`
}

type AmenityKind string

const (
	AmenityKindFixed      AmenityKind = "fixed"
	AmenityKindPercentage AmenityKind = "percentage"
)

// AmenityAdjustment is a fixed-euro or signed percentage modifier for one amenity key.
type AmenityAdjustment struct {
	Label string          `json:"label"`
	Kind  AmenityKind     `json:"kind"`
	Value decimal.Decimal `json:"value"`
}

// ConfidenceRules maps data completeness to a level and a margin.
// Thresholds are completeness percentages, margins are ± percentages.
type ConfidenceRules struct {
	HighThreshold   int `json:"high_threshold"`
	MediumThreshold int `json:"medium_threshold"`
	HighMargin      int `json:"high_margin"`
	MediumMargin    int `json:"medium_margin"`
	LowMargin       int `json:"low_margin"`
}

func DefaultConfidenceRules() ConfidenceRules {
	return ConfidenceRules{
		HighThreshold:   85,
		MediumThreshold: 60,
		HighMargin:      5,
		MediumMargin:    10,
		LowMargin:       20,
	}
}

// DefaultTerrainSteps is the step table seeded into the first rule version.
func DefaultTerrainSteps() []TerrainStep {
	step := func(min, max int64, factor string) TerrainStep {
		return TerrainStep{
			MinArea: decimal.NewFromInt(min),
			MaxArea: decimal.NewFromInt(max),
			Factor:  decimal.RequireFromString(factor),
		}
	}
	return []TerrainStep{
		step(0, 500, "1.0"),
		step(500, 2000, "1.1"),
		step(2000, 5000, "1.2"),
		step(5000, 100000, "1.3"),
	}
}

// ConfidenceOrDefault returns the stored confidence rules, or the defaults for
// rule sets written before the rules were versioned.
func (rs RuleSet) ConfidenceOrDefault() (ConfidenceRules, bool) {
	if rs.Confidence == nil {
		return DefaultConfidenceRules(), false
	}
	return *rs.Confidence, true
}
