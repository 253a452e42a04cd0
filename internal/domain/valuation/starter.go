package valuation

import (
	"juragites_estimation/internal/domain/entities"

	"github.com/shopspring/decimal"
)

// StarterDescription labels the version seeded on an empty rule store.
const StarterDescription = "initial rule set"

// StarterRuleSet is activated at boot only when no version is active yet, so a
// fresh deployment can price estimations before an admin publishes real figures.
func StarterRuleSet() entities.RuleSet {
	conf := entities.DefaultConfidenceRules()
	d := decimal.RequireFromString
	return entities.RuleSet{
		DefaultPricePerM2: d("1800"),
		TypeCoefficients: map[entities.PropertyType]decimal.Decimal{
			entities.PropertyTypeHouse:     d("1.0"),
			entities.PropertyTypeApartment: d("0.95"),
			entities.PropertyTypeOther:     d("0.85"),
		},
		ConditionCoefficients: map[entities.PropertyCondition]decimal.Decimal{
			entities.ConditionToRenovate: d("0.75"),
			entities.ConditionFair:       d("0.9"),
			entities.ConditionGood:       d("1.0"),
			entities.ConditionExcellent:  d("1.1"),
		},
		TerrainSteps: entities.DefaultTerrainSteps(),
		Amenities: map[string]entities.AmenityAdjustment{
			"pool":    {Label: "Piscine", Kind: entities.AmenityKindFixed, Value: d("15000")},
			"garage":  {Label: "Garage", Kind: entities.AmenityKindFixed, Value: d("10000")},
			"terrace": {Label: "Terrasse", Kind: entities.AmenityKindPercentage, Value: d("3")},
			"view":    {Label: "Vue dégagée", Kind: entities.AmenityKindPercentage, Value: d("5")},
		},
		Confidence: &conf,
	}
}
