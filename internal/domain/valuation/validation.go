package valuation

import (
	"fmt"
	"strings"
	"time"

	"juragites_estimation/internal/domain/domainerr"
	"juragites_estimation/internal/domain/entities"

	"github.com/shopspring/decimal"
)

const (
	MinHabitableArea    = 1
	MaxHabitableArea    = 500
	MaxTerrainArea      = 100000
	MinConstructionYear = 1800
)

// ValidateAttributes checks declared attributes against the plausibility bounds.
// The first violation is returned as a *domainerr.ValidationError.
func ValidateAttributes(a entities.PropertyAttributes, now time.Time) error {
	if a.PropertyType == "" {
		return domainerr.NewValidationError("property_type", "missing required field")
	}
	if !a.PropertyType.Valid() {
		return domainerr.NewValidationError("property_type", fmt.Sprintf("unknown property type %q", a.PropertyType))
	}
	if a.HabitableArea < MinHabitableArea || a.HabitableArea > MaxHabitableArea {
		return domainerr.NewValidationError("habitable_area", fmt.Sprintf("must be between %d and %d m²", MinHabitableArea, MaxHabitableArea))
	}
	if a.TerrainArea != nil && (*a.TerrainArea < 0 || *a.TerrainArea > MaxTerrainArea) {
		return domainerr.NewValidationError("terrain_area", fmt.Sprintf("must be between 0 and %d m²", MaxTerrainArea))
	}
	if strings.TrimSpace(a.LocalityID) == "" && strings.TrimSpace(a.PostalCode) == "" {
		return domainerr.NewValidationError("locality_id", "a locality id or a postal code is required")
	}
	if a.Condition == "" {
		return domainerr.NewValidationError("condition", "missing required field")
	}
	if !a.Condition.Valid() {
		return domainerr.NewValidationError("condition", fmt.Sprintf("unknown condition %q", a.Condition))
	}
	if a.ConstructionYear != nil {
		maxYear := now.Year() + 1
		if *a.ConstructionYear < MinConstructionYear || *a.ConstructionYear > maxYear {
			return domainerr.NewValidationError("construction_year", fmt.Sprintf("must be between %d and %d", MinConstructionYear, maxYear))
		}
	}
	for _, k := range a.Amenities {
		if strings.TrimSpace(k) == "" {
			return domainerr.NewValidationError("amenities", "amenity keys cannot be empty")
		}
	}
	return nil
}

// ValidateRuleSet rejects rule data the engine cannot use safely. It runs before a
// rule set is activated, so production versions never carry a gapped terrain table.
func ValidateRuleSet(rs entities.RuleSet) error {
	if rs.DefaultPricePerM2.IsNegative() {
		return domainerr.NewValidationError("default_price_per_m2", "cannot be negative")
	}
	for k, p := range rs.LocalityPrices {
		if !p.IsPositive() {
			return domainerr.NewValidationError("locality_prices", fmt.Sprintf("price for %q must be positive", k))
		}
	}
	for k, p := range rs.ZonePrices {
		if !p.IsPositive() {
			return domainerr.NewValidationError("zone_prices", fmt.Sprintf("price for %q must be positive", k))
		}
	}
	for loc, zone := range rs.LocalityZones {
		if _, ok := rs.ZonePrices[zone]; !ok {
			return domainerr.NewValidationError("locality_zones", fmt.Sprintf("locality %q references unpriced zone %q", loc, zone))
		}
	}
	for pc, zone := range rs.PostalCodeZones {
		if _, ok := rs.ZonePrices[zone]; !ok {
			return domainerr.NewValidationError("postal_code_zones", fmt.Sprintf("postal code %q references unpriced zone %q", pc, zone))
		}
	}
	if rs.DefaultPricePerM2.IsZero() && len(rs.LocalityPrices) == 0 && len(rs.ZonePrices) == 0 {
		return domainerr.NewValidationError("default_price_per_m2", "rule set has no price at all")
	}
	for k, c := range rs.TypeCoefficients {
		if !k.Valid() || !c.IsPositive() {
			return domainerr.NewValidationError("type_coefficients", fmt.Sprintf("invalid coefficient for %q", k))
		}
	}
	for k, c := range rs.ConditionCoefficients {
		if !k.Valid() || !c.IsPositive() {
			return domainerr.NewValidationError("condition_coefficients", fmt.Sprintf("invalid coefficient for %q", k))
		}
	}
	if err := validateTerrainSteps(rs.TerrainSteps); err != nil {
		return err
	}
	for k, adj := range rs.Amenities {
		if strings.TrimSpace(k) == "" {
			return domainerr.NewValidationError("amenities", "amenity keys cannot be empty")
		}
		if adj.Kind != entities.AmenityKindFixed && adj.Kind != entities.AmenityKindPercentage {
			return domainerr.NewValidationError("amenities", fmt.Sprintf("amenity %q has unknown kind %q", k, adj.Kind))
		}
	}
	if rs.Confidence != nil {
		if err := validateConfidence(*rs.Confidence); err != nil {
			return err
		}
	}
	return nil
}

func validateTerrainSteps(steps []entities.TerrainStep) error {
	if len(steps) == 0 {
		return domainerr.NewValidationError("terrain_steps", "at least one step is required")
	}
	if !steps[0].MinArea.IsZero() {
		return domainerr.NewValidationError("terrain_steps", "first step must start at 0")
	}
	for i, s := range steps {
		if !s.Factor.IsPositive() {
			return domainerr.NewValidationError("terrain_steps", fmt.Sprintf("step %d factor must be positive", i))
		}
		if !s.MaxArea.GreaterThan(s.MinArea) {
			return domainerr.NewValidationError("terrain_steps", fmt.Sprintf("step %d max must exceed min", i))
		}
		if i > 0 && !s.MinArea.Equal(steps[i-1].MaxArea) {
			return domainerr.NewValidationError("terrain_steps", fmt.Sprintf("step %d leaves a gap after %s m²", i, steps[i-1].MaxArea))
		}
	}
	if steps[len(steps)-1].MaxArea.LessThan(decimal.NewFromInt(MaxTerrainArea)) {
		return domainerr.NewValidationError("terrain_steps", fmt.Sprintf("last step must cover %d m²", MaxTerrainArea))
	}
	return nil
}

func validateConfidence(c entities.ConfidenceRules) error {
	if c.MediumThreshold <= 0 || c.HighThreshold <= c.MediumThreshold || c.HighThreshold > 100 {
		return domainerr.NewValidationError("confidence", "thresholds must satisfy 0 < medium < high <= 100")
	}
	for _, m := range []int{c.HighMargin, c.MediumMargin, c.LowMargin} {
		if m <= 0 || m >= 100 {
			return domainerr.NewValidationError("confidence", "margins must be between 1 and 99")
		}
	}
	return nil
}
