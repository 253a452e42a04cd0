package valuation

import (
	"strings"

	"juragites_estimation/internal/domain/entities"

	"github.com/shopspring/decimal"
)

// trackedFields is the number of declared fields counted by Completeness.
const trackedFields = 8

// Confidence is the outcome of the confidence model for one attribute set.
type Confidence struct {
	Completeness  int
	Level         entities.ConfidenceLevel
	MarginPercent int
}

// Completeness returns the rounded percentage of tracked fields the declarant filled:
// property type, habitable area, postal code, condition, terrain area, construction
// year, locality id, and amenities (present or not).
func Completeness(a entities.PropertyAttributes) int {
	filled := 0
	for _, ok := range []bool{
		a.PropertyType != "",
		a.HabitableArea > 0,
		strings.TrimSpace(a.PostalCode) != "",
		a.Condition != "",
		a.TerrainAreaValue() > 0,
		a.ConstructionYear != nil,
		strings.TrimSpace(a.LocalityID) != "",
		len(a.Amenities) > 0,
	} {
		if ok {
			filled++
		}
	}
	return int(decimal.NewFromInt(int64(filled * 100)).Div(decimal.NewFromInt(trackedFields)).Round(0).IntPart())
}

// AssessConfidence maps completeness to a level and a margin using the rules of a
// rule version.
func AssessConfidence(a entities.PropertyAttributes, rules entities.ConfidenceRules) Confidence {
	c := Completeness(a)
	switch {
	case c >= rules.HighThreshold:
		return Confidence{Completeness: c, Level: entities.ConfidenceHigh, MarginPercent: rules.HighMargin}
	case c >= rules.MediumThreshold:
		return Confidence{Completeness: c, Level: entities.ConfidenceMedium, MarginPercent: rules.MediumMargin}
	default:
		return Confidence{Completeness: c, Level: entities.ConfidenceLow, MarginPercent: rules.LowMargin}
	}
}

// Range widens median by ±margin percent. The half-width is at least one currency
// unit, so the range never collapses to a point.
func Range(median int64, marginPercent int) (low, high int64) {
	delta := decimal.NewFromInt(median).
		Mul(decimal.NewFromInt(int64(marginPercent))).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
	if delta < 1 {
		delta = 1
	}
	return median - delta, median + delta
}
