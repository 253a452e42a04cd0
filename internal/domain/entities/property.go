package entities

// PropertyType is the declared kind of property.
type PropertyType string

const (
	PropertyTypeHouse     PropertyType = "house"
	PropertyTypeApartment PropertyType = "apartment"
	PropertyTypeOther     PropertyType = "other"
)

func (t PropertyType) Valid() bool {
	switch t {
	case PropertyTypeHouse, PropertyTypeApartment, PropertyTypeOther:
		return true
	}
	return false
}

// PropertyCondition is ordered from worst to best.
type PropertyCondition string

const (
	ConditionToRenovate PropertyCondition = "to_renovate"
	ConditionFair       PropertyCondition = "fair"
	ConditionGood       PropertyCondition = "good"
	ConditionExcellent  PropertyCondition = "excellent"
)

var conditionRank = map[PropertyCondition]int{
	ConditionToRenovate: 0,
	ConditionFair:       1,
	ConditionGood:       2,
	ConditionExcellent:  3,
}

func (c PropertyCondition) Valid() bool {
	_, ok := conditionRank[c]
	return ok
}

// Rank returns the position of c in the ordered set, or -1 when c is unknown.
func (c PropertyCondition) Rank() int {
	if r, ok := conditionRank[c]; ok {
		return r
	}
	return -1
}

// PropertyAttributes are declared by the client and never verified.
type PropertyAttributes struct {
	PropertyType     PropertyType      `json:"property_type"`
	HabitableArea    float64           `json:"habitable_area"`
	TerrainArea      *float64          `json:"terrain_area,omitempty"`
	LocalityID       string            `json:"locality_id,omitempty"`
	PostalCode       string            `json:"postal_code,omitempty"`
	Condition        PropertyCondition `json:"condition"`
	ConstructionYear *int              `json:"construction_year,omitempty"`
	Amenities        []string          `json:"amenities,omitempty"`
}

// TerrainAreaValue returns the declared terrain area, 0 when absent.
func (a PropertyAttributes) TerrainAreaValue() float64 {
	if a.TerrainArea == nil {
		return 0
	}
	return *a.TerrainArea
}

// Clone returns a deep copy so stored attributes never alias caller memory.
func (a PropertyAttributes) Clone() PropertyAttributes {
	out := a
	if a.TerrainArea != nil {
		v := *a.TerrainArea
		out.TerrainArea = &v
	}
	if a.ConstructionYear != nil {
		v := *a.ConstructionYear
		out.ConstructionYear = &v
	}
	if a.Amenities != nil {
		out.Amenities = append([]string(nil), a.Amenities...)
	}
	return out
}
