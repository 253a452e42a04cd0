package request

import (
	"strings"

	"juragites_estimation/internal/domain/entities"
	"juragites_estimation/internal/usecase"
)

// PropertyAttributesRequest is the client declaration of the property.
// Values are validated by the valuation rules on submit, not at binding time.
type PropertyAttributesRequest struct {
	PropertyType     string   `json:"property_type"`
	HabitableArea    float64  `json:"habitable_area"`
	TerrainArea      *float64 `json:"terrain_area,omitempty"`
	LocalityID       string   `json:"locality_id,omitempty"`
	PostalCode       string   `json:"postal_code,omitempty"`
	Condition        string   `json:"condition"`
	ConstructionYear *int     `json:"construction_year,omitempty"`
	Amenities        []string `json:"amenities,omitempty"`
}

func (r PropertyAttributesRequest) ToEntity() entities.PropertyAttributes {
	var amenities []string
	for _, a := range r.Amenities {
		if a = strings.TrimSpace(a); a != "" {
			amenities = append(amenities, a)
		}
	}
	return entities.PropertyAttributes{
		PropertyType:     entities.PropertyType(strings.TrimSpace(r.PropertyType)),
		HabitableArea:    r.HabitableArea,
		TerrainArea:      r.TerrainArea,
		LocalityID:       strings.TrimSpace(r.LocalityID),
		PostalCode:       strings.TrimSpace(r.PostalCode),
		Condition:        entities.PropertyCondition(strings.TrimSpace(r.Condition)),
		ConstructionYear: r.ConstructionYear,
		Amenities:        amenities,
	}
}

type CreateEstimationRequest struct {
	Reason     string                    `json:"reason" binding:"required"`
	Attributes PropertyAttributesRequest `json:"attributes"`
}

func (r CreateEstimationRequest) ToInput() usecase.CreateEstimationInput {
	return usecase.CreateEstimationInput{
		Reason:     entities.Reason(strings.TrimSpace(r.Reason)),
		Attributes: r.Attributes.ToEntity(),
	}
}

// ConsentRequest is the explicit acceptance. A missing "accepted" is a refusal.
type ConsentRequest struct {
	Accepted    bool   `json:"accepted"`
	ConsentText string `json:"consent_text,omitempty"`
}

func (r ConsentRequest) ToInput() usecase.ConsentInput {
	return usecase.ConsentInput{Accepted: r.Accepted, ConsentText: r.ConsentText}
}

type CancelRequest struct {
	Reason string `json:"reason"`
}
