package response

import (
	"time"

	"juragites_estimation/internal/domain/entities"
)

type RuleVersionResponse struct {
	ID            string           `json:"id"`
	VersionNumber int              `json:"version_number"`
	Description   string           `json:"description"`
	IsActive      bool             `json:"is_active"`
	CreatedBy     string           `json:"created_by,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	RuleSet       entities.RuleSet `json:"rule_set"`
}

func FromRuleVersion(v entities.RuleVersion) RuleVersionResponse {
	return RuleVersionResponse{
		ID:            v.ID,
		VersionNumber: v.VersionNumber,
		Description:   v.Description,
		IsActive:      v.IsActive,
		CreatedBy:     v.CreatedBy,
		CreatedAt:     v.CreatedAt,
		RuleSet:       v.RuleSet,
	}
}

func FromRuleVersions(list []entities.RuleVersion) []RuleVersionResponse {
	out := make([]RuleVersionResponse, 0, len(list))
	for _, v := range list {
		out = append(out, FromRuleVersion(v))
	}
	return out
}
