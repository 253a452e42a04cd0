package request

import "juragites_estimation/internal/domain/entities"

// ActivateRuleVersionRequest publishes a new rule set. It becomes active at once.
type ActivateRuleVersionRequest struct {
	Description string           `json:"description" binding:"required"`
	RuleSet     entities.RuleSet `json:"rule_set"`
}
