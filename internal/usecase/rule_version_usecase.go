package usecase

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"juragites_estimation/internal/domain/domainerr"
	"juragites_estimation/internal/domain/entities"
	"juragites_estimation/internal/domain/valuation"
	"juragites_estimation/internal/usecase/interfaces"
)

var (
	ErrRuleVersionNotFound = errors.New("rule version not found")
	ErrInvalidVersionNum   = errors.New("invalid rule version number")
)

// IRuleVersionUseCase manages the versioned pricing rules.
//
//   - Activate validates a rule set and makes it the single active version.
//   - GetActive fails with a *domainerr.RuleResolutionError when no version is active.
type IRuleVersionUseCase interface {
	Activate(ctx context.Context, caller entities.Caller, rs entities.RuleSet, description string) (entities.RuleVersion, error)
	GetActive(ctx context.Context) (entities.RuleVersion, error)
	GetByNumber(ctx context.Context, versionNumber int) (entities.RuleVersion, error)
	List(ctx context.Context) ([]entities.RuleVersion, error)
	Seed(ctx context.Context, rs entities.RuleSet, description string) (entities.RuleVersion, bool, error)
}

type RuleVersionUseCase struct {
	repo    interfaces.IRuleVersionRepository
	alerter interfaces.IAlerter
	now     func() time.Time
}

var _ IRuleVersionUseCase = (*RuleVersionUseCase)(nil)

func NewRuleVersionUseCase(repo interfaces.IRuleVersionRepository, alerter interfaces.IAlerter) *RuleVersionUseCase {
	if alerter == nil {
		alerter = noopAlerter{}
	}
	return &RuleVersionUseCase{repo: repo, alerter: alerter, now: utcNow}
}

func (u *RuleVersionUseCase) Activate(ctx context.Context, caller entities.Caller, rs entities.RuleSet, description string) (entities.RuleVersion, error) {
	if !caller.IsAdmin() {
		return entities.RuleVersion{}, ErrForbidden
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return entities.RuleVersion{}, domainerr.NewValidationError("description", "missing required field")
	}
	if err := valuation.ValidateRuleSet(rs); err != nil {
		log.Printf("[rules][usecase] activate rejected by=%s err=%v", caller.ClientID, err)
		return entities.RuleVersion{}, err
	}
	return u.activate(ctx, rs, description, caller.ClientID)
}

func (u *RuleVersionUseCase) activate(ctx context.Context, rs entities.RuleSet, description, createdBy string) (entities.RuleVersion, error) {
	v, err := u.repo.Activate(ctx, rs, description, createdBy, u.now())
	if err != nil {
		u.alerter.Alert("rules", "rule version activation failed", err, map[string]string{"created_by": createdBy})
		return entities.RuleVersion{}, domainerr.NewPersistenceError("activate rule version", err)
	}
	log.Printf("[rules][usecase] activated version=%d id=%s by=%s", v.VersionNumber, v.ID, createdBy)
	return v, nil
}

func (u *RuleVersionUseCase) GetActive(ctx context.Context) (entities.RuleVersion, error) {
	v, err := u.repo.GetActive(ctx)
	if err != nil {
		return entities.RuleVersion{}, domainerr.NewPersistenceError("get active rule version", err)
	}
	if v.ID == "" {
		return entities.RuleVersion{}, &domainerr.RuleResolutionError{Reason: "no active rule version"}
	}
	return v, nil
}

func (u *RuleVersionUseCase) GetByNumber(ctx context.Context, versionNumber int) (entities.RuleVersion, error) {
	if versionNumber < 1 {
		return entities.RuleVersion{}, ErrInvalidVersionNum
	}
	v, err := u.repo.GetByNumber(ctx, versionNumber)
	if err != nil {
		return entities.RuleVersion{}, domainerr.NewPersistenceError("get rule version", err)
	}
	if v.ID == "" {
		return entities.RuleVersion{}, ErrRuleVersionNotFound
	}
	return v, nil
}

func (u *RuleVersionUseCase) List(ctx context.Context) ([]entities.RuleVersion, error) {
	vs, err := u.repo.List(ctx)
	if err != nil {
		return nil, domainerr.NewPersistenceError("list rule versions", err)
	}
	return vs, nil
}

// Seed activates rs only when no version is active yet. It is run at startup so a
// fresh deployment can price estimations; it never supersedes an operator's version.
func (u *RuleVersionUseCase) Seed(ctx context.Context, rs entities.RuleSet, description string) (entities.RuleVersion, bool, error) {
	active, err := u.repo.GetActive(ctx)
	if err != nil {
		return entities.RuleVersion{}, false, domainerr.NewPersistenceError("get active rule version", err)
	}
	if active.ID != "" {
		return active, false, nil
	}
	if err := valuation.ValidateRuleSet(rs); err != nil {
		return entities.RuleVersion{}, false, err
	}
	v, err := u.activate(ctx, rs, description, "seed")
	if err != nil {
		return entities.RuleVersion{}, false, err
	}
	return v, true, nil
}
