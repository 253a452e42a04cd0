package interfaces

import (
	"context"
	"time"

	"juragites_estimation/internal/domain/entities"
)

// IRuleVersionRepository stores immutable rule versions.
//
// Activate is atomic: it assigns last version number + 1 (1 when empty), stores the
// new version as active and deactivates the previous one, or does nothing.
// GetActive and GetByNumber return a zero RuleVersion when nothing matches.
type IRuleVersionRepository interface {
	GetActive(ctx context.Context) (entities.RuleVersion, error)
	GetByNumber(ctx context.Context, versionNumber int) (entities.RuleVersion, error)
	List(ctx context.Context) ([]entities.RuleVersion, error)
	Activate(ctx context.Context, rs entities.RuleSet, description, createdBy string, now time.Time) (entities.RuleVersion, error)
}
