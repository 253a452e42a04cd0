package interfaces

import (
	"context"

	"juragites_estimation/internal/domain/entities"
)

// IEstimationRepository abstracts persistence for Estimation.
//
// Lookups return a zero Estimation (empty ID) when nothing matches.
//
// UpdateConditional is the only write path after Create. It applies changes only
// when the stored status is one of expected, and returns applied=false with the
// current row when another writer got there first. When changes carry a Result,
// the stored row must not already have one.
type IEstimationRepository interface {
	Create(ctx context.Context, e entities.Estimation) (entities.Estimation, error)
	GetByID(ctx context.Context, id string) (entities.Estimation, error)
	GetByPaymentReference(ctx context.Context, reference string) (entities.Estimation, error)
	ListByClientID(ctx context.Context, clientID string) ([]entities.Estimation, error)
	UpdateConditional(ctx context.Context, id string, expected []entities.EstimationStatus, changes entities.EstimationChanges) (entities.Estimation, bool, error)
}
