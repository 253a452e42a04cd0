package interfaces

import (
	"context"

	"juragites_estimation/internal/domain/entities"
)

// IPaymentTransactionRepository is append-only.
// Create returns created=false, without error, when a row with the same id exists.
type IPaymentTransactionRepository interface {
	Create(ctx context.Context, tx entities.PaymentTransaction) (entities.PaymentTransaction, bool, error)
	ListByEstimationID(ctx context.Context, estimationID string) ([]entities.PaymentTransaction, error)
}
