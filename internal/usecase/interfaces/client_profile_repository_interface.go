package interfaces

import (
	"context"

	"juragites_estimation/internal/domain/entities"
)

// IClientProfileRepository reads profiles written by the identity provider.
type IClientProfileRepository interface {
	GetByID(ctx context.Context, id string) (entities.ClientProfile, error)
}
