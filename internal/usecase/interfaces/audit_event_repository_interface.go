package interfaces

import (
	"context"

	"juragites_estimation/internal/domain/entities"
)

// IAuditEventRepository is the append-only audit ledger store.
// There is no update or delete. ListByEstimationID returns events in SortKey order.
//
// AppendOnce stores ev unless an event was already stored under key, and reports
// whether ev was written. The check and the write are atomic.
type IAuditEventRepository interface {
	Append(ctx context.Context, ev entities.AuditEvent) error
	AppendOnce(ctx context.Context, ev entities.AuditEvent, key string) (bool, error)
	ListByEstimationID(ctx context.Context, estimationID string) ([]entities.AuditEvent, error)
}
