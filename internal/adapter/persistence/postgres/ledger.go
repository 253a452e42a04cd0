package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"juragites_estimation/internal/domain/entities"
	"juragites_estimation/internal/usecase/interfaces"

	"github.com/shopspring/decimal"
)

// AuditEventRepository appends to audit_events. The table rejects updates and
// deletes at the database level.
type AuditEventRepository struct {
	db *DB
}

var _ interfaces.IAuditEventRepository = (*AuditEventRepository)(nil)

func NewAuditEventRepository(db *DB) *AuditEventRepository {
	return &AuditEventRepository{db: db}
}

func (r *AuditEventRepository) Append(ctx context.Context, ev entities.AuditEvent) error {
	data, err := encodeEventData(ev)
	if err != nil {
		return err
	}
	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO audit_events (id, estimation_id, seq, event_type, event_data, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, ev.ID, ev.EstimationID, ev.SortKey(), string(ev.Type), data, ev.IPAddress, ev.UserAgent, ev.CreatedAt.UTC())
	if isUniqueViolation(err) {
		return ErrDuplicateID
	}
	return err
}

// AppendOnce inserts ev unless a row already carries key. ON CONFLICT is not
// available on a table with UPDATE rules, so the guard is a NOT EXISTS select
// backed by the unique once_key index for concurrent writers.
func (r *AuditEventRepository) AppendOnce(ctx context.Context, ev entities.AuditEvent, key string) (bool, error) {
	data, err := encodeEventData(ev)
	if err != nil {
		return false, err
	}
	tag, err := r.db.Pool.Exec(ctx, `
		INSERT INTO audit_events (id, estimation_id, seq, event_type, event_data, ip_address, user_agent, created_at, once_key)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9
		WHERE NOT EXISTS (SELECT 1 FROM audit_events WHERE once_key = $9)
	`, ev.ID, ev.EstimationID, ev.SortKey(), string(ev.Type), data, ev.IPAddress, ev.UserAgent, ev.CreatedAt.UTC(), key)
	switch {
	case isUniqueViolationOn(err, "audit_events_once_key_idx"):
		return false, nil
	case isUniqueViolation(err):
		return false, ErrDuplicateID
	case err != nil:
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func encodeEventData(ev entities.AuditEvent) ([]byte, error) {
	if ev.Data == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(ev.Data)
}

func (r *AuditEventRepository) ListByEstimationID(ctx context.Context, estimationID string) ([]entities.AuditEvent, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, estimation_id, event_type, event_data, ip_address, user_agent, created_at
		FROM audit_events WHERE estimation_id = $1 ORDER BY seq
	`, estimationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entities.AuditEvent
	for rows.Next() {
		var (
			ev   entities.AuditEvent
			typ  string
			data []byte
		)
		if err := rows.Scan(&ev.ID, &ev.EstimationID, &typ, &data, &ev.IPAddress, &ev.UserAgent, &ev.CreatedAt); err != nil {
			return nil, err
		}
		ev.Type = entities.EventType(typ)
		if ev.Data, err = entities.DecodeEventData(ev.Type, data); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

type PaymentTransactionRepository struct {
	db *DB
}

var _ interfaces.IPaymentTransactionRepository = (*PaymentTransactionRepository)(nil)

func NewPaymentTransactionRepository(db *DB) *PaymentTransactionRepository {
	return &PaymentTransactionRepository{db: db}
}

func (r *PaymentTransactionRepository) Create(ctx context.Context, t entities.PaymentTransaction) (entities.PaymentTransaction, bool, error) {
	var payload []byte
	if len(t.ProviderPayload) > 0 {
		payload = t.ProviderPayload
	}
	tag, err := r.db.Pool.Exec(ctx, `
		INSERT INTO payment_transactions (id, estimation_id, provider, provider_transaction_id, amount, currency, status, provider_payload, created_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`, t.ID, t.EstimationID, t.Provider, t.ProviderTransactionID, t.Amount.String(), t.Currency, string(t.Status), payload, t.CreatedAt.UTC())
	if err != nil {
		return entities.PaymentTransaction{}, false, err
	}
	if tag.RowsAffected() == 0 {
		existing, err := r.get(ctx, t.ID)
		return existing, false, err
	}
	return t, true, nil
}

const transactionColumns = `id, estimation_id, provider, provider_transaction_id, amount::text, currency, status, provider_payload, created_at`

func (r *PaymentTransactionRepository) get(ctx context.Context, id string) (entities.PaymentTransaction, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+transactionColumns+` FROM payment_transactions WHERE id = $1`, id)
	if err != nil {
		return entities.PaymentTransaction{}, err
	}
	defer rows.Close()
	if !rows.Next() {
		return entities.PaymentTransaction{}, rows.Err()
	}
	return scanTransaction(rows)
}

func (r *PaymentTransactionRepository) ListByEstimationID(ctx context.Context, estimationID string) ([]entities.PaymentTransaction, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+transactionColumns+` FROM payment_transactions WHERE estimation_id = $1 ORDER BY created_at, id`, estimationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entities.PaymentTransaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (entities.PaymentTransaction, error) {
	var (
		t              entities.PaymentTransaction
		amount, status string
		payload        []byte
	)
	if err := row.Scan(&t.ID, &t.EstimationID, &t.Provider, &t.ProviderTransactionID, &amount, &t.Currency, &status, &payload, &t.CreatedAt); err != nil {
		return entities.PaymentTransaction{}, err
	}
	a, err := decimal.NewFromString(amount)
	if err != nil {
		return entities.PaymentTransaction{}, fmt.Errorf("transaction %s amount: %w", t.ID, err)
	}
	t.Amount = a
	t.Status = entities.TransactionStatus(status)
	if len(payload) > 0 {
		t.ProviderPayload = json.RawMessage(payload)
	}
	return t, nil
}
