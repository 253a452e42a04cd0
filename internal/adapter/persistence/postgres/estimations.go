package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"juragites_estimation/internal/domain/entities"
	"juragites_estimation/internal/usecase/interfaces"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const estimationColumns = `id, client_id, reason, status, payment_status, COALESCE(payment_reference, ''),
	amount_paid::text, currency, paid_at, attributes, legal_consent, result,
	rule_version_id, rule_version_number, report_locator, failure_reason, created_at, updated_at`

type EstimationRepository struct {
	db *DB
}

var _ interfaces.IEstimationRepository = (*EstimationRepository)(nil)

func NewEstimationRepository(db *DB) *EstimationRepository {
	return &EstimationRepository{db: db}
}

func (r *EstimationRepository) Create(ctx context.Context, e entities.Estimation) (entities.Estimation, error) {
	args, err := estimationArgs(e)
	if err != nil {
		return entities.Estimation{}, err
	}
	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO estimations (id, client_id, reason, status, payment_status, payment_reference,
			amount_paid, currency, paid_at, attributes, legal_consent, result,
			rule_version_id, rule_version_number, report_locator, failure_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7::numeric, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`, args...)
	if isUniqueViolation(err) {
		return entities.Estimation{}, ErrDuplicateID
	}
	if err != nil {
		return entities.Estimation{}, err
	}
	return e, nil
}

func (r *EstimationRepository) GetByID(ctx context.Context, id string) (entities.Estimation, error) {
	return scanEstimation(r.db.Pool.QueryRow(ctx, `SELECT `+estimationColumns+` FROM estimations WHERE id = $1`, id))
}

func (r *EstimationRepository) GetByPaymentReference(ctx context.Context, reference string) (entities.Estimation, error) {
	return scanEstimation(r.db.Pool.QueryRow(ctx, `SELECT `+estimationColumns+` FROM estimations WHERE payment_reference = $1`, reference))
}

func (r *EstimationRepository) ListByClientID(ctx context.Context, clientID string) ([]entities.Estimation, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+estimationColumns+` FROM estimations WHERE client_id = $1 ORDER BY created_at DESC`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entities.Estimation
	for rows.Next() {
		e, err := scanEstimation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpdateConditional locks the row, checks the expected status and writes the
// changes in one transaction.
func (r *EstimationRepository) UpdateConditional(
	ctx context.Context,
	id string,
	expected []entities.EstimationStatus,
	changes entities.EstimationChanges,
) (result entities.Estimation, applied bool, err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return entities.Estimation{}, false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	cur, err := scanEstimation(tx.QueryRow(ctx, `SELECT `+estimationColumns+` FROM estimations WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return entities.Estimation{}, false, err
	}
	if cur.ID == "" {
		return entities.Estimation{}, false, nil
	}
	if !statusIn(cur.Status, expected) || (changes.Result != nil && cur.Result != nil) {
		return cur, false, nil
	}

	next := changes.Apply(cur)
	args, err := estimationArgs(next)
	if err != nil {
		return entities.Estimation{}, false, err
	}
	if _, err = tx.Exec(ctx, `
		UPDATE estimations SET client_id = $2, reason = $3, status = $4, payment_status = $5,
			payment_reference = NULLIF($6, ''), amount_paid = $7::numeric, currency = $8, paid_at = $9,
			attributes = $10, legal_consent = $11, result = $12, rule_version_id = $13,
			rule_version_number = $14, report_locator = $15, failure_reason = $16, created_at = $17, updated_at = $18
		WHERE id = $1
	`, args...); err != nil {
		return entities.Estimation{}, false, err
	}
	return next, true, nil
}

func statusIn(s entities.EstimationStatus, set []entities.EstimationStatus) bool {
	for _, x := range set {
		if x == s {
			return true
		}
	}
	return false
}

func estimationArgs(e entities.Estimation) ([]any, error) {
	attrs, err := json.Marshal(e.Attributes)
	if err != nil {
		return nil, err
	}
	consent, err := json.Marshal(e.LegalConsent)
	if err != nil {
		return nil, err
	}
	var result []byte
	if e.Result != nil {
		if result, err = json.Marshal(e.Result); err != nil {
			return nil, err
		}
	}
	return []any{
		e.ID, e.ClientID, string(e.Reason), string(e.Status), string(e.PaymentStatus), e.PaymentReference,
		e.AmountPaid.String(), e.Currency, e.PaidAt, attrs, consent, result,
		e.RuleVersionID, e.RuleVersionNumber, e.ReportLocator, e.FailureReason, e.CreatedAt.UTC(), e.UpdatedAt.UTC(),
	}, nil
}

func scanEstimation(row pgx.Row) (entities.Estimation, error) {
	var (
		e                      entities.Estimation
		reason, status, pay    string
		amount                 string
		paidAt                 *time.Time
		attrs, consent, result []byte
	)
	err := row.Scan(&e.ID, &e.ClientID, &reason, &status, &pay, &e.PaymentReference,
		&amount, &e.Currency, &paidAt, &attrs, &consent, &result,
		&e.RuleVersionID, &e.RuleVersionNumber, &e.ReportLocator, &e.FailureReason, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return entities.Estimation{}, nil
	}
	if err != nil {
		return entities.Estimation{}, err
	}
	e.Reason = entities.Reason(reason)
	e.Status = entities.EstimationStatus(status)
	e.PaymentStatus = entities.PaymentStatus(pay)
	e.PaidAt = paidAt
	if e.AmountPaid, err = decimal.NewFromString(amount); err != nil {
		return entities.Estimation{}, fmt.Errorf("estimation %s amount_paid: %w", e.ID, err)
	}
	if err := json.Unmarshal(attrs, &e.Attributes); err != nil {
		return entities.Estimation{}, fmt.Errorf("estimation %s attributes: %w", e.ID, err)
	}
	if err := json.Unmarshal(consent, &e.LegalConsent); err != nil {
		return entities.Estimation{}, fmt.Errorf("estimation %s legal_consent: %w", e.ID, err)
	}
	if len(result) > 0 {
		var res entities.ValuationResult
		if err := json.Unmarshal(result, &res); err != nil {
			return entities.Estimation{}, fmt.Errorf("estimation %s result: %w", e.ID, err)
		}
		e.Result = &res
	}
	return e, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isUniqueViolationOn(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}
