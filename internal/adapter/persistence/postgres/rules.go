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
)

// ruleActivationLock serializes activations across processes.
const ruleActivationLock = 7_391_001

type RuleVersionRepository struct {
	db *DB
}

var _ interfaces.IRuleVersionRepository = (*RuleVersionRepository)(nil)

func NewRuleVersionRepository(db *DB) *RuleVersionRepository {
	return &RuleVersionRepository{db: db}
}

const ruleVersionColumns = `id, version_number, description, rule_set, is_active, created_by, created_at`

func (r *RuleVersionRepository) GetActive(ctx context.Context) (entities.RuleVersion, error) {
	return scanRuleVersion(r.db.Pool.QueryRow(ctx, `SELECT `+ruleVersionColumns+` FROM rule_versions WHERE is_active`))
}

func (r *RuleVersionRepository) GetByNumber(ctx context.Context, versionNumber int) (entities.RuleVersion, error) {
	return scanRuleVersion(r.db.Pool.QueryRow(ctx, `SELECT `+ruleVersionColumns+` FROM rule_versions WHERE version_number = $1`, versionNumber))
}

func (r *RuleVersionRepository) List(ctx context.Context) ([]entities.RuleVersion, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+ruleVersionColumns+` FROM rule_versions ORDER BY version_number DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entities.RuleVersion
	for rows.Next() {
		v, err := scanRuleVersion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *RuleVersionRepository) Activate(ctx context.Context, rs entities.RuleSet, description, createdBy string, now time.Time) (v entities.RuleVersion, err error) {
	payload, err := json.Marshal(rs)
	if err != nil {
		return entities.RuleVersion{}, err
	}

	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return entities.RuleVersion{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, ruleActivationLock); err != nil {
		return entities.RuleVersion{}, err
	}
	var last int
	if err = tx.QueryRow(ctx, `SELECT COALESCE(MAX(version_number), 0) FROM rule_versions`).Scan(&last); err != nil {
		return entities.RuleVersion{}, err
	}
	if _, err = tx.Exec(ctx, `UPDATE rule_versions SET is_active = FALSE WHERE is_active`); err != nil {
		return entities.RuleVersion{}, err
	}

	v = entities.RuleVersion{
		ID:            entities.RuleVersionID(last + 1),
		VersionNumber: last + 1,
		Description:   description,
		RuleSet:       rs,
		IsActive:      true,
		CreatedBy:     createdBy,
		CreatedAt:     now.UTC(),
	}
	if _, err = tx.Exec(ctx, `
		INSERT INTO rule_versions (id, version_number, description, rule_set, is_active, created_by, created_at)
		VALUES ($1, $2, $3, $4, TRUE, $5, $6)
	`, v.ID, v.VersionNumber, v.Description, payload, v.CreatedBy, v.CreatedAt); err != nil {
		return entities.RuleVersion{}, err
	}
	return v, nil
}

func scanRuleVersion(row pgx.Row) (entities.RuleVersion, error) {
	var (
		v       entities.RuleVersion
		payload []byte
	)
	err := row.Scan(&v.ID, &v.VersionNumber, &v.Description, &payload, &v.IsActive, &v.CreatedBy, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return entities.RuleVersion{}, nil
	}
	if err != nil {
		return entities.RuleVersion{}, err
	}
	if err := json.Unmarshal(payload, &v.RuleSet); err != nil {
		return entities.RuleVersion{}, fmt.Errorf("rule version %s: %w", v.ID, err)
	}
	return v, nil
}

type ClientProfileRepository struct {
	db *DB
}

var _ interfaces.IClientProfileRepository = (*ClientProfileRepository)(nil)

func NewClientProfileRepository(db *DB) *ClientProfileRepository {
	return &ClientProfileRepository{db: db}
}

func (r *ClientProfileRepository) GetByID(ctx context.Context, id string) (entities.ClientProfile, error) {
	var p entities.ClientProfile
	err := r.db.Pool.QueryRow(ctx, `SELECT id, email, full_name, created_at FROM client_profiles WHERE id = $1`, id).
		Scan(&p.ID, &p.Email, &p.FullName, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return entities.ClientProfile{}, nil
	}
	return p, err
}
