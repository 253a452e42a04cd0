// Package memory provides in-memory repositories (for testing/dev).
//
// Each repository serializes its writes behind one mutex, which gives the same
// conditional-write guarantees as the DynamoDB and postgres drivers.
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"juragites_estimation/internal/domain/entities"
	"juragites_estimation/internal/usecase/interfaces"
)

// =============================================================================
// ESTIMATIONS
// =============================================================================

type EstimationRepository struct {
	mu   sync.RWMutex
	rows map[string]entities.Estimation
}

var _ interfaces.IEstimationRepository = (*EstimationRepository)(nil)

func NewEstimationRepository() *EstimationRepository {
	return &EstimationRepository{rows: make(map[string]entities.Estimation)}
}

func (r *EstimationRepository) Create(_ context.Context, e entities.Estimation) (entities.Estimation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[e.ID]; ok {
		return entities.Estimation{}, ErrDuplicateID
	}
	r.rows[e.ID] = cloneEstimation(e)
	return cloneEstimation(e), nil
}

func (r *EstimationRepository) GetByID(_ context.Context, id string) (entities.Estimation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.rows[id]
	if !ok {
		return entities.Estimation{}, nil
	}
	return cloneEstimation(e), nil
}

func (r *EstimationRepository) GetByPaymentReference(_ context.Context, reference string) (entities.Estimation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if reference == "" {
		return entities.Estimation{}, nil
	}
	for _, e := range r.rows {
		if e.PaymentReference == reference {
			return cloneEstimation(e), nil
		}
	}
	return entities.Estimation{}, nil
}

func (r *EstimationRepository) ListByClientID(_ context.Context, clientID string) ([]entities.Estimation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entities.Estimation, 0)
	for _, e := range r.rows {
		if e.ClientID == clientID {
			out = append(out, cloneEstimation(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *EstimationRepository) UpdateConditional(_ context.Context, id string, expected []entities.EstimationStatus, changes entities.EstimationChanges) (entities.Estimation, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.rows[id]
	if !ok {
		return entities.Estimation{}, false, nil
	}
	if !statusIn(cur.Status, expected) || (changes.Result != nil && cur.Result != nil) {
		return cloneEstimation(cur), false, nil
	}
	next := changes.Apply(cur)
	r.rows[id] = cloneEstimation(next)
	return cloneEstimation(next), true, nil
}

func statusIn(s entities.EstimationStatus, set []entities.EstimationStatus) bool {
	for _, x := range set {
		if x == s {
			return true
		}
	}
	return false
}

func cloneEstimation(e entities.Estimation) entities.Estimation {
	e.Attributes = e.Attributes.Clone()
	if e.PaidAt != nil {
		t := *e.PaidAt
		e.PaidAt = &t
	}
	if e.LegalConsent.AcceptedAt != nil {
		t := *e.LegalConsent.AcceptedAt
		e.LegalConsent.AcceptedAt = &t
	}
	if e.Result != nil {
		res := *e.Result
		res.Trace = append([]entities.TraceEntry(nil), res.Trace...)
		res.Breakdown.AppliedAmenities = append([]entities.AppliedAmenity(nil), res.Breakdown.AppliedAmenities...)
		e.Result = &res
	}
	return e
}

// =============================================================================
// AUDIT EVENTS - append-only
// =============================================================================

type AuditEventRepository struct {
	mu     sync.RWMutex
	events map[string][]entities.AuditEvent
	ids    map[string]bool
	once   map[string]bool
}

var _ interfaces.IAuditEventRepository = (*AuditEventRepository)(nil)

func NewAuditEventRepository() *AuditEventRepository {
	return &AuditEventRepository{
		events: make(map[string][]entities.AuditEvent),
		ids:    make(map[string]bool),
		once:   make(map[string]bool),
	}
}

func (r *AuditEventRepository) Append(_ context.Context, ev entities.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insert(ev)
}

func (r *AuditEventRepository) AppendOnce(_ context.Context, ev entities.AuditEvent, key string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.once[key] {
		return false, nil
	}
	if err := r.insert(ev); err != nil {
		return false, err
	}
	r.once[key] = true
	return true, nil
}

func (r *AuditEventRepository) insert(ev entities.AuditEvent) error {
	if r.ids[ev.ID] {
		return ErrDuplicateID
	}
	evs := r.events[ev.EstimationID]
	key := ev.SortKey()
	i := sort.Search(len(evs), func(i int) bool { return evs[i].SortKey() > key })
	evs = append(evs, entities.AuditEvent{})
	copy(evs[i+1:], evs[i:])
	evs[i] = ev
	r.events[ev.EstimationID] = evs
	r.ids[ev.ID] = true
	return nil
}

func (r *AuditEventRepository) ListByEstimationID(_ context.Context, estimationID string) ([]entities.AuditEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entities.AuditEvent, len(r.events[estimationID]))
	copy(out, r.events[estimationID])
	return out, nil
}

// =============================================================================
// PAYMENT TRANSACTIONS - append-only
// =============================================================================

type PaymentTransactionRepository struct {
	mu   sync.RWMutex
	rows []entities.PaymentTransaction
	ids  map[string]bool
}

var _ interfaces.IPaymentTransactionRepository = (*PaymentTransactionRepository)(nil)

func NewPaymentTransactionRepository() *PaymentTransactionRepository {
	return &PaymentTransactionRepository{ids: make(map[string]bool)}
}

func (r *PaymentTransactionRepository) Create(_ context.Context, tx entities.PaymentTransaction) (entities.PaymentTransaction, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ids[tx.ID] {
		return tx, false, nil
	}
	r.ids[tx.ID] = true
	r.rows = append(r.rows, tx)
	return tx, true, nil
}

func (r *PaymentTransactionRepository) ListByEstimationID(_ context.Context, estimationID string) ([]entities.PaymentTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entities.PaymentTransaction, 0)
	for _, tx := range r.rows {
		if tx.EstimationID == estimationID {
			out = append(out, tx)
		}
	}
	return out, nil
}

// =============================================================================
// RULE VERSIONS
// =============================================================================

type RuleVersionRepository struct {
	mu       sync.RWMutex
	versions []entities.RuleVersion
}

var _ interfaces.IRuleVersionRepository = (*RuleVersionRepository)(nil)

func NewRuleVersionRepository() *RuleVersionRepository {
	return &RuleVersionRepository{}
}

func (r *RuleVersionRepository) GetActive(_ context.Context) (entities.RuleVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, v := range r.versions {
		if v.IsActive {
			return cloneRuleVersion(v)
		}
	}
	return entities.RuleVersion{}, nil
}

func (r *RuleVersionRepository) GetByNumber(_ context.Context, versionNumber int) (entities.RuleVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, v := range r.versions {
		if v.VersionNumber == versionNumber {
			return cloneRuleVersion(v)
		}
	}
	return entities.RuleVersion{}, nil
}

func (r *RuleVersionRepository) List(_ context.Context) ([]entities.RuleVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entities.RuleVersion, 0, len(r.versions))
	for i := len(r.versions) - 1; i >= 0; i-- {
		v, err := cloneRuleVersion(r.versions[i])
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (r *RuleVersionRepository) Activate(_ context.Context, rs entities.RuleSet, description, createdBy string, now time.Time) (entities.RuleVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := 1
	if n := len(r.versions); n > 0 {
		next = r.versions[n-1].VersionNumber + 1
	}
	v, err := cloneRuleVersion(entities.RuleVersion{
		ID:            entities.RuleVersionID(next),
		VersionNumber: next,
		Description:   description,
		RuleSet:       rs,
		IsActive:      true,
		CreatedBy:     createdBy,
		CreatedAt:     now.UTC(),
	})
	if err != nil {
		return entities.RuleVersion{}, err
	}
	for i := range r.versions {
		r.versions[i].IsActive = false
	}
	r.versions = append(r.versions, v)
	return cloneRuleVersion(v)
}

// cloneRuleVersion deep-copies the rule set maps so stored versions stay immutable.
func cloneRuleVersion(v entities.RuleVersion) (entities.RuleVersion, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return entities.RuleVersion{}, err
	}
	var out entities.RuleVersion
	if err := json.Unmarshal(b, &out); err != nil {
		return entities.RuleVersion{}, err
	}
	return out, nil
}

// =============================================================================
// CLIENT PROFILES
// =============================================================================

type ClientProfileRepository struct {
	mu       sync.RWMutex
	profiles map[string]entities.ClientProfile
}

var _ interfaces.IClientProfileRepository = (*ClientProfileRepository)(nil)

func NewClientProfileRepository() *ClientProfileRepository {
	return &ClientProfileRepository{profiles: make(map[string]entities.ClientProfile)}
}

// Put seeds a profile, standing in for the identity provider.
func (r *ClientProfileRepository) Put(p entities.ClientProfile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.ID] = p
}

func (r *ClientProfileRepository) GetByID(_ context.Context, id string) (entities.ClientProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.profiles[id], nil
}
