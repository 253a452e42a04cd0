package usecase

import (
	"context"
	"log"
	"time"

	"juragites_estimation/internal/domain/domainerr"
	"juragites_estimation/internal/domain/entities"
	"juragites_estimation/internal/domain/valuation"
	"juragites_estimation/internal/usecase/interfaces"

	"github.com/google/uuid"
)

const (
	ComplianceCompliant    = "COMPLIANT"
	ComplianceNonCompliant = "NON_COMPLIANT"
)

// IAuditLedger is the business audit trail of estimations.
//
// Record never swallows a failed write: the failure goes to the operational
// alert channel and comes back as a *domainerr.PersistenceError.
//
// RecordOnce is Record for events that happen at most once per estimation and
// occurrence (a provider payment or refund id, or "" for one per estimation). It
// is a no-op when the event is already stored, so a workflow step that failed half
// way can be replayed.
type IAuditLedger interface {
	Record(ctx context.Context, estimationID string, data entities.EventData, meta entities.RequestMeta) error
	RecordOnce(ctx context.Context, estimationID, occurrence string, data entities.EventData, meta entities.RequestMeta) error
	Trail(ctx context.Context, caller entities.Caller, estimationID string) ([]entities.AuditEvent, error)
	Export(ctx context.Context, caller entities.Caller, estimationID string) (ExportRecord, error)
	Compliance(ctx context.Context, caller entities.Caller, estimationID string) (ComplianceReport, error)
}

// ExportRecord assembles every stored row of one estimation, unmodified.
type ExportRecord struct {
	Estimation   entities.Estimation
	Profile      entities.ClientProfile
	AuditTrail   []entities.AuditEvent
	PaymentTrail []entities.PaymentTransaction
	ExportedAt   time.Time
}

type ComplianceCheckpoints struct {
	ConsentAccepted    bool
	ConsentTimestamp   *time.Time
	Reason             entities.Reason
	PaymentConfirmed   bool
	ReportGenerated    bool
	AuditTrailComplete bool
	MissingEvents      []entities.EventType
}

type ComplianceRisk struct {
	DataCompleteness  int
	ConsentRisky      bool
	PaymentRisky      bool
	OverallCompliance string
}

type ComplianceReport struct {
	GeneratedAt        time.Time
	EstimationID       string
	ClientEmail        string
	Checkpoints        ComplianceCheckpoints
	Risk               ComplianceRisk
	RecommendedActions []string
}

type AuditLedger struct {
	events       interfaces.IAuditEventRepository
	estimations  interfaces.IEstimationRepository
	transactions interfaces.IPaymentTransactionRepository
	profiles     interfaces.IClientProfileRepository
	alerter      interfaces.IAlerter
	clock        *monotonicClock
	newID        func() string
}

var _ IAuditLedger = (*AuditLedger)(nil)

func NewAuditLedger(
	events interfaces.IAuditEventRepository,
	estimations interfaces.IEstimationRepository,
	transactions interfaces.IPaymentTransactionRepository,
	profiles interfaces.IClientProfileRepository,
	alerter interfaces.IAlerter,
) *AuditLedger {
	if alerter == nil {
		alerter = noopAlerter{}
	}
	return &AuditLedger{
		events:       events,
		estimations:  estimations,
		transactions: transactions,
		profiles:     profiles,
		alerter:      alerter,
		clock:        &monotonicClock{now: utcNow},
		newID:        uuid.NewString,
	}
}

func (l *AuditLedger) Record(ctx context.Context, estimationID string, data entities.EventData, meta entities.RequestMeta) error {
	ev := entities.NewAuditEvent(l.newID(), estimationID, data, meta, l.clock.Now())
	if err := l.events.Append(ctx, ev); err != nil {
		l.alerter.Alert("audit", "audit event append failed", err, map[string]string{
			"estimation_id": estimationID,
			"event_type":    string(ev.Type),
			"event_id":      ev.ID,
		})
		return domainerr.NewPersistenceError("append audit event", err)
	}
	log.Printf("[audit] recorded estimation_id=%s event_type=%s event_id=%s", estimationID, ev.Type, ev.ID)
	return nil
}

func (l *AuditLedger) RecordOnce(ctx context.Context, estimationID, occurrence string, data entities.EventData, meta entities.RequestMeta) error {
	ev := entities.NewAuditEvent(l.newID(), estimationID, data, meta, l.clock.Now())
	key := OnceKey(estimationID, ev.Type, occurrence)
	written, err := l.events.AppendOnce(ctx, ev, key)
	if err != nil {
		l.alerter.Alert("audit", "audit event append failed", err, map[string]string{
			"estimation_id": estimationID,
			"event_type":    string(ev.Type),
			"event_id":      ev.ID,
		})
		return domainerr.NewPersistenceError("append audit event", err)
	}
	if !written {
		log.Printf("[audit] already recorded estimation_id=%s event_type=%s", estimationID, ev.Type)
		return nil
	}
	log.Printf("[audit] recorded estimation_id=%s event_type=%s event_id=%s", estimationID, ev.Type, ev.ID)
	return nil
}

// OnceKey identifies one occurrence of t for an estimation.
func OnceKey(estimationID string, t entities.EventType, occurrence string) string {
	key := estimationID + "#" + string(t)
	if occurrence != "" {
		key += "#" + occurrence
	}
	return key
}

func (l *AuditLedger) Trail(ctx context.Context, caller entities.Caller, estimationID string) ([]entities.AuditEvent, error) {
	e, err := loadForCaller(ctx, l.estimations, caller, estimationID)
	if err != nil {
		return nil, err
	}
	evs, err := l.events.ListByEstimationID(ctx, e.ID)
	if err != nil {
		return nil, domainerr.NewPersistenceError("list audit events", err)
	}
	return evs, nil
}

func (l *AuditLedger) Export(ctx context.Context, caller entities.Caller, estimationID string) (ExportRecord, error) {
	e, err := loadForCaller(ctx, l.estimations, caller, estimationID)
	if err != nil {
		return ExportRecord{}, err
	}
	evs, err := l.events.ListByEstimationID(ctx, e.ID)
	if err != nil {
		return ExportRecord{}, domainerr.NewPersistenceError("list audit events", err)
	}
	txs, err := l.transactions.ListByEstimationID(ctx, e.ID)
	if err != nil {
		return ExportRecord{}, domainerr.NewPersistenceError("list payment transactions", err)
	}
	var profile entities.ClientProfile
	if l.profiles != nil {
		profile, err = l.profiles.GetByID(ctx, e.ClientID)
		if err != nil {
			return ExportRecord{}, domainerr.NewPersistenceError("get client profile", err)
		}
	}
	log.Printf("[audit] export estimation_id=%s events=%d transactions=%d by=%s", e.ID, len(evs), len(txs), caller.ClientID)
	return ExportRecord{
		Estimation:   e,
		Profile:      profile,
		AuditTrail:   evs,
		PaymentTrail: txs,
		ExportedAt:   l.clock.now(),
	}, nil
}

// requiredEvents are the events a completed estimation must carry.
var requiredEvents = []entities.EventType{
	entities.EventCreated,
	entities.EventSubmitted,
	entities.EventLegalConsentAccepted,
	entities.EventPaymentCompleted,
	entities.EventCalculated,
	entities.EventPDFGenerated,
}

func (l *AuditLedger) Compliance(ctx context.Context, caller entities.Caller, estimationID string) (ComplianceReport, error) {
	rec, err := l.Export(ctx, caller, estimationID)
	if err != nil {
		return ComplianceReport{}, err
	}
	e := rec.Estimation

	seen := make(map[entities.EventType]bool, len(rec.AuditTrail))
	for _, ev := range rec.AuditTrail {
		seen[ev.Type] = true
	}
	var missing []entities.EventType
	if e.Status == entities.EstimationStatusCompleted {
		for _, t := range requiredEvents {
			if !seen[t] {
				missing = append(missing, t)
			}
		}
	}

	paid := e.PaymentStatus == entities.PaymentStatusCompleted
	report := ComplianceReport{
		GeneratedAt:  rec.ExportedAt,
		EstimationID: e.ID,
		ClientEmail:  rec.Profile.Email,
		Checkpoints: ComplianceCheckpoints{
			ConsentAccepted:    e.LegalConsent.Accepted,
			ConsentTimestamp:   e.LegalConsent.AcceptedAt,
			Reason:             e.Reason,
			PaymentConfirmed:   paid,
			ReportGenerated:    e.ReportLocator != "",
			AuditTrailComplete: len(rec.AuditTrail) > 0 && len(missing) == 0,
			MissingEvents:      missing,
		},
		Risk: ComplianceRisk{
			DataCompleteness:  valuation.Completeness(e.Attributes),
			ConsentRisky:      !e.LegalConsent.Accepted,
			PaymentRisky:      !paid,
			OverallCompliance: ComplianceCompliant,
		},
		RecommendedActions: []string{},
	}

	if !e.LegalConsent.Accepted {
		report.RecommendedActions = append(report.RecommendedActions, "CRITICAL: Legal consent not recorded")
		report.Risk.OverallCompliance = ComplianceNonCompliant
	}
	if e.Result != nil && !paid && e.PaymentStatus != entities.PaymentStatusRefunded {
		report.RecommendedActions = append(report.RecommendedActions, "WARNING: Result given before payment confirmed")
		report.Risk.OverallCompliance = ComplianceNonCompliant
	}
	if len(missing) > 0 {
		report.RecommendedActions = append(report.RecommendedActions, "WARNING: Audit trail is missing lifecycle events")
	}
	return report, nil
}
