package usecase

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"juragites_estimation/internal/domain/domainerr"
	"juragites_estimation/internal/domain/entities"
	"juragites_estimation/internal/domain/valuation"
	"juragites_estimation/internal/domain/workflow"
	"juragites_estimation/internal/usecase/interfaces"

	"github.com/google/uuid"
)

var (
	ErrEstimationNotFound  = errors.New("estimation not found")
	ErrInvalidEstimationID = errors.New("invalid estimation id")
	ErrForbidden           = errors.New("forbidden")
	ErrConsentNotAccepted  = errors.New("legal consent must be explicitly accepted")
	ErrMissingConsentIP    = errors.New("caller ip address is required to record consent")
	ErrResultNotAvailable  = errors.New("result not available")
	ErrReportNotAvailable  = errors.New("report not available")
)

type CreateEstimationInput struct {
	Reason     entities.Reason
	Attributes entities.PropertyAttributes
}

// ConsentInput is the explicit acceptance action. Accepted is never defaulted.
// ConsentText, when sent, must be the text the client was shown.
type ConsentInput struct {
	Accepted    bool
	ConsentText string
}

type ReportLink struct {
	URL       string
	ExpiresAt time.Time
}

// IEstimationUseCase exposes the client side of the estimation workflow.
//
//   - Create stores a draft; attributes are validated on Submit.
//   - UpdateAttributes is refused once payment is recorded.
//   - Cancel is only possible before payment; afterwards it is a refund.
type IEstimationUseCase interface {
	Create(ctx context.Context, caller entities.Caller, in CreateEstimationInput, meta entities.RequestMeta) (entities.Estimation, error)
	List(ctx context.Context, caller entities.Caller) ([]entities.Estimation, error)
	Get(ctx context.Context, caller entities.Caller, id string) (entities.Estimation, error)
	UpdateAttributes(ctx context.Context, caller entities.Caller, id string, attrs entities.PropertyAttributes) (entities.Estimation, error)
	Submit(ctx context.Context, caller entities.Caller, id string, meta entities.RequestMeta) (entities.Estimation, error)
	AcceptConsent(ctx context.Context, caller entities.Caller, id string, in ConsentInput, meta entities.RequestMeta) (entities.Estimation, error)
	Cancel(ctx context.Context, caller entities.Caller, id string, reason string, meta entities.RequestMeta) (entities.Estimation, error)
	ViewResult(ctx context.Context, caller entities.Caller, id string, meta entities.RequestMeta) (entities.Estimation, error)
	DownloadReport(ctx context.Context, caller entities.Caller, id string, meta entities.RequestMeta) (ReportLink, error)
}

type EstimationUseCase struct {
	repo    interfaces.IEstimationRepository
	ledger  IAuditLedger
	reports interfaces.IReportGenerator
	now     func() time.Time
	newID   func() string
}

var _ IEstimationUseCase = (*EstimationUseCase)(nil)

func NewEstimationUseCase(repo interfaces.IEstimationRepository, ledger IAuditLedger, reports interfaces.IReportGenerator) *EstimationUseCase {
	return &EstimationUseCase{repo: repo, ledger: ledger, reports: reports, now: utcNow, newID: uuid.NewString}
}

func (u *EstimationUseCase) Create(ctx context.Context, caller entities.Caller, in CreateEstimationInput, meta entities.RequestMeta) (entities.Estimation, error) {
	if strings.TrimSpace(caller.ClientID) == "" {
		return entities.Estimation{}, ErrForbidden
	}
	if !in.Reason.Valid() {
		return entities.Estimation{}, domainerr.NewValidationError("reason", "unknown estimation reason")
	}

	now := u.now()
	e := entities.Estimation{
		ID:            u.newID(),
		ClientID:      caller.ClientID,
		Reason:        in.Reason,
		Attributes:    in.Attributes.Clone(),
		Status:        entities.EstimationStatusDraft,
		PaymentStatus: entities.PaymentStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	created, err := u.repo.Create(ctx, e)
	if err != nil {
		log.Printf("[estimation][usecase] create failed client_id=%s err=%v", caller.ClientID, err)
		return entities.Estimation{}, domainerr.NewPersistenceError("create estimation", err)
	}
	if err := u.ledger.Record(ctx, created.ID, &entities.CreatedData{
		ClientID:      created.ClientID,
		Reason:        created.Reason,
		PropertyType:  created.Attributes.PropertyType,
		HabitableArea: created.Attributes.HabitableArea,
		PostalCode:    created.Attributes.PostalCode,
		Condition:     created.Attributes.Condition,
	}, meta); err != nil {
		return entities.Estimation{}, err
	}
	log.Printf("[estimation][usecase] created estimation_id=%s client_id=%s reason=%s", created.ID, created.ClientID, created.Reason)
	return created, nil
}

func (u *EstimationUseCase) List(ctx context.Context, caller entities.Caller) ([]entities.Estimation, error) {
	if strings.TrimSpace(caller.ClientID) == "" {
		return nil, ErrForbidden
	}
	list, err := u.repo.ListByClientID(ctx, caller.ClientID)
	if err != nil {
		return nil, domainerr.NewPersistenceError("list estimations", err)
	}
	return list, nil
}

func (u *EstimationUseCase) Get(ctx context.Context, caller entities.Caller, id string) (entities.Estimation, error) {
	return loadForCaller(ctx, u.repo, caller, id)
}

// UpdateAttributes replaces the declared attributes. A submitted estimation goes
// back to draft and must be submitted again.
func (u *EstimationUseCase) UpdateAttributes(ctx context.Context, caller entities.Caller, id string, attrs entities.PropertyAttributes) (entities.Estimation, error) {
	e, err := loadForCaller(ctx, u.repo, caller, id)
	if err != nil {
		return entities.Estimation{}, err
	}
	if workflow.AttributesFrozen(e) {
		return entities.Estimation{}, &domainerr.StateTransitionError{From: string(e.Status), Action: string(workflow.ActionUpdateAttributes)}
	}
	a := attrs.Clone()
	updated, err := mustTransition(ctx, u.repo, e, workflow.ActionUpdateAttributes, entities.EstimationChanges{Attributes: &a}, u.now())
	if err != nil {
		return entities.Estimation{}, err
	}
	log.Printf("[estimation][usecase] attributes updated estimation_id=%s", e.ID)
	return updated, nil
}

func (u *EstimationUseCase) Submit(ctx context.Context, caller entities.Caller, id string, meta entities.RequestMeta) (entities.Estimation, error) {
	e, err := loadForCaller(ctx, u.repo, caller, id)
	if err != nil {
		return entities.Estimation{}, err
	}
	if _, err := workflow.Next(e.Status, workflow.ActionSubmit); err != nil {
		return entities.Estimation{}, err
	}
	if err := valuation.ValidateAttributes(e.Attributes, u.now()); err != nil {
		log.Printf("[estimation][usecase] submit rejected estimation_id=%s err=%v", e.ID, err)
		return entities.Estimation{}, err
	}

	updated, err := mustTransition(ctx, u.repo, e, workflow.ActionSubmit, entities.EstimationChanges{}, u.now())
	if err != nil {
		return entities.Estimation{}, err
	}
	if err := u.ledger.Record(ctx, updated.ID, &entities.SubmittedData{
		DataCompleteness: valuation.Completeness(updated.Attributes),
	}, meta); err != nil {
		return entities.Estimation{}, err
	}
	log.Printf("[estimation][usecase] submitted estimation_id=%s", updated.ID)
	return updated, nil
}

// AcceptConsent records the legal consent together with the consent_given transition.
func (u *EstimationUseCase) AcceptConsent(ctx context.Context, caller entities.Caller, id string, in ConsentInput, meta entities.RequestMeta) (entities.Estimation, error) {
	if !in.Accepted {
		return entities.Estimation{}, ErrConsentNotAccepted
	}
	if strings.TrimSpace(meta.IPAddress) == "" {
		return entities.Estimation{}, ErrMissingConsentIP
	}
	e, err := loadForCaller(ctx, u.repo, caller, id)
	if err != nil {
		return entities.Estimation{}, err
	}
	text := e.Reason.ConsentText()
	if in.ConsentText != "" && strings.TrimSpace(in.ConsentText) != text {
		return entities.Estimation{}, domainerr.NewValidationError("consent_text", "does not match the current legal text")
	}

	at := u.now()
	consent := entities.LegalConsent{
		Accepted:    true,
		AcceptedAt:  &at,
		IPAddress:   meta.IPAddress,
		UserAgent:   meta.UserAgent,
		ConsentText: text,
	}
	updated, err := mustTransition(ctx, u.repo, e, workflow.ActionAcceptConsent, entities.EstimationChanges{LegalConsent: &consent}, at)
	if err != nil {
		return entities.Estimation{}, err
	}
	if err := u.ledger.Record(ctx, updated.ID, &entities.LegalConsentAcceptedData{
		Reason:      updated.Reason,
		ConsentText: text,
		ConsentTime: at,
		ClientIP:    meta.IPAddress,
	}, meta); err != nil {
		return entities.Estimation{}, err
	}
	log.Printf("[estimation][usecase] consent accepted estimation_id=%s ip=%s", updated.ID, meta.IPAddress)
	return updated, nil
}

func (u *EstimationUseCase) Cancel(ctx context.Context, caller entities.Caller, id string, reason string, meta entities.RequestMeta) (entities.Estimation, error) {
	e, err := loadForCaller(ctx, u.repo, caller, id)
	if err != nil {
		return entities.Estimation{}, err
	}
	updated, err := mustTransition(ctx, u.repo, e, workflow.ActionCancel, entities.EstimationChanges{}, u.now())
	if err != nil {
		return entities.Estimation{}, err
	}
	if err := u.ledger.Record(ctx, updated.ID, &entities.CancelledData{
		Reason:         strings.TrimSpace(reason),
		PreviousStatus: e.Status,
	}, meta); err != nil {
		return entities.Estimation{}, err
	}
	log.Printf("[estimation][usecase] cancelled estimation_id=%s previous_status=%s", updated.ID, e.Status)
	return updated, nil
}

func (u *EstimationUseCase) ViewResult(ctx context.Context, caller entities.Caller, id string, meta entities.RequestMeta) (entities.Estimation, error) {
	e, err := loadForCaller(ctx, u.repo, caller, id)
	if err != nil {
		return entities.Estimation{}, err
	}
	if e.Result == nil || (e.Status != entities.EstimationStatusCalculated && e.Status != entities.EstimationStatusCompleted) {
		return entities.Estimation{}, ErrResultNotAvailable
	}
	if err := u.ledger.Record(ctx, e.ID, &entities.ResultViewedData{ViewedAt: u.now()}, meta); err != nil {
		return entities.Estimation{}, err
	}
	return e, nil
}

func (u *EstimationUseCase) DownloadReport(ctx context.Context, caller entities.Caller, id string, meta entities.RequestMeta) (ReportLink, error) {
	e, err := loadForCaller(ctx, u.repo, caller, id)
	if err != nil {
		return ReportLink{}, err
	}
	if e.Status != entities.EstimationStatusCompleted || e.ReportLocator == "" {
		return ReportLink{}, ErrReportNotAvailable
	}
	url, expiresAt, err := u.reports.DownloadURL(ctx, e.ReportLocator)
	if err != nil {
		log.Printf("[estimation][usecase] report url failed estimation_id=%s err=%v", e.ID, err)
		return ReportLink{}, domainerr.NewPersistenceError("presign report", err)
	}
	if err := u.ledger.Record(ctx, e.ID, &entities.ReportDownloadedData{DownloadedAt: u.now()}, meta); err != nil {
		return ReportLink{}, err
	}
	return ReportLink{URL: url, ExpiresAt: expiresAt}, nil
}
