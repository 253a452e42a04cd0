package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"juragites_estimation/internal/domain/domainerr"
	"juragites_estimation/internal/domain/entities"
	"juragites_estimation/internal/domain/valuation"
	"juragites_estimation/internal/domain/workflow"
	"juragites_estimation/internal/usecase/interfaces"

	"github.com/shopspring/decimal"
)

var (
	ErrPaymentReferenceMismatch = errors.New("payment does not belong to this estimation")
	ErrPaymentAmountMismatch    = errors.New("paid amount does not match the estimation price")
	ErrCalculationNeedsSupport  = errors.New("payment received but the estimation could not be calculated, please contact support")
	ErrInvalidPaymentPayload    = errors.New("invalid payment payload")
	ErrPaymentNotCompleted      = errors.New("no completed payment to refund")
	ErrPaymentGatewayMissing    = errors.New("payment gateway not configured")
)

const (
	ChannelSync    = "sync"
	ChannelWebhook = "webhook"

	RefundOriginAdmin    = "admin"
	RefundOriginProvider = "provider"
)

// PaymentSettings is the price of one estimation. It never comes from the client.
type PaymentSettings struct {
	Amount   decimal.Decimal
	Currency string
}

type InitiatePaymentInput struct {
	PayerEmail string
	Payload    json.RawMessage
}

// WebhookNotification is a verified provider notification. Only DataID is trusted;
// the payment itself is always re-read from the provider.
type WebhookNotification struct {
	Type   string
	Action string
	DataID string
}

// IPaymentUseCase drives the payment-gated part of the workflow.
//
//   - Initiate asks the provider for a payment; a synchronous approval confirms at once.
//   - Confirm and HandleWebhook re-read the provider payment and apply it.
//     Duplicates are no-ops: exactly one payment_completed event and one calculation.
//   - Finalize runs the calculation and the report for a confirmed payment and can be
//     resumed by an admin when it stopped half way.
//   - Refund is the only way out of a paid estimation.
type IPaymentUseCase interface {
	Initiate(ctx context.Context, caller entities.Caller, id string, in InitiatePaymentInput, meta entities.RequestMeta) (entities.Estimation, error)
	Confirm(ctx context.Context, caller entities.Caller, id string, meta entities.RequestMeta) (entities.Estimation, error)
	HandleWebhook(ctx context.Context, n WebhookNotification, meta entities.RequestMeta) (entities.Estimation, error)
	Refund(ctx context.Context, caller entities.Caller, id string, reason string, meta entities.RequestMeta) (entities.Estimation, error)
	Finalize(ctx context.Context, caller entities.Caller, id string, meta entities.RequestMeta) (entities.Estimation, error)
}

type PaymentUseCase struct {
	repo         interfaces.IEstimationRepository
	transactions interfaces.IPaymentTransactionRepository
	profiles     interfaces.IClientProfileRepository
	gateway      interfaces.IPaymentGateway
	reports      interfaces.IReportGenerator
	rules        IRuleVersionUseCase
	ledger       IAuditLedger
	engine       *valuation.Engine
	alerter      interfaces.IAlerter
	settings     PaymentSettings
	retry        retryPolicy
	now          func() time.Time
}

var _ IPaymentUseCase = (*PaymentUseCase)(nil)

type PaymentDeps struct {
	Estimations  interfaces.IEstimationRepository
	Transactions interfaces.IPaymentTransactionRepository
	Profiles     interfaces.IClientProfileRepository
	Gateway      interfaces.IPaymentGateway
	Reports      interfaces.IReportGenerator
	Rules        IRuleVersionUseCase
	Ledger       IAuditLedger
	Engine       *valuation.Engine
	Alerter      interfaces.IAlerter
}

func NewPaymentUseCase(deps PaymentDeps, settings PaymentSettings) *PaymentUseCase {
	if deps.Alerter == nil {
		deps.Alerter = noopAlerter{}
	}
	if deps.Engine == nil {
		deps.Engine = valuation.NewEngine()
	}
	return &PaymentUseCase{
		repo:         deps.Estimations,
		transactions: deps.Transactions,
		profiles:     deps.Profiles,
		gateway:      deps.Gateway,
		reports:      deps.Reports,
		rules:        deps.Rules,
		ledger:       deps.Ledger,
		engine:       deps.Engine,
		alerter:      deps.Alerter,
		settings:     settings,
		retry:        defaultRetryPolicy(),
		now:          utcNow,
	}
}

func (u *PaymentUseCase) Initiate(ctx context.Context, caller entities.Caller, id string, in InitiatePaymentInput, meta entities.RequestMeta) (entities.Estimation, error) {
	log.Printf("[payment][usecase] initiate start estimation_id=%q payload_len=%d", id, len(in.Payload))
	if len(in.Payload) > 0 && !json.Valid(in.Payload) {
		return entities.Estimation{}, ErrInvalidPaymentPayload
	}
	if u.gateway == nil {
		return entities.Estimation{}, ErrPaymentGatewayMissing
	}
	e, err := loadForCaller(ctx, u.repo, caller, id)
	if err != nil {
		return entities.Estimation{}, err
	}
	if _, err := workflow.Next(e.Status, workflow.ActionInitiatePayment); err != nil {
		return entities.Estimation{}, err
	}
	if !e.LegalConsent.Accepted {
		return entities.Estimation{}, &domainerr.StateTransitionError{From: string(e.Status), Action: string(workflow.ActionInitiatePayment)}
	}

	req := interfaces.PaymentRequest{
		EstimationID: e.ID,
		Amount:       u.settings.Amount,
		Currency:     u.settings.Currency,
		Description:  fmt.Sprintf("Estimation %s", e.ID),
		PayerEmail:   strings.TrimSpace(in.PayerEmail),
		Payload:      in.Payload,
	}
	var p interfaces.ProviderPayment
	err = u.retry.do(ctx, "create payment", func(ctx context.Context) error {
		var cerr error
		p, cerr = u.gateway.CreatePayment(ctx, req)
		return cerr
	})
	if err != nil {
		log.Printf("[payment][usecase] payment gateway failed estimation_id=%s err=%v", e.ID, err)
		if errors.Is(err, interfaces.ErrTransient) {
			u.alerter.Alert("payment", "payment provider unavailable", err, map[string]string{"estimation_id": e.ID})
			return entities.Estimation{}, domainerr.NewProviderUnavailableError("create payment", err)
		}
		perr := &domainerr.PaymentError{Reason: err.Error()}
		if rerr := u.ledger.Record(ctx, e.ID, &entities.PaymentFailedData{Reason: perr.Reason}, meta); rerr != nil {
			return entities.Estimation{}, rerr
		}
		return entities.Estimation{}, perr
	}
	log.Printf("[payment][usecase] payment created estimation_id=%s provider_payment_id=%s provider_status=%s", e.ID, p.ID, p.RawStatus)

	if err := u.ledger.RecordOnce(ctx, e.ID, p.ID, &entities.PaymentInitiatedData{
		PaymentReference: p.ID,
		Amount:           u.settings.Amount.StringFixed(2),
		Currency:         u.settings.Currency,
		Provider:         u.gateway.Name(),
		ProviderStatus:   p.RawStatus,
	}, meta); err != nil {
		return entities.Estimation{}, err
	}

	pending := entities.PaymentStatusPending
	ref := p.ID
	currency := u.settings.Currency
	noFailure := ""
	updated, err := mustTransition(ctx, u.repo, e, workflow.ActionInitiatePayment, entities.EstimationChanges{
		PaymentStatus:    &pending,
		PaymentReference: &ref,
		Currency:         &currency,
		FailureReason:    &noFailure,
	}, u.now())
	if err != nil {
		// The provider knows a payment the row does not reference; ops must reconcile.
		u.alerter.Alert("payment", "provider payment created but estimation not moved to payment_pending", err, map[string]string{
			"estimation_id":       e.ID,
			"provider_payment_id": p.ID,
		})
		return entities.Estimation{}, err
	}

	return u.apply(ctx, updated, p, ChannelSync, meta)
}

func (u *PaymentUseCase) Confirm(ctx context.Context, caller entities.Caller, id string, meta entities.RequestMeta) (entities.Estimation, error) {
	if u.gateway == nil {
		return entities.Estimation{}, ErrPaymentGatewayMissing
	}
	e, err := loadForCaller(ctx, u.repo, caller, id)
	if err != nil {
		return entities.Estimation{}, err
	}
	if e.PaymentStatus == entities.PaymentStatusCompleted {
		return u.resume(ctx, e, meta)
	}
	if e.Status != entities.EstimationStatusPaymentPending || e.PaymentReference == "" {
		return entities.Estimation{}, &domainerr.StateTransitionError{From: string(e.Status), Action: string(workflow.ActionConfirmPayment)}
	}
	p, err := u.fetchPayment(ctx, e.PaymentReference)
	if err != nil {
		return entities.Estimation{}, err
	}
	return u.apply(ctx, e, p, ChannelSync, meta)
}

func (u *PaymentUseCase) HandleWebhook(ctx context.Context, n WebhookNotification, meta entities.RequestMeta) (entities.Estimation, error) {
	log.Printf("[payment][webhook] received type=%s action=%s data_id=%s", n.Type, n.Action, n.DataID)
	if u.gateway == nil {
		return entities.Estimation{}, ErrPaymentGatewayMissing
	}
	if n.Type != "payment" || strings.TrimSpace(n.DataID) == "" {
		return entities.Estimation{}, ErrInvalidPaymentPayload
	}
	p, err := u.fetchPayment(ctx, n.DataID)
	if err != nil {
		return entities.Estimation{}, err
	}

	e, err := u.repo.GetByPaymentReference(ctx, p.ID)
	if err != nil {
		return entities.Estimation{}, domainerr.NewPersistenceError("get estimation by payment reference", err)
	}
	if e.ID == "" && p.ExternalReference != "" {
		e, err = u.repo.GetByID(ctx, p.ExternalReference)
		if err != nil {
			return entities.Estimation{}, domainerr.NewPersistenceError("get estimation", err)
		}
		if e.ID != "" && e.PaymentReference != p.ID {
			u.alerter.Alert("payment", "webhook payment does not match the estimation payment reference", ErrPaymentReferenceMismatch, map[string]string{
				"estimation_id":       e.ID,
				"payment_reference":   e.PaymentReference,
				"provider_payment_id": p.ID,
				"provider_status":     p.RawStatus,
			})
			return entities.Estimation{}, ErrPaymentReferenceMismatch
		}
	}
	if e.ID == "" {
		log.Printf("[payment][webhook] no estimation for provider_payment_id=%s", p.ID)
		return entities.Estimation{}, ErrEstimationNotFound
	}
	return u.apply(ctx, e, p, ChannelWebhook, meta)
}

func (u *PaymentUseCase) fetchPayment(ctx context.Context, providerPaymentID string) (interfaces.ProviderPayment, error) {
	var p interfaces.ProviderPayment
	err := u.retry.do(ctx, "get payment", func(ctx context.Context) error {
		var gerr error
		p, gerr = u.gateway.GetPayment(ctx, providerPaymentID)
		return gerr
	})
	if err != nil {
		log.Printf("[payment][usecase] get payment failed provider_payment_id=%s err=%v", providerPaymentID, err)
		if errors.Is(err, interfaces.ErrTransient) || errors.Is(err, context.DeadlineExceeded) {
			u.alerter.Alert("payment", "payment provider unavailable", err, map[string]string{"provider_payment_id": providerPaymentID})
			return interfaces.ProviderPayment{}, domainerr.NewProviderUnavailableError("get payment", err)
		}
		return interfaces.ProviderPayment{}, &domainerr.PaymentError{Reason: err.Error()}
	}
	return p, nil
}

// apply moves the estimation according to an authenticated provider payment.
func (u *PaymentUseCase) apply(ctx context.Context, e entities.Estimation, p interfaces.ProviderPayment, channel string, meta entities.RequestMeta) (entities.Estimation, error) {
	if p.ExternalReference != "" && p.ExternalReference != e.ID {
		u.alerter.Alert("payment", "provider payment external reference mismatch", ErrPaymentReferenceMismatch, map[string]string{
			"estimation_id":      e.ID,
			"external_reference": p.ExternalReference,
		})
		return entities.Estimation{}, ErrPaymentReferenceMismatch
	}
	if e.PaymentReference != "" && p.ID != e.PaymentReference {
		return entities.Estimation{}, ErrPaymentReferenceMismatch
	}

	switch p.Status {
	case interfaces.ProviderStatusApproved:
		return u.confirm(ctx, e, p, channel, meta)
	case interfaces.ProviderStatusRejected:
		return u.fail(ctx, e, p, meta)
	case interfaces.ProviderStatusRefunded:
		return u.applyRefund(ctx, e, p.ID, p.ID, e.AmountPaid, "refunded by provider", RefundOriginProvider, p.Raw, meta)
	default:
		log.Printf("[payment][usecase] payment still pending estimation_id=%s provider_status=%s", e.ID, p.RawStatus)
		return e, nil
	}
}

// confirm records the payment before moving the estimation. A failed write leaves
// the row at payment_pending, so the next confirmation or webhook replays the step
// and the keyed ledger write keeps payment_completed unique.
func (u *PaymentUseCase) confirm(ctx context.Context, e entities.Estimation, p interfaces.ProviderPayment, channel string, meta entities.RequestMeta) (entities.Estimation, error) {
	if e.PaymentStatus == entities.PaymentStatusRefunded {
		log.Printf("[payment][usecase] confirmation ignored for refunded estimation_id=%s channel=%s", e.ID, channel)
		return e, nil
	}
	if e.PaymentStatus == entities.PaymentStatusCompleted {
		log.Printf("[payment][usecase] duplicate confirmation estimation_id=%s status=%s channel=%s", e.ID, e.Status, channel)
		return u.resume(ctx, e, meta)
	}
	if p.Amount.IsPositive() && !p.Amount.Equal(u.settings.Amount) {
		u.alerter.Alert("payment", "provider amount differs from the estimation price", ErrPaymentAmountMismatch, map[string]string{
			"estimation_id": e.ID,
			"expected":      u.settings.Amount.StringFixed(2),
			"received":      p.Amount.StringFixed(2),
		})
		return entities.Estimation{}, ErrPaymentAmountMismatch
	}
	if _, err := workflow.Next(e.Status, workflow.ActionConfirmPayment); err != nil {
		u.alerter.Alert("payment", "approved payment for an estimation that cannot be confirmed", err, map[string]string{
			"estimation_id":       e.ID,
			"status":              string(e.Status),
			"provider_payment_id": p.ID,
		})
		return entities.Estimation{}, err
	}

	now := u.now()
	completed := entities.PaymentStatusCompleted
	amount := u.settings.Amount
	currency := u.settings.Currency

	tx := entities.PaymentTransaction{
		ID:                    entities.PaymentTransactionID(p.ID, entities.TransactionSucceeded),
		EstimationID:          e.ID,
		Provider:              u.gateway.Name(),
		ProviderTransactionID: p.ID,
		Amount:                amount,
		Currency:              currency,
		Status:                entities.TransactionSucceeded,
		ProviderPayload:       p.Raw,
		CreatedAt:             now,
	}
	if err := u.recordTransaction(ctx, tx); err != nil {
		return entities.Estimation{}, err
	}
	if err := u.ledger.RecordOnce(ctx, e.ID, "", &entities.PaymentCompletedData{
		TransactionID: p.ID,
		Amount:        amount.StringFixed(2),
		Currency:      currency,
		Provider:      u.gateway.Name(),
		Channel:       channel,
	}, meta); err != nil {
		return entities.Estimation{}, err
	}

	updated, applied, err := transition(ctx, u.repo, e, workflow.ActionConfirmPayment, entities.EstimationChanges{
		PaymentStatus: &completed,
		AmountPaid:    &amount,
		Currency:      &currency,
		PaidAt:        &now,
	}, now)
	if err != nil {
		return entities.Estimation{}, err
	}
	if !applied {
		log.Printf("[payment][usecase] concurrent confirmation lost estimation_id=%s status=%s channel=%s", e.ID, updated.Status, channel)
		return u.resume(ctx, updated, meta)
	}
	log.Printf("[payment][usecase] payment confirmed estimation_id=%s provider_payment_id=%s channel=%s", updated.ID, p.ID, channel)

	return u.finalize(ctx, updated, meta)
}

// resume continues a paid estimation that stopped before completed.
func (u *PaymentUseCase) resume(ctx context.Context, e entities.Estimation, meta entities.RequestMeta) (entities.Estimation, error) {
	if e.PaymentStatus != entities.PaymentStatusCompleted {
		return e, nil
	}
	switch e.Status {
	case entities.EstimationStatusPaymentConfirmed, entities.EstimationStatusCalculated:
		log.Printf("[payment][usecase] resuming finalization estimation_id=%s status=%s", e.ID, e.Status)
		return u.finalize(ctx, e, meta)
	default:
		return e, nil
	}
}

func (u *PaymentUseCase) fail(ctx context.Context, e entities.Estimation, p interfaces.ProviderPayment, meta entities.RequestMeta) (entities.Estimation, error) {
	perr := &domainerr.PaymentError{Reason: "payment rejected by provider", ProviderStatus: p.StatusDetail}
	if e.Status != entities.EstimationStatusPaymentPending {
		log.Printf("[payment][usecase] rejection ignored estimation_id=%s status=%s", e.ID, e.Status)
		return e, nil
	}
	tx := entities.PaymentTransaction{
		ID:                    entities.PaymentTransactionID(p.ID, entities.TransactionFailed),
		EstimationID:          e.ID,
		Provider:              u.gateway.Name(),
		ProviderTransactionID: p.ID,
		Amount:                u.settings.Amount,
		Currency:              u.settings.Currency,
		Status:                entities.TransactionFailed,
		ProviderPayload:       p.Raw,
		CreatedAt:             u.now(),
	}
	if err := u.recordTransaction(ctx, tx); err != nil {
		return entities.Estimation{}, err
	}
	if err := u.ledger.RecordOnce(ctx, e.ID, p.ID, &entities.PaymentFailedData{
		PaymentReference: p.ID,
		ProviderStatus:   p.StatusDetail,
		Reason:           perr.Reason,
	}, meta); err != nil {
		return entities.Estimation{}, err
	}

	failed := entities.PaymentStatusFailed
	reason := perr.Error()
	updated, applied, err := transition(ctx, u.repo, e, workflow.ActionFailPayment, entities.EstimationChanges{
		PaymentStatus: &failed,
		FailureReason: &reason,
	}, u.now())
	if err != nil {
		return entities.Estimation{}, err
	}
	if !applied {
		return updated, nil
	}
	log.Printf("[payment][usecase] payment failed estimation_id=%s provider_payment_id=%s detail=%s", updated.ID, p.ID, p.StatusDetail)
	return updated, perr
}

func (u *PaymentUseCase) recordTransaction(ctx context.Context, tx entities.PaymentTransaction) error {
	_, created, err := u.transactions.Create(ctx, tx)
	if err != nil {
		u.alerter.Alert("payment", "payment transaction write failed", err, map[string]string{
			"estimation_id":  tx.EstimationID,
			"transaction_id": tx.ID,
		})
		return domainerr.NewPersistenceError("create payment transaction", err)
	}
	if !created {
		log.Printf("[payment][usecase] transaction already recorded id=%s", tx.ID)
	}
	return nil
}

func (u *PaymentUseCase) Refund(ctx context.Context, caller entities.Caller, id string, reason string, meta entities.RequestMeta) (entities.Estimation, error) {
	if !caller.IsAdmin() {
		return entities.Estimation{}, ErrForbidden
	}
	if u.gateway == nil {
		return entities.Estimation{}, ErrPaymentGatewayMissing
	}
	e, err := loadForCaller(ctx, u.repo, caller, id)
	if err != nil {
		return entities.Estimation{}, err
	}
	if _, err := workflow.Next(e.Status, workflow.ActionRefund); err != nil {
		return entities.Estimation{}, err
	}
	if e.PaymentStatus != entities.PaymentStatusCompleted || e.PaymentReference == "" {
		return entities.Estimation{}, ErrPaymentNotCompleted
	}

	if prior, ok, err := u.acceptedRefund(ctx, e.ID); err != nil {
		return entities.Estimation{}, err
	} else if ok {
		log.Printf("[payment][usecase] replaying accepted refund estimation_id=%s transaction_id=%s", e.ID, prior.ID)
		refundID := strings.TrimSuffix(prior.ID, ":"+string(entities.TransactionRefunded))
		return u.applyRefund(ctx, e, e.PaymentReference, refundID, prior.Amount, strings.TrimSpace(reason), RefundOriginAdmin, prior.ProviderPayload, meta)
	}

	var r interfaces.ProviderRefund
	err = u.retry.do(ctx, "refund payment", func(ctx context.Context) error {
		var rerr error
		r, rerr = u.gateway.RefundPayment(ctx, e.PaymentReference, e.AmountPaid)
		return rerr
	})
	if err != nil {
		log.Printf("[payment][usecase] refund failed estimation_id=%s err=%v", e.ID, err)
		if errors.Is(err, interfaces.ErrTransient) {
			u.alerter.Alert("payment", "payment provider unavailable", err, map[string]string{"estimation_id": e.ID})
			return entities.Estimation{}, domainerr.NewProviderUnavailableError("refund payment", err)
		}
		return entities.Estimation{}, &domainerr.PaymentError{Reason: "refund failed: " + err.Error()}
	}
	refundID := r.ID
	if refundID == "" {
		refundID = e.PaymentReference
	}
	amount := r.Amount
	if !amount.IsPositive() {
		amount = e.AmountPaid
	}
	return u.applyRefund(ctx, e, e.PaymentReference, refundID, amount, strings.TrimSpace(reason), RefundOriginAdmin, r.Raw, meta)
}

// acceptedRefund finds a refund row written by an earlier attempt whose status
// change did not land.
func (u *PaymentUseCase) acceptedRefund(ctx context.Context, estimationID string) (entities.PaymentTransaction, bool, error) {
	txs, err := u.transactions.ListByEstimationID(ctx, estimationID)
	if err != nil {
		return entities.PaymentTransaction{}, false, domainerr.NewPersistenceError("list payment transactions", err)
	}
	for _, tx := range txs {
		if tx.Status == entities.TransactionRefunded {
			return tx, true, nil
		}
	}
	return entities.PaymentTransaction{}, false, nil
}

// applyRefund moves a paid estimation to cancelled with payment refunded. The
// refund row and event are written first so a failed status change can be
// replayed. It is a no-op when the refund is already applied.
func (u *PaymentUseCase) applyRefund(
	ctx context.Context,
	e entities.Estimation,
	providerPaymentID, refundID string,
	amount decimal.Decimal,
	reason, origin string,
	raw json.RawMessage,
	meta entities.RequestMeta,
) (entities.Estimation, error) {
	if e.PaymentStatus == entities.PaymentStatusRefunded {
		return e, nil
	}
	if _, err := workflow.Next(e.Status, workflow.ActionRefund); err != nil {
		return entities.Estimation{}, err
	}
	now := u.now()
	tx := entities.PaymentTransaction{
		ID:                    entities.PaymentTransactionID(refundID, entities.TransactionRefunded),
		EstimationID:          e.ID,
		Provider:              u.gateway.Name(),
		ProviderTransactionID: providerPaymentID,
		Amount:                amount,
		Currency:              e.Currency,
		Status:                entities.TransactionRefunded,
		ProviderPayload:       raw,
		CreatedAt:             now,
	}
	if err := u.recordTransaction(ctx, tx); err != nil {
		return entities.Estimation{}, err
	}
	if err := u.ledger.RecordOnce(ctx, e.ID, "", &entities.RefundRequestedData{
		RefundID: refundID,
		Amount:   amount.StringFixed(2),
		Currency: e.Currency,
		Reason:   reason,
		Origin:   origin,
	}, meta); err != nil {
		return entities.Estimation{}, err
	}

	refunded := entities.PaymentStatusRefunded
	updated, applied, err := transition(ctx, u.repo, e, workflow.ActionRefund, entities.EstimationChanges{PaymentStatus: &refunded}, now)
	if err != nil {
		return entities.Estimation{}, err
	}
	if applied {
		log.Printf("[payment][usecase] refunded estimation_id=%s refund_id=%s origin=%s", updated.ID, refundID, origin)
	}
	return updated, nil
}

func (u *PaymentUseCase) Finalize(ctx context.Context, caller entities.Caller, id string, meta entities.RequestMeta) (entities.Estimation, error) {
	if !caller.IsAdmin() {
		return entities.Estimation{}, ErrForbidden
	}
	e, err := loadForCaller(ctx, u.repo, caller, id)
	if err != nil {
		return entities.Estimation{}, err
	}
	return u.finalize(ctx, e, meta)
}

// finalize advances a paid estimation through calculated and completed. Each step
// is a conditional write and each event a keyed ledger write, so concurrent or
// replayed finalizations produce one result and one event per step.
func (u *PaymentUseCase) finalize(ctx context.Context, e entities.Estimation, meta entities.RequestMeta) (entities.Estimation, error) {
	var err error
	if e.Status == entities.EstimationStatusPaymentConfirmed {
		e, err = u.calculate(ctx, e)
		if err != nil {
			return entities.Estimation{}, err
		}
	}
	if e.Status == entities.EstimationStatusCalculated {
		// The result is stored with the status, its event follows and is
		// replayed here until it lands.
		if err := u.recordCalculated(ctx, e, meta); err != nil {
			return entities.Estimation{}, err
		}
		e, err = u.complete(ctx, e, meta)
		if err != nil {
			return entities.Estimation{}, err
		}
	}
	if e.Status != entities.EstimationStatusCompleted {
		return entities.Estimation{}, &domainerr.StateTransitionError{From: string(e.Status), Action: string(workflow.ActionComplete)}
	}
	return e, nil
}

func (u *PaymentUseCase) calculate(ctx context.Context, e entities.Estimation) (entities.Estimation, error) {
	if err := workflow.CanCalculate(e); err != nil {
		return entities.Estimation{}, err
	}
	version, err := u.rules.GetActive(ctx)
	if err != nil {
		u.alerter.Alert("valuation", "cannot resolve rule version for a paid estimation", err, map[string]string{"estimation_id": e.ID})
		return entities.Estimation{}, err
	}

	result, err := u.engine.Calculate(e.Attributes, version)
	if err != nil {
		if domainerr.IsSystemFault(err) {
			u.alerter.Alert("valuation", "calculation aborted", err, map[string]string{
				"estimation_id":   e.ID,
				"rule_version_id": version.ID,
			})
			return entities.Estimation{}, err
		}
		reason := err.Error()
		if _, _, uerr := u.repo.UpdateConditional(ctx, e.ID,
			[]entities.EstimationStatus{entities.EstimationStatusPaymentConfirmed},
			entities.EstimationChanges{FailureReason: &reason, UpdatedAt: u.now()}); uerr != nil {
			return entities.Estimation{}, domainerr.NewPersistenceError("record calculation failure", uerr)
		}
		u.alerter.Alert("valuation", "paid estimation failed validation, support needed", err, map[string]string{"estimation_id": e.ID})
		return entities.Estimation{}, errors.Join(ErrCalculationNeedsSupport, err)
	}

	noFailure := ""
	updated, applied, err := transition(ctx, u.repo, e, workflow.ActionCalculate, entities.EstimationChanges{
		Result:        &result,
		FailureReason: &noFailure,
	}, u.now())
	if err != nil {
		return entities.Estimation{}, err
	}
	if !applied {
		log.Printf("[valuation][usecase] calculation already stored estimation_id=%s status=%s", e.ID, updated.Status)
		return updated, nil
	}
	log.Printf("[valuation][usecase] calculated estimation_id=%s rule_version=%d median=%d margin=%d", updated.ID, result.RuleVersionNumber, result.Median, result.ConfidenceMargin)
	return updated, nil
}

// recordCalculated writes the calculated event from the stored result.
func (u *PaymentUseCase) recordCalculated(ctx context.Context, e entities.Estimation, meta entities.RequestMeta) error {
	if e.Result == nil {
		return &domainerr.StateTransitionError{From: string(e.Status), Action: string(workflow.ActionComplete)}
	}
	result := e.Result
	return u.ledger.RecordOnce(ctx, e.ID, "", &entities.CalculatedData{
		RuleVersionID:     result.RuleVersionID,
		RuleVersionNumber: result.RuleVersionNumber,
		Inputs: entities.CalculationInputs{
			HabitableArea:  e.Attributes.HabitableArea,
			PropertyType:   e.Attributes.PropertyType,
			Condition:      e.Attributes.Condition,
			AmenitiesCount: len(e.Attributes.Amenities),
		},
		Results: entities.CalculationOutputs{
			Low:              result.Low,
			Median:           result.Median,
			High:             result.High,
			ConfidenceLevel:  result.ConfidenceLevel,
			ConfidenceMargin: result.ConfidenceMargin,
			Completeness:     result.Completeness,
		},
	}, meta)
}

// complete stores the report and records it before moving to completed. The
// report locator is deterministic, so a replay overwrites the same object.
func (u *PaymentUseCase) complete(ctx context.Context, e entities.Estimation, meta entities.RequestMeta) (entities.Estimation, error) {
	var profile entities.ClientProfile
	if u.profiles != nil {
		p, err := u.profiles.GetByID(ctx, e.ClientID)
		if err != nil {
			log.Printf("[report][usecase] profile lookup failed estimation_id=%s err=%v", e.ID, err)
		} else {
			profile = p
		}
	}

	var report interfaces.GeneratedReport
	err := u.retry.do(ctx, "generate report", func(ctx context.Context) error {
		var gerr error
		report, gerr = u.reports.Generate(ctx, e, profile)
		return gerr
	})
	if err != nil {
		u.alerter.Alert("report", "report generation failed, estimation left at calculated", err, map[string]string{"estimation_id": e.ID})
		return entities.Estimation{}, domainerr.NewPersistenceError("store report", err)
	}
	if err := u.ledger.RecordOnce(ctx, e.ID, "", &entities.ReportGeneratedData{
		StorageLocator: report.Locator,
		FileName:       report.FileName,
		SizeBytes:      report.SizeBytes,
	}, meta); err != nil {
		return entities.Estimation{}, err
	}

	locator := report.Locator
	updated, applied, err := transition(ctx, u.repo, e, workflow.ActionComplete, entities.EstimationChanges{ReportLocator: &locator}, u.now())
	if err != nil {
		return entities.Estimation{}, err
	}
	if applied {
		log.Printf("[report][usecase] completed estimation_id=%s locator=%s", updated.ID, report.Locator)
	}
	return updated, nil
}
