// Package workflow is the payment-gated state machine of an estimation.
//
//	draft -> submitted -> consent_given -> payment_pending -> payment_confirmed -> calculated -> completed
//	payment_pending -> payment_failed -> payment_pending
//	{draft, submitted, consent_given, payment_pending, payment_failed} -> cancelled   (cancel)
//	{payment_confirmed, calculated, completed} -> cancelled                          (refund)
//
// The package only answers whether an edge exists. Usecases persist a transition
// with a conditional write whose expected prior states come from AllowedFrom, so a
// concurrent writer that moved the row first turns the second write into a no-op.
package workflow

import (
	"juragites_estimation/internal/domain/domainerr"
	"juragites_estimation/internal/domain/entities"
)

type Action string

const (
	ActionUpdateAttributes Action = "update_attributes"
	ActionSubmit           Action = "submit"
	ActionAcceptConsent    Action = "accept_consent"
	ActionInitiatePayment  Action = "initiate_payment"
	ActionConfirmPayment   Action = "confirm_payment"
	ActionFailPayment      Action = "fail_payment"
	ActionCalculate        Action = "calculate"
	ActionComplete         Action = "complete"
	ActionCancel           Action = "cancel"
	ActionRefund           Action = "refund"
)

type edge struct {
	from []entities.EstimationStatus
	to   entities.EstimationStatus
}

var edges = map[Action]edge{
	ActionUpdateAttributes: {
		from: []entities.EstimationStatus{entities.EstimationStatusDraft, entities.EstimationStatusSubmitted},
		to:   entities.EstimationStatusDraft,
	},
	ActionSubmit: {
		from: []entities.EstimationStatus{entities.EstimationStatusDraft},
		to:   entities.EstimationStatusSubmitted,
	},
	ActionAcceptConsent: {
		from: []entities.EstimationStatus{entities.EstimationStatusSubmitted},
		to:   entities.EstimationStatusConsentGiven,
	},
	ActionInitiatePayment: {
		from: []entities.EstimationStatus{entities.EstimationStatusConsentGiven, entities.EstimationStatusPaymentFailed},
		to:   entities.EstimationStatusPaymentPending,
	},
	ActionConfirmPayment: {
		from: []entities.EstimationStatus{entities.EstimationStatusPaymentPending},
		to:   entities.EstimationStatusPaymentConfirmed,
	},
	ActionFailPayment: {
		from: []entities.EstimationStatus{entities.EstimationStatusPaymentPending},
		to:   entities.EstimationStatusPaymentFailed,
	},
	ActionCalculate: {
		from: []entities.EstimationStatus{entities.EstimationStatusPaymentConfirmed},
		to:   entities.EstimationStatusCalculated,
	},
	ActionComplete: {
		from: []entities.EstimationStatus{entities.EstimationStatusCalculated},
		to:   entities.EstimationStatusCompleted,
	},
	ActionCancel: {
		from: []entities.EstimationStatus{
			entities.EstimationStatusDraft,
			entities.EstimationStatusSubmitted,
			entities.EstimationStatusConsentGiven,
			entities.EstimationStatusPaymentPending,
			entities.EstimationStatusPaymentFailed,
		},
		to: entities.EstimationStatusCancelled,
	},
	ActionRefund: {
		from: []entities.EstimationStatus{
			entities.EstimationStatusPaymentConfirmed,
			entities.EstimationStatusCalculated,
			entities.EstimationStatusCompleted,
		},
		to: entities.EstimationStatusCancelled,
	},
}

// Next returns the status reached by applying action from the given status.
func Next(from entities.EstimationStatus, action Action) (entities.EstimationStatus, error) {
	e, ok := edges[action]
	if !ok {
		return "", &domainerr.StateTransitionError{From: string(from), Action: string(action)}
	}
	for _, s := range e.from {
		if s == from {
			return e.to, nil
		}
	}
	return "", &domainerr.StateTransitionError{From: string(from), Action: string(action)}
}

// AllowedFrom lists the statuses action may start from. The slice is a copy.
func AllowedFrom(action Action) []entities.EstimationStatus {
	e := edges[action]
	return append([]entities.EstimationStatus(nil), e.from...)
}

// CanCalculate applies the calculation guard on the whole row, not only on the
// status: consent must be accepted and the payment completed.
func CanCalculate(e entities.Estimation) error {
	if _, err := Next(e.Status, ActionCalculate); err != nil {
		return err
	}
	if !e.LegalConsent.Accepted || e.PaymentStatus != entities.PaymentStatusCompleted {
		return &domainerr.StateTransitionError{From: string(e.Status), Action: string(ActionCalculate)}
	}
	if e.Result != nil {
		return &domainerr.StateTransitionError{From: string(e.Status), Action: string(ActionCalculate)}
	}
	return nil
}

// AttributesFrozen reports whether declared attributes can no longer change.
func AttributesFrozen(e entities.Estimation) bool {
	if e.PaymentStatus == entities.PaymentStatusCompleted || e.PaymentStatus == entities.PaymentStatusRefunded {
		return true
	}
	_, err := Next(e.Status, ActionUpdateAttributes)
	return err != nil
}
