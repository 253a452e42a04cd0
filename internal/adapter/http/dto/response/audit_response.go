package response

import (
	"time"

	"juragites_estimation/internal/domain/entities"
	"juragites_estimation/internal/usecase"
)

type AuditTrailResponse struct {
	EstimationID string                `json:"estimation_id"`
	Events       []entities.AuditEvent `json:"events"`
}

func FromAuditTrail(estimationID string, events []entities.AuditEvent) AuditTrailResponse {
	if events == nil {
		events = []entities.AuditEvent{}
	}
	return AuditTrailResponse{EstimationID: estimationID, Events: events}
}

// ExportResponse is the data-portability export: stored rows, unmodified.
type ExportResponse struct {
	ExportedAt   time.Time                     `json:"exported_at"`
	Estimation   entities.Estimation           `json:"estimation"`
	Profile      *entities.ClientProfile       `json:"client_profile,omitempty"`
	AuditTrail   []entities.AuditEvent         `json:"audit_trail"`
	PaymentTrail []entities.PaymentTransaction `json:"payment_transactions"`
}

func FromExport(r usecase.ExportRecord) ExportResponse {
	res := ExportResponse{
		ExportedAt:   r.ExportedAt,
		Estimation:   r.Estimation,
		AuditTrail:   r.AuditTrail,
		PaymentTrail: r.PaymentTrail,
	}
	if r.Profile.ID != "" {
		p := r.Profile
		res.Profile = &p
	}
	if res.AuditTrail == nil {
		res.AuditTrail = []entities.AuditEvent{}
	}
	if res.PaymentTrail == nil {
		res.PaymentTrail = []entities.PaymentTransaction{}
	}
	return res
}

type ComplianceCheckpointsResponse struct {
	ConsentAccepted    bool       `json:"consent_accepted"`
	ConsentTimestamp   *time.Time `json:"consent_timestamp,omitempty"`
	Reason             string     `json:"reason"`
	PaymentConfirmed   bool       `json:"payment_confirmed"`
	ReportGenerated    bool       `json:"pdf_generated"`
	AuditTrailComplete bool       `json:"audit_trail_complete"`
	MissingEvents      []string   `json:"missing_events,omitempty"`
}

type ComplianceRiskResponse struct {
	DataCompleteness  int    `json:"data_completeness"`
	ConsentRisky      bool   `json:"consent_risky"`
	PaymentRisky      bool   `json:"payment_risky"`
	OverallCompliance string `json:"overall_compliance"`
}

type ComplianceResponse struct {
	GeneratedAt        time.Time                     `json:"generated_at"`
	EstimationID       string                        `json:"estimation_id"`
	ClientEmail        string                        `json:"client_email,omitempty"`
	Checkpoints        ComplianceCheckpointsResponse `json:"compliance_checkpoints"`
	Risk               ComplianceRiskResponse        `json:"risk_assessment"`
	RecommendedActions []string                      `json:"recommended_actions"`
}

func FromCompliance(r usecase.ComplianceReport) ComplianceResponse {
	missing := make([]string, 0, len(r.Checkpoints.MissingEvents))
	for _, t := range r.Checkpoints.MissingEvents {
		missing = append(missing, string(t))
	}
	actions := r.RecommendedActions
	if actions == nil {
		actions = []string{}
	}
	return ComplianceResponse{
		GeneratedAt:  r.GeneratedAt,
		EstimationID: r.EstimationID,
		ClientEmail:  r.ClientEmail,
		Checkpoints: ComplianceCheckpointsResponse{
			ConsentAccepted:    r.Checkpoints.ConsentAccepted,
			ConsentTimestamp:   r.Checkpoints.ConsentTimestamp,
			Reason:             string(r.Checkpoints.Reason),
			PaymentConfirmed:   r.Checkpoints.PaymentConfirmed,
			ReportGenerated:    r.Checkpoints.ReportGenerated,
			AuditTrailComplete: r.Checkpoints.AuditTrailComplete,
			MissingEvents:      missing,
		},
		Risk: ComplianceRiskResponse{
			DataCompleteness:  r.Risk.DataCompleteness,
			ConsentRisky:      r.Risk.ConsentRisky,
			PaymentRisky:      r.Risk.PaymentRisky,
			OverallCompliance: r.Risk.OverallCompliance,
		},
		RecommendedActions: actions,
	}
}
