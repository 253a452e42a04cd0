package response

import (
	"time"

	"juragites_estimation/internal/domain/entities"
	"juragites_estimation/internal/usecase"
)

type ConsentResponse struct {
	Accepted   bool       `json:"accepted"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
}

// EstimationResponse never carries the valuation. The result is only served by
// the result endpoint, which records the view.
type EstimationResponse struct {
	ID                string                      `json:"id"`
	ClientID          string                      `json:"client_id"`
	Reason            string                      `json:"reason"`
	ReasonLabel       string                      `json:"reason_label"`
	Status            string                      `json:"status"`
	PaymentStatus     string                      `json:"payment_status"`
	PaymentReference  string                      `json:"payment_reference,omitempty"`
	AmountPaid        string                      `json:"amount_paid,omitempty"`
	Currency          string                      `json:"currency,omitempty"`
	PaidAt            *time.Time                  `json:"paid_at,omitempty"`
	Attributes        entities.PropertyAttributes `json:"attributes"`
	LegalConsent      ConsentResponse             `json:"legal_consent"`
	ConsentText       string                      `json:"consent_text"`
	ResultAvailable   bool                        `json:"result_available"`
	ReportAvailable   bool                        `json:"report_available"`
	RuleVersionNumber int                         `json:"rule_version_number,omitempty"`
	FailureReason     string                      `json:"failure_reason,omitempty"`
	CreatedAt         time.Time                   `json:"created_at"`
	UpdatedAt         time.Time                   `json:"updated_at"`
}

func FromEstimation(e entities.Estimation) EstimationResponse {
	res := EstimationResponse{
		ID:                e.ID,
		ClientID:          e.ClientID,
		Reason:            string(e.Reason),
		ReasonLabel:       e.Reason.Label(),
		Status:            string(e.Status),
		PaymentStatus:     string(e.PaymentStatus),
		PaymentReference:  e.PaymentReference,
		Currency:          e.Currency,
		PaidAt:            e.PaidAt,
		Attributes:        e.Attributes,
		LegalConsent:      ConsentResponse{Accepted: e.LegalConsent.Accepted, AcceptedAt: e.LegalConsent.AcceptedAt},
		ConsentText:       e.Reason.ConsentText(),
		ResultAvailable:   e.Result != nil,
		ReportAvailable:   e.ReportLocator != "",
		RuleVersionNumber: e.RuleVersionNumber,
		FailureReason:     e.FailureReason,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
	if !e.AmountPaid.IsZero() {
		res.AmountPaid = e.AmountPaid.StringFixed(2)
	}
	return res
}

func FromEstimations(list []entities.Estimation) []EstimationResponse {
	out := make([]EstimationResponse, 0, len(list))
	for _, e := range list {
		out = append(out, FromEstimation(e))
	}
	return out
}

// ResultResponse is the valuation as shown to the client: a range with its
// confidence, never a single figure on its own.
type ResultResponse struct {
	EstimationID      string                      `json:"estimation_id"`
	Low               int64                       `json:"estimated_value_low"`
	Median            int64                       `json:"estimated_value_medium"`
	High              int64                       `json:"estimated_value_high"`
	ConfidenceLevel   string                      `json:"confidence_level"`
	ConfidenceMargin  int                         `json:"confidence_margin"`
	Completeness      int                         `json:"data_completeness"`
	RuleVersionID     string                      `json:"rules_version_id"`
	RuleVersionNumber int                         `json:"rules_version_number"`
	Breakdown         entities.ValuationBreakdown `json:"breakdown"`
	Trace             []entities.TraceEntry       `json:"trace"`
	Disclaimer        string                      `json:"disclaimer"`
}

func FromResult(e entities.Estimation) ResultResponse {
	if e.Result == nil {
		return ResultResponse{EstimationID: e.ID, Disclaimer: e.Reason.Disclaimer()}
	}
	r := e.Result
	return ResultResponse{
		EstimationID:      e.ID,
		Low:               r.Low,
		Median:            r.Median,
		High:              r.High,
		ConfidenceLevel:   string(r.ConfidenceLevel),
		ConfidenceMargin:  r.ConfidenceMargin,
		Completeness:      r.Completeness,
		RuleVersionID:     r.RuleVersionID,
		RuleVersionNumber: r.RuleVersionNumber,
		Breakdown:         r.Breakdown,
		Trace:             r.Trace,
		Disclaimer:        e.Reason.Disclaimer(),
	}
}

type ReportLinkResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

func FromReportLink(l usecase.ReportLink) ReportLinkResponse {
	return ReportLinkResponse{URL: l.URL, ExpiresAt: l.ExpiresAt}
}
