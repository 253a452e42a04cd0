package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// EstimationStatus represents the lifecycle of an estimation request.
//
// Domain notes:
//   - draft -> submitted -> consent_given -> payment_pending -> payment_confirmed -> calculated -> completed
//   - payment_failed is reachable from payment_pending and retries back to payment_pending
//   - cancelled is reachable from any state before payment_confirmed, and through a refund after it
//
// Transitions are validated by internal/domain/workflow.
type EstimationStatus string

const (
	EstimationStatusDraft            EstimationStatus = "draft"
	EstimationStatusSubmitted        EstimationStatus = "submitted"
	EstimationStatusConsentGiven     EstimationStatus = "consent_given"
	EstimationStatusPaymentPending   EstimationStatus = "payment_pending"
	EstimationStatusPaymentFailed    EstimationStatus = "payment_failed"
	EstimationStatusPaymentConfirmed EstimationStatus = "payment_confirmed"
	EstimationStatusCalculated       EstimationStatus = "calculated"
	EstimationStatusCompleted        EstimationStatus = "completed"
	EstimationStatusCancelled        EstimationStatus = "cancelled"
)

// IsPostPayment reports whether a confirmed payment has been recorded for the status.
func (s EstimationStatus) IsPostPayment() bool {
	switch s {
	case EstimationStatusPaymentConfirmed, EstimationStatusCalculated, EstimationStatusCompleted:
		return true
	}
	return false
}

// PaymentStatus is the payment side of an estimation, independent of the workflow status.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Reason is why the client asks for an estimation. It selects the legal disclaimer of the report.
type Reason string

const (
	ReasonCuriosity   Reason = "curiosity"
	ReasonSale        Reason = "sale"
	ReasonDivorce     Reason = "divorce"
	ReasonInheritance Reason = "inheritance"
	ReasonNotarial    Reason = "notarial"
	ReasonOther       Reason = "other"
)

func (r Reason) Valid() bool {
	switch r {
	case ReasonCuriosity, ReasonSale, ReasonDivorce, ReasonInheritance, ReasonNotarial, ReasonOther:
		return true
	}
	return false
}

// LegalConsent is recorded atomically with the consent_given transition.
type LegalConsent struct {
	Accepted    bool       `json:"accepted"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
	IPAddress   string     `json:"ip_address,omitempty"`
	UserAgent   string     `json:"user_agent,omitempty"`
	ConsentText string     `json:"consent_text,omitempty"`
}

// Estimation is the estimation request persisted by the service.
//
// Storage model (DynamoDB):
//   - PK: id
//   - GSI1 (client_id-index): client_id
//   - GSI2 (payment_reference-index): payment_reference
//
// Attributes are frozen once PaymentStatus is completed; Result is written once and
// never recomputed. Rows are never deleted.
type Estimation struct {
	ID                string             `json:"id"`
	ClientID          string             `json:"client_id"`
	Reason            Reason             `json:"reason"`
	Attributes        PropertyAttributes `json:"attributes"`
	Status            EstimationStatus   `json:"status"`
	PaymentStatus     PaymentStatus      `json:"payment_status"`
	PaymentReference  string             `json:"payment_reference,omitempty"`
	AmountPaid        decimal.Decimal    `json:"amount_paid"`
	Currency          string             `json:"currency,omitempty"`
	PaidAt            *time.Time         `json:"paid_at,omitempty"`
	LegalConsent      LegalConsent       `json:"legal_consent"`
	Result            *ValuationResult   `json:"result,omitempty"`
	RuleVersionID     string             `json:"rule_version_id,omitempty"`
	RuleVersionNumber int                `json:"rule_version_number,omitempty"`
	ReportLocator     string             `json:"report_locator,omitempty"`
	FailureReason     string             `json:"failure_reason,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// EstimationChanges is the set of fields a conditional update may write.
// Nil fields are left untouched.
type EstimationChanges struct {
	Status           *EstimationStatus
	PaymentStatus    *PaymentStatus
	PaymentReference *string
	AmountPaid       *decimal.Decimal
	Currency         *string
	PaidAt           *time.Time
	Attributes       *PropertyAttributes
	LegalConsent     *LegalConsent
	Result           *ValuationResult
	ReportLocator    *string
	FailureReason    *string
	UpdatedAt        time.Time
}

// Apply returns a copy of e with the changes written on it.
// Repositories use it so every driver mutates rows the same way.
func (c EstimationChanges) Apply(e Estimation) Estimation {
	if c.Status != nil {
		e.Status = *c.Status
	}
	if c.PaymentStatus != nil {
		e.PaymentStatus = *c.PaymentStatus
	}
	if c.PaymentReference != nil {
		e.PaymentReference = *c.PaymentReference
	}
	if c.AmountPaid != nil {
		e.AmountPaid = *c.AmountPaid
	}
	if c.Currency != nil {
		e.Currency = *c.Currency
	}
	if c.PaidAt != nil {
		t := *c.PaidAt
		e.PaidAt = &t
	}
	if c.Attributes != nil {
		e.Attributes = c.Attributes.Clone()
	}
	if c.LegalConsent != nil {
		e.LegalConsent = *c.LegalConsent
	}
	if c.Result != nil {
		r := *c.Result
		e.Result = &r
		e.RuleVersionID = r.RuleVersionID
		e.RuleVersionNumber = r.RuleVersionNumber
	}
	if c.ReportLocator != nil {
		e.ReportLocator = *c.ReportLocator
	}
	if c.FailureReason != nil {
		e.FailureReason = *c.FailureReason
	}
	if !c.UpdatedAt.IsZero() {
		e.UpdatedAt = c.UpdatedAt
	}
	return e
}
