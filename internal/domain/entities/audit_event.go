package entities

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType is the closed set of estimation lifecycle events.
type EventType string

const (
	EventCreated              EventType = "created"
	EventSubmitted            EventType = "submitted"
	EventLegalConsentAccepted EventType = "legal_consent_accepted"
	EventPaymentInitiated     EventType = "payment_initiated"
	EventPaymentCompleted     EventType = "payment_completed"
	EventPaymentFailed        EventType = "payment_failed"
	EventCalculated           EventType = "calculated"
	EventPDFGenerated         EventType = "pdf_generated"
	EventResultViewed         EventType = "result_viewed"
	EventPDFDownloaded        EventType = "pdf_downloaded"
	EventCancelled            EventType = "cancelled"
	EventRefundRequested      EventType = "refund_requested"
)

// EventData is implemented by exactly one payload type per EventType.
type EventData interface {
	EventType() EventType
}

// RequestMeta carries the caller network identity recorded on audit events.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// AuditEvent is one append-only row of the audit ledger.
//
// Storage model (DynamoDB):
//   - PK: estimation_id
//   - SK: seq ("<created_at RFC3339Nano>#<id>"), which is the canonical order
type AuditEvent struct {
	ID           string    `json:"id"`
	EstimationID string    `json:"estimation_id"`
	Type         EventType `json:"event_type"`
	Data         EventData `json:"-"`
	IPAddress    string    `json:"ip_address,omitempty"`
	UserAgent    string    `json:"user_agent,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewAuditEvent derives the event type from the payload so the two can never disagree.
func NewAuditEvent(id, estimationID string, data EventData, meta RequestMeta, at time.Time) AuditEvent {
	return AuditEvent{
		ID:           id,
		EstimationID: estimationID,
		Type:         data.EventType(),
		Data:         data,
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
		CreatedAt:    at.UTC(),
	}
}

// SortKey orders events of one estimation by creation time, ties broken by id.
func (e AuditEvent) SortKey() string {
	return e.CreatedAt.UTC().Format("2006-01-02T15:04:05.000000000Z07:00") + "#" + e.ID
}

type auditEventJSON struct {
	ID           string          `json:"id"`
	EstimationID string          `json:"estimation_id"`
	Type         EventType       `json:"event_type"`
	Data         json.RawMessage `json:"event_data"`
	IPAddress    string          `json:"ip_address,omitempty"`
	UserAgent    string          `json:"user_agent,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (e AuditEvent) MarshalJSON() ([]byte, error) {
	raw := json.RawMessage("{}")
	if e.Data != nil {
		b, err := json.Marshal(e.Data)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return json.Marshal(auditEventJSON{
		ID:           e.ID,
		EstimationID: e.EstimationID,
		Type:         e.Type,
		Data:         raw,
		IPAddress:    e.IPAddress,
		UserAgent:    e.UserAgent,
		CreatedAt:    e.CreatedAt,
	})
}

func (e *AuditEvent) UnmarshalJSON(b []byte) error {
	var aux auditEventJSON
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	data, err := DecodeEventData(aux.Type, aux.Data)
	if err != nil {
		return err
	}
	*e = AuditEvent{
		ID:           aux.ID,
		EstimationID: aux.EstimationID,
		Type:         aux.Type,
		Data:         data,
		IPAddress:    aux.IPAddress,
		UserAgent:    aux.UserAgent,
		CreatedAt:    aux.CreatedAt,
	}
	return nil
}

// DecodeEventData rebuilds the typed payload stored for an event type.
func DecodeEventData(t EventType, raw json.RawMessage) (EventData, error) {
	var data EventData
	switch t {
	case EventCreated:
		data = &CreatedData{}
	case EventSubmitted:
		data = &SubmittedData{}
	case EventLegalConsentAccepted:
		data = &LegalConsentAcceptedData{}
	case EventPaymentInitiated:
		data = &PaymentInitiatedData{}
	case EventPaymentCompleted:
		data = &PaymentCompletedData{}
	case EventPaymentFailed:
		data = &PaymentFailedData{}
	case EventCalculated:
		data = &CalculatedData{}
	case EventPDFGenerated:
		data = &ReportGeneratedData{}
	case EventResultViewed:
		data = &ResultViewedData{}
	case EventPDFDownloaded:
		data = &ReportDownloadedData{}
	case EventCancelled:
		data = &CancelledData{}
	case EventRefundRequested:
		data = &RefundRequestedData{}
	default:
		return nil, fmt.Errorf("unknown audit event type %q", t)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, data); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", t, err)
		}
	}
	return data, nil
}

type CreatedData struct {
	ClientID      string            `json:"client_id"`
	Reason        Reason            `json:"reason"`
	PropertyType  PropertyType      `json:"property_type"`
	HabitableArea float64           `json:"habitable_area"`
	PostalCode    string            `json:"postal_code,omitempty"`
	Condition     PropertyCondition `json:"condition"`
}

func (*CreatedData) EventType() EventType { return EventCreated }

type SubmittedData struct {
	DataCompleteness int `json:"data_completeness"`
}

func (*SubmittedData) EventType() EventType { return EventSubmitted }

type LegalConsentAcceptedData struct {
	Reason      Reason    `json:"reason"`
	ConsentText string    `json:"consent_text_accepted"`
	ConsentTime time.Time `json:"consent_time"`
	ClientIP    string    `json:"client_ip"`
}

func (*LegalConsentAcceptedData) EventType() EventType { return EventLegalConsentAccepted }

type PaymentInitiatedData struct {
	PaymentReference string `json:"payment_reference"`
	Amount           string `json:"amount"`
	Currency         string `json:"currency"`
	Provider         string `json:"provider"`
	ProviderStatus   string `json:"provider_status"`
}

func (*PaymentInitiatedData) EventType() EventType { return EventPaymentInitiated }

type PaymentCompletedData struct {
	TransactionID string `json:"transaction_id"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Provider      string `json:"provider"`
	Channel       string `json:"channel"`
}

func (*PaymentCompletedData) EventType() EventType { return EventPaymentCompleted }

type PaymentFailedData struct {
	PaymentReference string `json:"payment_reference"`
	ProviderStatus   string `json:"provider_status"`
	Reason           string `json:"reason"`
}

func (*PaymentFailedData) EventType() EventType { return EventPaymentFailed }

type CalculationInputs struct {
	HabitableArea  float64           `json:"habitable_area"`
	PropertyType   PropertyType      `json:"property_type"`
	Condition      PropertyCondition `json:"condition"`
	AmenitiesCount int               `json:"amenities_count"`
}

type CalculationOutputs struct {
	Low              int64           `json:"estimated_value_low"`
	Median           int64           `json:"estimated_value_medium"`
	High             int64           `json:"estimated_value_high"`
	ConfidenceLevel  ConfidenceLevel `json:"confidence_level"`
	ConfidenceMargin int             `json:"confidence_margin"`
	Completeness     int             `json:"data_completeness"`
}

type CalculatedData struct {
	RuleVersionID     string             `json:"rules_version_id"`
	RuleVersionNumber int                `json:"rules_version_number"`
	Inputs            CalculationInputs  `json:"inputs"`
	Results           CalculationOutputs `json:"results"`
}

func (*CalculatedData) EventType() EventType { return EventCalculated }

type ReportGeneratedData struct {
	StorageLocator string `json:"storage_path"`
	FileName       string `json:"file_name"`
	SizeBytes      int64  `json:"file_size_bytes"`
}

func (*ReportGeneratedData) EventType() EventType { return EventPDFGenerated }

type ResultViewedData struct {
	ViewedAt time.Time `json:"viewed_time"`
}

func (*ResultViewedData) EventType() EventType { return EventResultViewed }

type ReportDownloadedData struct {
	DownloadedAt time.Time `json:"download_time"`
}

func (*ReportDownloadedData) EventType() EventType { return EventPDFDownloaded }

type CancelledData struct {
	Reason         string           `json:"reason"`
	PreviousStatus EstimationStatus `json:"previous_status"`
}

func (*CancelledData) EventType() EventType { return EventCancelled }

type RefundRequestedData struct {
	RefundID string `json:"refund_id"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	Reason   string `json:"reason"`
	Origin   string `json:"origin"`
}

func (*RefundRequestedData) EventType() EventType { return EventRefundRequested }
