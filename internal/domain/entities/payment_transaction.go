package entities

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	TransactionSucceeded TransactionStatus = "succeeded"
	TransactionFailed    TransactionStatus = "failed"
	TransactionRefunded  TransactionStatus = "refunded"
)

// PaymentTransaction is an append-only payment row.
//
// Storage model (DynamoDB):
//   - PK: id ("<provider_transaction_id>:<status>", so a provider outcome is recorded once)
//   - GSI1 (estimation_id-index): estimation_id
//
// A refund is a new row, the original succeeded row is never mutated.
// ProviderPayload keeps the provider response body for traceability.
type PaymentTransaction struct {
	ID                    string            `json:"id"`
	EstimationID          string            `json:"estimation_id"`
	Provider              string            `json:"provider"`
	ProviderTransactionID string            `json:"provider_transaction_id"`
	Amount                decimal.Decimal   `json:"amount"`
	Currency              string            `json:"currency"`
	Status                TransactionStatus `json:"status"`
	ProviderPayload       json.RawMessage   `json:"provider_payload,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
}

func PaymentTransactionID(providerTransactionID string, status TransactionStatus) string {
	return providerTransactionID + ":" + string(status)
}
