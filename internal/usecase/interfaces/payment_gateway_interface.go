package interfaces

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// ProviderStatus is the provider payment status normalized to what the workflow branches on.
type ProviderStatus string

const (
	ProviderStatusApproved ProviderStatus = "approved"
	ProviderStatusPending  ProviderStatus = "pending"
	ProviderStatusRejected ProviderStatus = "rejected"
	ProviderStatusRefunded ProviderStatus = "refunded"
)

// PaymentRequest is built by the workflow. Amount and currency always come from
// configuration. Payload carries the client-side fields (card token, payment method,
// payer) and never overrides amount or external reference.
type PaymentRequest struct {
	EstimationID string
	Amount       decimal.Decimal
	Currency     string
	Description  string
	PayerEmail   string
	Payload      json.RawMessage
}

type ProviderPayment struct {
	ID                string
	Status            ProviderStatus
	RawStatus         string
	StatusDetail      string
	ExternalReference string
	Amount            decimal.Decimal
	Currency          string
	Raw               json.RawMessage
}

type ProviderRefund struct {
	ID        string
	PaymentID string
	Amount    decimal.Decimal
	Status    string
	Raw       json.RawMessage
}

// IPaymentGateway abstracts external payment providers (e.g. Mercado Pago).
//
// GetPayment is the authenticated confirmation: webhooks only carry an id, the
// status is always re-read from the provider before a transition.
type IPaymentGateway interface {
	Name() string
	CreatePayment(ctx context.Context, req PaymentRequest) (ProviderPayment, error)
	GetPayment(ctx context.Context, providerPaymentID string) (ProviderPayment, error)
	RefundPayment(ctx context.Context, providerPaymentID string, amount decimal.Decimal) (ProviderRefund, error)
}
