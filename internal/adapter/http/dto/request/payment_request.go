package request

import (
	"bytes"
	"encoding/json"
	"strings"

	"juragites_estimation/internal/usecase"
)

// InitiatePaymentRequest carries the client-side Mercado Pago fields (card token,
// payment method, installments, payer) under mp_payload. Amount and external
// reference are always set by the server.
type InitiatePaymentRequest struct {
	PayerEmail string          `json:"payer_email"`
	MPPayload  json.RawMessage `json:"mp_payload"`
}

func (r InitiatePaymentRequest) ToInput() usecase.InitiatePaymentInput {
	payload := r.MPPayload
	if len(bytes.TrimSpace(payload)) == 0 || bytes.Equal(bytes.TrimSpace(payload), []byte("null")) {
		payload = json.RawMessage("{}")
	}
	return usecase.InitiatePaymentInput{PayerEmail: strings.TrimSpace(r.PayerEmail), Payload: payload}
}

type RefundRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// FlexibleID accepts the provider id as a JSON string or number.
type FlexibleID string

func (f *FlexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexibleID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexibleID(n.String())
	return nil
}

// WebhookRequest is the Mercado Pago notification body.
type WebhookRequest struct {
	ID     FlexibleID `json:"id"`
	Type   string     `json:"type"`
	Action string     `json:"action"`
	Data   struct {
		ID FlexibleID `json:"id"`
	} `json:"data"`
}

// ToNotification falls back on the query parameters the provider also sends
// (type / topic and data.id / id).
func (r WebhookRequest) ToNotification(queryType, queryDataID string) usecase.WebhookNotification {
	n := usecase.WebhookNotification{
		Type:   strings.TrimSpace(r.Type),
		Action: strings.TrimSpace(r.Action),
		DataID: string(r.Data.ID),
	}
	if n.Type == "" {
		n.Type = strings.TrimSpace(queryType)
	}
	if n.DataID == "" {
		n.DataID = strings.TrimSpace(queryDataID)
	}
	return n
}
