package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

var (
	ErrMissingSignature = errors.New("missing webhook signature")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// WebhookSignature is the parsed x-signature header ("ts=<ts>,v1=<hex>").
type WebhookSignature struct {
	Timestamp string
	V1        string
}

func ParseWebhookSignature(header string) (WebhookSignature, error) {
	var sig WebhookSignature
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(k) {
		case "ts":
			sig.Timestamp = strings.TrimSpace(v)
		case "v1":
			sig.V1 = strings.ToLower(strings.TrimSpace(v))
		}
	}
	if sig.Timestamp == "" || sig.V1 == "" {
		return WebhookSignature{}, ErrMissingSignature
	}
	return sig, nil
}

// SignatureManifest is the string Mercado Pago signs. Alphanumeric data ids are
// lower-cased by the provider before signing.
func SignatureManifest(dataID, requestID, ts string) string {
	var b strings.Builder
	if dataID != "" {
		b.WriteString("id:" + strings.ToLower(dataID) + ";")
	}
	if requestID != "" {
		b.WriteString("request-id:" + requestID + ";")
	}
	b.WriteString("ts:" + ts + ";")
	return b.String()
}

// SignWebhook returns the hex HMAC-SHA256 of the manifest.
func SignWebhook(secret, dataID, requestID, ts string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(SignatureManifest(dataID, requestID, ts)))
	return hex.EncodeToString(mac.Sum(nil))
}

// WebhookVerifier checks x-signature headers against the configured secret.
// An empty secret disables verification.
type WebhookVerifier struct {
	secret string
}

func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: secret}
}

func (v *WebhookVerifier) Enabled() bool { return v != nil && v.secret != "" }

func (v *WebhookVerifier) Verify(signatureHeader, requestID, dataID string) error {
	if !v.Enabled() {
		return nil
	}
	sig, err := ParseWebhookSignature(signatureHeader)
	if err != nil {
		return err
	}
	want := SignWebhook(v.secret, dataID, requestID, sig.Timestamp)
	if !hmac.Equal([]byte(want), []byte(sig.V1)) {
		return ErrInvalidSignature
	}
	return nil
}
