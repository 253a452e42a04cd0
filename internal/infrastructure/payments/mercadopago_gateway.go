package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"juragites_estimation/internal/usecase/interfaces"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/mperror"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/refund"
	"github.com/shopspring/decimal"
)

const ProviderName = "mercadopago"

var ErrMissingMercadoPagoAccessToken = errors.New("missing MERCADOPAGO_ACCESS_TOKEN")
var ErrMercadoPagoGatewayNotConfigured = errors.New("mercado pago gateway not configured")
var ErrInvalidProviderPaymentID = errors.New("invalid provider payment id")
var ErrProviderPaymentNotFound = errors.New("provider payment not found")

type MercadoPagoGateway struct {
	client  payment.Client
	refunds refund.Client
	mock    *mockProvider
}

var _ interfaces.IPaymentGateway = (*MercadoPagoGateway)(nil)

// NewMercadoPagoGateway returns the live gateway, or an in-process mock when mockMode is set.
func NewMercadoPagoGateway(accessToken string, mockMode bool) (*MercadoPagoGateway, error) {
	if mockMode {
		log.Printf("[payment][gateway] mock mode enabled")
		return &MercadoPagoGateway{mock: newMockProvider()}, nil
	}

	if accessToken == "" {
		log.Printf("[payment][gateway] missing MERCADOPAGO_ACCESS_TOKEN")
		return nil, ErrMissingMercadoPagoAccessToken
	}

	cfg, err := config.New(accessToken)
	if err != nil {
		log.Printf("[payment][gateway] failed creating sdk config err=%v", err)
		return nil, err
	}
	log.Printf("[payment][gateway] Mercado Pago client initialized")

	return &MercadoPagoGateway{client: payment.NewClient(cfg), refunds: refund.NewClient(cfg)}, nil
}

func (g *MercadoPagoGateway) Name() string { return ProviderName }

// CreatePayment sends the client payload (card token, payment method, payer) with
// amount, currency context and external reference forced from the request.
func (g *MercadoPagoGateway) CreatePayment(ctx context.Context, in interfaces.PaymentRequest) (interfaces.ProviderPayment, error) {
	var req payment.Request
	if len(in.Payload) > 0 {
		if err := json.Unmarshal(in.Payload, &req); err != nil {
			log.Printf("[payment][gateway] payload unmarshal failed err=%v", err)
			return interfaces.ProviderPayment{}, err
		}
	}
	req.TransactionAmount = in.Amount.InexactFloat64()
	req.ExternalReference = in.EstimationID
	req.Description = in.Description
	if in.PayerEmail != "" {
		if req.Payer == nil {
			req.Payer = &payment.PayerRequest{}
		}
		req.Payer.Email = in.PayerEmail
	}

	if g != nil && g.mock != nil {
		log.Printf("[payment][gateway] mock create start external_reference=%s payload_len=%d", in.EstimationID, len(in.Payload))
		p := g.mock.create(in, req)
		log.Printf("[payment][gateway] mock create success provider_payment_id=%s provider_status=%s", p.ID, p.RawStatus)
		return p, nil
	}

	if g == nil || g.client == nil {
		log.Printf("[payment][gateway] gateway not configured")
		return interfaces.ProviderPayment{}, ErrMercadoPagoGatewayNotConfigured
	}
	log.Printf("[payment][gateway] create start external_reference=%s", in.EstimationID)

	resp, err := g.client.Create(ctx, req)
	if err != nil {
		log.Printf("[payment][gateway] sdk create failed err=%v", err)
		return interfaces.ProviderPayment{}, classify(err)
	}
	p, err := fromPaymentResponse(resp, in.Currency)
	if err != nil {
		return interfaces.ProviderPayment{}, err
	}
	log.Printf("[payment][gateway] create success provider_payment_id=%s provider_status=%s", p.ID, p.RawStatus)
	return p, nil
}

func (g *MercadoPagoGateway) GetPayment(ctx context.Context, providerPaymentID string) (interfaces.ProviderPayment, error) {
	if g != nil && g.mock != nil {
		p, ok := g.mock.get(providerPaymentID)
		if !ok {
			return interfaces.ProviderPayment{}, ErrProviderPaymentNotFound
		}
		return p, nil
	}
	if g == nil || g.client == nil {
		return interfaces.ProviderPayment{}, ErrMercadoPagoGatewayNotConfigured
	}
	id, err := strconv.Atoi(providerPaymentID)
	if err != nil {
		return interfaces.ProviderPayment{}, ErrInvalidProviderPaymentID
	}

	resp, err := g.client.Get(ctx, id)
	if err != nil {
		log.Printf("[payment][gateway] sdk get failed provider_payment_id=%s err=%v", providerPaymentID, err)
		return interfaces.ProviderPayment{}, classify(err)
	}
	return fromPaymentResponse(resp, "")
}

func (g *MercadoPagoGateway) RefundPayment(ctx context.Context, providerPaymentID string, amount decimal.Decimal) (interfaces.ProviderRefund, error) {
	if g != nil && g.mock != nil {
		r, ok := g.mock.refund(providerPaymentID, amount)
		if !ok {
			return interfaces.ProviderRefund{}, ErrProviderPaymentNotFound
		}
		return r, nil
	}
	if g == nil || g.refunds == nil {
		return interfaces.ProviderRefund{}, ErrMercadoPagoGatewayNotConfigured
	}
	id, err := strconv.Atoi(providerPaymentID)
	if err != nil {
		return interfaces.ProviderRefund{}, ErrInvalidProviderPaymentID
	}
	log.Printf("[payment][gateway] refund start provider_payment_id=%s amount=%s", providerPaymentID, amount)

	resp, err := g.refunds.CreatePartialRefund(ctx, id, amount.InexactFloat64())
	if err != nil {
		log.Printf("[payment][gateway] sdk refund failed provider_payment_id=%s err=%v", providerPaymentID, err)
		return interfaces.ProviderRefund{}, classify(err)
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return interfaces.ProviderRefund{}, err
	}
	log.Printf("[payment][gateway] refund success provider_payment_id=%s refund_id=%d status=%s", providerPaymentID, resp.ID, resp.Status)
	return interfaces.ProviderRefund{
		ID:        strconv.Itoa(resp.ID),
		PaymentID: providerPaymentID,
		Amount:    decimal.NewFromFloat(resp.Amount).Round(2),
		Status:    resp.Status,
		Raw:       raw,
	}, nil
}

func fromPaymentResponse(resp *payment.Response, fallbackCurrency string) (interfaces.ProviderPayment, error) {
	raw, err := json.Marshal(resp)
	if err != nil {
		log.Printf("[payment][gateway] response marshal failed err=%v", err)
		return interfaces.ProviderPayment{}, err
	}
	currency := resp.CurrencyID
	if currency == "" {
		currency = fallbackCurrency
	}
	return interfaces.ProviderPayment{
		ID:                strconv.Itoa(resp.ID),
		Status:            NormalizeStatus(resp.Status),
		RawStatus:         resp.Status,
		StatusDetail:      resp.StatusDetail,
		ExternalReference: resp.ExternalReference,
		Amount:            decimal.NewFromFloat(resp.TransactionAmount).Round(2),
		Currency:          strings.ToUpper(currency),
		Raw:               raw,
	}, nil
}

// NormalizeStatus maps Mercado Pago payment statuses to the ones the workflow branches on.
func NormalizeStatus(status string) interfaces.ProviderStatus {
	switch strings.ToLower(status) {
	case "approved":
		return interfaces.ProviderStatusApproved
	case "rejected", "cancelled":
		return interfaces.ProviderStatusRejected
	case "refunded", "charged_back":
		return interfaces.ProviderStatusRefunded
	default:
		// pending, authorized (not yet captured), in_process, in_mediation
		return interfaces.ProviderStatusPending
	}
}

// classify wraps timeouts, throttling and provider 5xx in interfaces.ErrTransient.
func classify(err error) error {
	if err == nil {
		return nil
	}
	transient := errors.Is(err, context.DeadlineExceeded)

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		transient = true
	}
	var respErr *mperror.ResponseError
	if errors.As(err, &respErr) {
		transient = respErr.StatusCode == http.StatusTooManyRequests || respErr.StatusCode >= http.StatusInternalServerError
	}
	if transient {
		return fmt.Errorf("%w: %w", interfaces.ErrTransient, err)
	}
	return err
}

// mockProvider keeps created payments in memory so confirmation and refunds work
// end to end without credentials. A payload "status" field selects the outcome.
type mockProvider struct {
	mu       sync.Mutex
	payments map[string]interfaces.ProviderPayment
	seq      int64
}

func newMockProvider() *mockProvider {
	return &mockProvider{payments: map[string]interfaces.ProviderPayment{}, seq: time.Now().UTC().UnixNano() / int64(time.Millisecond)}
}

func (m *mockProvider) create(in interfaces.PaymentRequest, req payment.Request) interfaces.ProviderPayment {
	m.mu.Lock()
	defer m.mu.Unlock()

	hint := struct {
		Status string `json:"status"`
	}{}
	if len(in.Payload) > 0 {
		_ = json.Unmarshal(in.Payload, &hint)
	}
	status := "approved"
	if hint.Status != "" {
		status = strings.ToLower(hint.Status)
	}

	m.seq++
	id := strconv.FormatInt(m.seq, 10)
	now := time.Now().UTC().Format(time.RFC3339Nano)
	raw, _ := json.Marshal(map[string]any{
		"id":                 m.seq,
		"status":             status,
		"status_detail":      "accredited",
		"external_reference": req.ExternalReference,
		"transaction_amount": req.TransactionAmount,
		"currency_id":        in.Currency,
		"date_created":       now,
	})
	p := interfaces.ProviderPayment{
		ID:                id,
		Status:            NormalizeStatus(status),
		RawStatus:         status,
		StatusDetail:      "accredited",
		ExternalReference: in.EstimationID,
		Amount:            in.Amount,
		Currency:          in.Currency,
		Raw:               raw,
	}
	m.payments[id] = p
	return p
}

func (m *mockProvider) get(id string) (interfaces.ProviderPayment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	return p, ok
}

func (m *mockProvider) refund(id string, amount decimal.Decimal) (interfaces.ProviderRefund, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return interfaces.ProviderRefund{}, false
	}
	p.Status, p.RawStatus = interfaces.ProviderStatusRefunded, "refunded"
	m.payments[id] = p
	return interfaces.ProviderRefund{ID: "r-" + id, PaymentID: id, Amount: amount, Status: "approved"}, true
}
