package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"juragites_estimation/internal/domain/domainerr"
	"juragites_estimation/internal/domain/entities"
	"juragites_estimation/internal/usecase/interfaces"

	"go.uber.org/mock/gomock"
)

func TestPaymentUseCase_Initiate_Validations(t *testing.T) {
	t.Run("invalid json payload", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.payment.Initiate(context.Background(), client, "est-1", InitiatePaymentInput{Payload: []byte(`{`)}, reqMeta)
		if !errors.Is(err, ErrInvalidPaymentPayload) {
			t.Fatalf("expected ErrInvalidPaymentPayload, got %v", err)
		}
	})

	t.Run("gateway not configured", func(t *testing.T) {
		uc := NewPaymentUseCase(PaymentDeps{}, PaymentSettings{Amount: price, Currency: "EUR"})
		_, err := uc.Initiate(context.Background(), client, "est-1", InitiatePaymentInput{}, reqMeta)
		if !errors.Is(err, ErrPaymentGatewayMissing) {
			t.Fatalf("expected ErrPaymentGatewayMissing, got %v", err)
		}
	})

	t.Run("without consent", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		e, err := f.estimation.Create(ctx, client, CreateEstimationInput{Reason: entities.ReasonSale, Attributes: testAttrs()}, reqMeta)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := f.estimation.Submit(ctx, client, e.ID, reqMeta); err != nil {
			t.Fatalf("submit: %v", err)
		}
		_, err = f.payment.Initiate(ctx, client, e.ID, InitiatePaymentInput{}, reqMeta)
		if !errors.Is(err, domainerr.ErrStateTransition) {
			t.Fatalf("expected state transition error, got %v", err)
		}
	})

	t.Run("other client", func(t *testing.T) {
		f := newFixture(t)
		e := f.consented(t)
		_, err := f.payment.Initiate(context.Background(), otherClient, e.ID, InitiatePaymentInput{}, reqMeta)
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})
}

func TestPaymentUseCase_Initiate_UsesConfiguredPrice(t *testing.T) {
	f := newFixture(t)
	e := f.consented(t)

	f.gateway.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req interfaces.PaymentRequest) (interfaces.ProviderPayment, error) {
			if !req.Amount.Equal(price) || req.Currency != "EUR" {
				t.Fatalf("expected configured price, got %s %s", req.Amount, req.Currency)
			}
			if req.EstimationID != e.ID {
				t.Fatalf("expected external reference %s, got %s", e.ID, req.EstimationID)
			}
			return providerPayment("pay-1", e.ID, interfaces.ProviderStatusPending), nil
		})

	got, err := f.payment.Initiate(context.Background(), client, e.ID, InitiatePaymentInput{Payload: []byte(`{"transaction_amount":1}`)}, reqMeta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != entities.EstimationStatusPaymentPending || got.PaymentReference != "pay-1" {
		t.Fatalf("expected payment_pending with reference, got %s %q", got.Status, got.PaymentReference)
	}
	if got.Result != nil {
		t.Fatalf("result must not exist before payment")
	}
}

func TestPaymentUseCase_Initiate_SyncApprovalCompletes(t *testing.T) {
	f := newFixture(t)
	e := f.consented(t)
	f.gateway.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).Return(providerPayment("pay-1", e.ID, interfaces.ProviderStatusApproved), nil)
	f.expectReport(e.ID)

	got, err := f.payment.Initiate(context.Background(), client, e.ID, InitiatePaymentInput{}, reqMeta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != entities.EstimationStatusCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}
	if got.Result == nil || got.Result.Median != 225000 || got.RuleVersionNumber != 1 {
		t.Fatalf("unexpected result %+v", got.Result)
	}
	if got.ReportLocator == "" || got.PaidAt == nil || !got.AmountPaid.Equal(price) {
		t.Fatalf("expected report locator and payment fields, got %+v", got)
	}

	want := []entities.EventType{
		entities.EventCreated,
		entities.EventSubmitted,
		entities.EventLegalConsentAccepted,
		entities.EventPaymentInitiated,
		entities.EventPaymentCompleted,
		entities.EventCalculated,
		entities.EventPDFGenerated,
	}
	types := f.eventTypes(t, e.ID)
	if fmt.Sprint(types) != fmt.Sprint(want) {
		t.Fatalf("expected events %v, got %v", want, types)
	}

	txs, _ := f.transactions.ListByEstimationID(context.Background(), e.ID)
	if len(txs) != 1 || txs[0].Status != entities.TransactionSucceeded || len(txs[0].ProviderPayload) == 0 {
		t.Fatalf("expected one succeeded transaction with payload, got %+v", txs)
	}
}

func TestPaymentUseCase_Initiate_GatewayFailure(t *testing.T) {
	f := newFixture(t)
	e := f.consented(t)

	transient := fmt.Errorf("mercadopago: %w", interfaces.ErrTransient)
	f.gateway.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).Return(interfaces.ProviderPayment{}, transient).Times(3)
	f.alerter.EXPECT().Alert("payment", gomock.Any(), gomock.Any(), gomock.Any())

	_, err := f.payment.Initiate(context.Background(), client, e.ID, InitiatePaymentInput{}, reqMeta)
	if !errors.Is(err, domainerr.ErrProviderUnavailable) || errors.Is(err, domainerr.ErrPayment) {
		t.Fatalf("expected provider unavailable, got %v", err)
	}
	got, _ := f.estimations.GetByID(context.Background(), e.ID)
	if got.Status != entities.EstimationStatusConsentGiven {
		t.Fatalf("expected consent_given kept, got %s", got.Status)
	}
	if n := countEvents(f.eventTypes(t, e.ID), entities.EventPaymentFailed); n != 0 {
		t.Fatalf("an outage is not a payment failure, got %d payment_failed events", n)
	}
}

func TestPaymentUseCase_Initiate_NonTransientErrorIsNotRetried(t *testing.T) {
	f := newFixture(t)
	e := f.consented(t)
	f.gateway.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).Return(interfaces.ProviderPayment{}, errors.New("invalid card token")).Times(1)

	_, err := f.payment.Initiate(context.Background(), client, e.ID, InitiatePaymentInput{}, reqMeta)
	if !errors.Is(err, domainerr.ErrPayment) {
		t.Fatalf("expected payment error, got %v", err)
	}
	if n := countEvents(f.eventTypes(t, e.ID), entities.EventPaymentFailed); n != 1 {
		t.Fatalf("expected one payment_failed event for a provider refusal, got %d", n)
	}
}

func TestPaymentUseCase_RejectedThenRetried(t *testing.T) {
	f := newFixture(t)
	e := f.consented(t)
	ctx := context.Background()

	f.gateway.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).Return(providerPayment("pay-1", e.ID, interfaces.ProviderStatusRejected), nil)
	_, err := f.payment.Initiate(ctx, client, e.ID, InitiatePaymentInput{}, reqMeta)
	if !errors.Is(err, domainerr.ErrPayment) {
		t.Fatalf("expected payment error, got %v", err)
	}
	got, _ := f.estimations.GetByID(ctx, e.ID)
	if got.Status != entities.EstimationStatusPaymentFailed || got.PaymentStatus != entities.PaymentStatusFailed {
		t.Fatalf("expected payment_failed, got %s/%s", got.Status, got.PaymentStatus)
	}

	f.gateway.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).Return(providerPayment("pay-2", e.ID, interfaces.ProviderStatusApproved), nil)
	f.expectReport(e.ID)
	got, err = f.payment.Initiate(ctx, client, e.ID, InitiatePaymentInput{}, reqMeta)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if got.Status != entities.EstimationStatusCompleted || got.PaymentReference != "pay-2" {
		t.Fatalf("expected completed with the second payment, got %s %s", got.Status, got.PaymentReference)
	}
	txs, _ := f.transactions.ListByEstimationID(ctx, e.ID)
	if len(txs) != 2 {
		t.Fatalf("expected failed and succeeded transactions, got %d", len(txs))
	}
}

func TestPaymentUseCase_WebhookConfirmation(t *testing.T) {
	f := newFixture(t)
	e := f.pending(t, "pay-1")
	f.gateway.EXPECT().GetPayment(gomock.Any(), "pay-1").Return(providerPayment("pay-1", e.ID, interfaces.ProviderStatusApproved), nil)
	f.expectReport(e.ID)

	got, err := f.payment.HandleWebhook(context.Background(), WebhookNotification{Type: "payment", Action: "payment.updated", DataID: "pay-1"}, entities.RequestMeta{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != entities.EstimationStatusCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}
	evs, _ := f.events.ListByEstimationID(context.Background(), e.ID)
	for _, ev := range evs {
		if ev.Type != entities.EventPaymentCompleted {
			continue
		}
		if data, ok := ev.Data.(*entities.PaymentCompletedData); !ok || data.Channel != ChannelWebhook {
			t.Fatalf("expected webhook channel, got %+v", ev.Data)
		}
	}
}

func TestPaymentUseCase_DuplicateConfirmationsAreIdempotent(t *testing.T) {
	f := newFixture(t)
	e := f.pending(t, "pay-1")
	ctx := context.Background()

	f.gateway.EXPECT().GetPayment(gomock.Any(), "pay-1").Return(providerPayment("pay-1", e.ID, interfaces.ProviderStatusApproved), nil).AnyTimes()
	// Concurrent resumers may each render the report; the locator is the same.
	f.reports.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any()).Return(interfaces.GeneratedReport{
		Locator:   "reports/" + e.ID + ".pdf",
		FileName:  e.ID + ".pdf",
		SizeBytes: 512,
	}, nil).MinTimes(1)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = f.payment.HandleWebhook(ctx, WebhookNotification{Type: "payment", DataID: "pay-1"}, entities.RequestMeta{})
			} else {
				_, err = f.payment.Confirm(ctx, client, e.ID, reqMeta)
			}
			if err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("unexpected error: %v", err)
	}

	types := f.eventTypes(t, e.ID)
	if n := countEvents(types, entities.EventPaymentCompleted); n != 1 {
		t.Fatalf("expected one payment_completed event, got %d", n)
	}
	if n := countEvents(types, entities.EventCalculated); n != 1 {
		t.Fatalf("expected one calculated event, got %d", n)
	}
	if n := countEvents(types, entities.EventPDFGenerated); n != 1 {
		t.Fatalf("expected one pdf_generated event, got %d", n)
	}
	got, _ := f.estimations.GetByID(ctx, e.ID)
	if got.Status != entities.EstimationStatusCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}
	txs, _ := f.transactions.ListByEstimationID(ctx, e.ID)
	if len(txs) != 1 {
		t.Fatalf("expected one transaction, got %d", len(txs))
	}
}

func TestPaymentUseCase_Webhook_Lookups(t *testing.T) {
	t.Run("ignores non payment topics", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.payment.HandleWebhook(context.Background(), WebhookNotification{Type: "merchant_order", DataID: "1"}, entities.RequestMeta{})
		if !errors.Is(err, ErrInvalidPaymentPayload) {
			t.Fatalf("expected ErrInvalidPaymentPayload, got %v", err)
		}
	})

	t.Run("unknown payment", func(t *testing.T) {
		f := newFixture(t)
		f.gateway.EXPECT().GetPayment(gomock.Any(), "pay-x").Return(providerPayment("pay-x", "", interfaces.ProviderStatusApproved), nil)
		_, err := f.payment.HandleWebhook(context.Background(), WebhookNotification{Type: "payment", DataID: "pay-x"}, entities.RequestMeta{})
		if !errors.Is(err, ErrEstimationNotFound) {
			t.Fatalf("expected ErrEstimationNotFound, got %v", err)
		}
	})

	t.Run("external reference of another payment", func(t *testing.T) {
		f := newFixture(t)
		e := f.pending(t, "pay-1")
		f.gateway.EXPECT().GetPayment(gomock.Any(), "pay-9").Return(providerPayment("pay-9", e.ID, interfaces.ProviderStatusApproved), nil)
		f.alerter.EXPECT().Alert("payment", gomock.Any(), ErrPaymentReferenceMismatch, gomock.Any())

		_, err := f.payment.HandleWebhook(context.Background(), WebhookNotification{Type: "payment", DataID: "pay-9"}, entities.RequestMeta{})
		if !errors.Is(err, ErrPaymentReferenceMismatch) {
			t.Fatalf("expected ErrPaymentReferenceMismatch, got %v", err)
		}
	})

	t.Run("amount mismatch", func(t *testing.T) {
		f := newFixture(t)
		e := f.pending(t, "pay-1")
		p := providerPayment("pay-1", e.ID, interfaces.ProviderStatusApproved)
		p.Amount = dec("1.00")
		f.gateway.EXPECT().GetPayment(gomock.Any(), "pay-1").Return(p, nil)
		f.alerter.EXPECT().Alert("payment", gomock.Any(), ErrPaymentAmountMismatch, gomock.Any())

		_, err := f.payment.HandleWebhook(context.Background(), WebhookNotification{Type: "payment", DataID: "pay-1"}, entities.RequestMeta{})
		if !errors.Is(err, ErrPaymentAmountMismatch) {
			t.Fatalf("expected ErrPaymentAmountMismatch, got %v", err)
		}
		got, _ := f.estimations.GetByID(context.Background(), e.ID)
		if got.Status != entities.EstimationStatusPaymentPending {
			t.Fatalf("expected payment_pending kept, got %s", got.Status)
		}
	})

	t.Run("still pending", func(t *testing.T) {
		f := newFixture(t)
		e := f.pending(t, "pay-1")
		f.gateway.EXPECT().GetPayment(gomock.Any(), "pay-1").Return(providerPayment("pay-1", e.ID, interfaces.ProviderStatusPending), nil)

		got, err := f.payment.HandleWebhook(context.Background(), WebhookNotification{Type: "payment", DataID: "pay-1"}, entities.RequestMeta{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Status != entities.EstimationStatusPaymentPending {
			t.Fatalf("expected payment_pending, got %s", got.Status)
		}
	})
}

func TestPaymentUseCase_Webhook_ProviderOutage(t *testing.T) {
	f := newFixture(t)
	e := f.pending(t, "pay-1")
	f.gateway.EXPECT().GetPayment(gomock.Any(), "pay-1").Return(interfaces.ProviderPayment{}, fmt.Errorf("%w: 503 from provider", interfaces.ErrTransient)).Times(3)
	f.alerter.EXPECT().Alert("payment", "payment provider unavailable", gomock.Any(), gomock.Any())

	_, err := f.payment.HandleWebhook(context.Background(), WebhookNotification{Type: "payment", DataID: "pay-1"}, entities.RequestMeta{})
	if !errors.Is(err, domainerr.ErrProviderUnavailable) {
		t.Fatalf("expected provider unavailable, got %v", err)
	}
	if !domainerr.IsSystemFault(err) || errors.Is(err, domainerr.ErrPayment) {
		t.Fatalf("an outage must be a system fault, not a payment error: %v", err)
	}
	got, _ := f.estimations.GetByID(context.Background(), e.ID)
	if got.Status != entities.EstimationStatusPaymentPending {
		t.Fatalf("expected payment_pending kept, got %s", got.Status)
	}
}

func TestPaymentUseCase_ReplaysAfterPartialFailure(t *testing.T) {
	approved := func(f *fixture, e entities.Estimation) {
		f.gateway.EXPECT().GetPayment(gomock.Any(), "pay-1").Return(providerPayment("pay-1", e.ID, interfaces.ProviderStatusApproved), nil).AnyTimes()
	}
	once := func(t *testing.T, f *fixture, id string) {
		t.Helper()
		types := f.eventTypes(t, id)
		for _, want := range []entities.EventType{entities.EventPaymentCompleted, entities.EventCalculated, entities.EventPDFGenerated} {
			if n := countEvents(types, want); n != 1 {
				t.Fatalf("expected one %s event, got %d in %v", want, n, types)
			}
		}
		got, _ := f.estimations.GetByID(context.Background(), id)
		if got.Status != entities.EstimationStatusCompleted {
			t.Fatalf("expected completed, got %s", got.Status)
		}
		txs, _ := f.transactions.ListByEstimationID(context.Background(), id)
		if len(txs) != 1 {
			t.Fatalf("expected one transaction, got %d", len(txs))
		}
	}

	t.Run("payment_completed write fails", func(t *testing.T) {
		f := newFixture(t)
		f.wire(&failingEvents{IAuditEventRepository: f.events, fails: map[entities.EventType]int{entities.EventPaymentCompleted: 1}}, f.transactions)
		e := f.pending(t, "pay-1")
		ctx := context.Background()
		approved(f, e)
		f.alerter.EXPECT().Alert("audit", gomock.Any(), gomock.Any(), gomock.Any())

		_, err := f.payment.Confirm(ctx, client, e.ID, reqMeta)
		if !errors.Is(err, domainerr.ErrPersistence) {
			t.Fatalf("expected persistence error, got %v", err)
		}
		got, _ := f.estimations.GetByID(ctx, e.ID)
		if got.Status != entities.EstimationStatusPaymentPending {
			t.Fatalf("status must not move without its event, got %s", got.Status)
		}

		f.expectReport(e.ID)
		if _, err := f.payment.Confirm(ctx, client, e.ID, reqMeta); err != nil {
			t.Fatalf("retry confirm: %v", err)
		}
		if _, err := f.payment.HandleWebhook(ctx, WebhookNotification{Type: "payment", DataID: "pay-1"}, entities.RequestMeta{}); err != nil {
			t.Fatalf("webhook redelivery: %v", err)
		}
		once(t, f, e.ID)
	})

	t.Run("transaction write fails", func(t *testing.T) {
		f := newFixture(t)
		f.wire(f.events, &failingTransactions{IPaymentTransactionRepository: f.transactions, n: 1})
		e := f.pending(t, "pay-1")
		ctx := context.Background()
		approved(f, e)
		f.alerter.EXPECT().Alert("payment", "payment transaction write failed", gomock.Any(), gomock.Any())

		_, err := f.payment.HandleWebhook(ctx, WebhookNotification{Type: "payment", DataID: "pay-1"}, entities.RequestMeta{})
		if !errors.Is(err, domainerr.ErrPersistence) {
			t.Fatalf("expected persistence error, got %v", err)
		}
		if n := countEvents(f.eventTypes(t, e.ID), entities.EventPaymentCompleted); n != 0 {
			t.Fatalf("expected no payment_completed before the transaction is stored, got %d", n)
		}

		f.expectReport(e.ID)
		if _, err := f.payment.HandleWebhook(ctx, WebhookNotification{Type: "payment", DataID: "pay-1"}, entities.RequestMeta{}); err != nil {
			t.Fatalf("webhook redelivery: %v", err)
		}
		once(t, f, e.ID)
	})

	t.Run("calculated write fails", func(t *testing.T) {
		f := newFixture(t)
		f.wire(&failingEvents{IAuditEventRepository: f.events, fails: map[entities.EventType]int{entities.EventCalculated: 1}}, f.transactions)
		e := f.pending(t, "pay-1")
		ctx := context.Background()
		approved(f, e)
		f.alerter.EXPECT().Alert("audit", gomock.Any(), gomock.Any(), gomock.Any())

		_, err := f.payment.Confirm(ctx, client, e.ID, reqMeta)
		if !errors.Is(err, domainerr.ErrPersistence) {
			t.Fatalf("expected persistence error, got %v", err)
		}
		got, _ := f.estimations.GetByID(ctx, e.ID)
		if got.Status != entities.EstimationStatusCalculated || got.Result == nil {
			t.Fatalf("expected calculated with result, got %s", got.Status)
		}

		f.expectReport(e.ID)
		if _, err := f.payment.Confirm(ctx, client, e.ID, reqMeta); err != nil {
			t.Fatalf("retry confirm: %v", err)
		}
		once(t, f, e.ID)

		evs, _ := f.events.ListByEstimationID(ctx, e.ID)
		for _, ev := range evs {
			if data, ok := ev.Data.(*entities.CalculatedData); ok && data.Results.Median != got.Result.Median {
				t.Fatalf("calculated event must carry the stored result, got %d want %d", data.Results.Median, got.Result.Median)
			}
		}
	})

	t.Run("pdf_generated write fails", func(t *testing.T) {
		f := newFixture(t)
		f.wire(&failingEvents{IAuditEventRepository: f.events, fails: map[entities.EventType]int{entities.EventPDFGenerated: 1}}, f.transactions)
		e := f.pending(t, "pay-1")
		ctx := context.Background()
		approved(f, e)
		f.alerter.EXPECT().Alert("audit", gomock.Any(), gomock.Any(), gomock.Any())
		f.expectReport(e.ID)

		_, err := f.payment.Confirm(ctx, client, e.ID, reqMeta)
		if !errors.Is(err, domainerr.ErrPersistence) {
			t.Fatalf("expected persistence error, got %v", err)
		}
		got, _ := f.estimations.GetByID(ctx, e.ID)
		if got.Status != entities.EstimationStatusCalculated || got.ReportLocator != "" {
			t.Fatalf("expected calculated without report, got %s %q", got.Status, got.ReportLocator)
		}

		f.expectReport(e.ID)
		if _, err := f.payment.HandleWebhook(ctx, WebhookNotification{Type: "payment", DataID: "pay-1"}, entities.RequestMeta{}); err != nil {
			t.Fatalf("webhook redelivery: %v", err)
		}
		once(t, f, e.ID)
	})
}

func TestPaymentUseCase_Finalize(t *testing.T) {
	t.Run("admin only", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.payment.Finalize(context.Background(), client, "est-1", reqMeta)
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("rejected before payment", func(t *testing.T) {
		f := newFixture(t)
		for _, e := range []entities.Estimation{f.consented(t), f.pending(t, "pay-1")} {
			_, err := f.payment.Finalize(context.Background(), admin, e.ID, reqMeta)
			if !errors.Is(err, domainerr.ErrStateTransition) {
				t.Fatalf("expected state transition error from %s, got %v", e.Status, err)
			}
			if got, _ := f.estimations.GetByID(context.Background(), e.ID); got.Result != nil {
				t.Fatalf("result written without payment")
			}
		}
	})

	t.Run("invalid attributes need support", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		at := time.Now().UTC()
		bad := testAttrs()
		bad.HabitableArea = 0
		e, _ := f.estimations.Create(ctx, entities.Estimation{
			ID:            "est-bad",
			ClientID:      client.ClientID,
			Reason:        entities.ReasonOther,
			Attributes:    bad,
			Status:        entities.EstimationStatusPaymentConfirmed,
			PaymentStatus: entities.PaymentStatusCompleted,
			LegalConsent:  entities.LegalConsent{Accepted: true, AcceptedAt: &at},
			CreatedAt:     at,
			UpdatedAt:     at,
		})
		f.alerter.EXPECT().Alert("valuation", gomock.Any(), gomock.Any(), gomock.Any())

		_, err := f.payment.Finalize(ctx, admin, e.ID, reqMeta)
		if !errors.Is(err, ErrCalculationNeedsSupport) || !errors.Is(err, domainerr.ErrValidation) {
			t.Fatalf("expected support error wrapping validation, got %v", err)
		}
		got, _ := f.estimations.GetByID(ctx, e.ID)
		if got.Status != entities.EstimationStatusPaymentConfirmed || got.FailureReason == "" {
			t.Fatalf("expected payment_confirmed with a failure reason, got %s %q", got.Status, got.FailureReason)
		}
	})

	t.Run("report failure resumes", func(t *testing.T) {
		f := newFixture(t)
		e := f.pending(t, "pay-1")
		ctx := context.Background()

		f.gateway.EXPECT().GetPayment(gomock.Any(), "pay-1").Return(providerPayment("pay-1", e.ID, interfaces.ProviderStatusApproved), nil)
		f.reports.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any()).Return(interfaces.GeneratedReport{}, fmt.Errorf("s3: %w", interfaces.ErrTransient)).Times(3)
		f.alerter.EXPECT().Alert("report", gomock.Any(), gomock.Any(), gomock.Any())

		_, err := f.payment.Confirm(ctx, client, e.ID, reqMeta)
		if !errors.Is(err, domainerr.ErrPersistence) {
			t.Fatalf("expected persistence error, got %v", err)
		}
		got, _ := f.estimations.GetByID(ctx, e.ID)
		if got.Status != entities.EstimationStatusCalculated || got.Result == nil {
			t.Fatalf("expected calculated with result, got %s", got.Status)
		}
		median := got.Result.Median

		f.expectReport(e.ID)
		got, err = f.payment.Finalize(ctx, admin, e.ID, reqMeta)
		if err != nil {
			t.Fatalf("finalize: %v", err)
		}
		if got.Status != entities.EstimationStatusCompleted || got.Result.Median != median {
			t.Fatalf("expected completed with the stored result, got %s", got.Status)
		}
		if n := countEvents(f.eventTypes(t, e.ID), entities.EventCalculated); n != 1 {
			t.Fatalf("expected one calculated event, got %d", n)
		}
	})

	t.Run("no active rules", func(t *testing.T) {
		f := newFixture(t)
		f.payment.rules = NewRuleVersionUseCase(emptyRules{}, nil)
		e := f.pending(t, "pay-1")
		f.gateway.EXPECT().GetPayment(gomock.Any(), "pay-1").Return(providerPayment("pay-1", e.ID, interfaces.ProviderStatusApproved), nil)
		f.alerter.EXPECT().Alert("valuation", gomock.Any(), gomock.Any(), gomock.Any())

		_, err := f.payment.Confirm(context.Background(), client, e.ID, reqMeta)
		if !errors.Is(err, domainerr.ErrRuleResolution) {
			t.Fatalf("expected rule resolution error, got %v", err)
		}
		got, _ := f.estimations.GetByID(context.Background(), e.ID)
		if got.Status != entities.EstimationStatusPaymentConfirmed || got.Result != nil {
			t.Fatalf("expected payment_confirmed without result, got %s", got.Status)
		}
	})
}

func TestPaymentUseCase_Refund(t *testing.T) {
	completed := func(t *testing.T, f *fixture) entities.Estimation {
		e := f.consented(t)
		f.gateway.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).Return(providerPayment("pay-1", e.ID, interfaces.ProviderStatusApproved), nil)
		f.expectReport(e.ID)
		e, err := f.payment.Initiate(context.Background(), client, e.ID, InitiatePaymentInput{}, reqMeta)
		if err != nil {
			t.Fatalf("initiate: %v", err)
		}
		return e
	}

	t.Run("admin only", func(t *testing.T) {
		f := newFixture(t)
		e := completed(t, f)
		_, err := f.payment.Refund(context.Background(), client, e.ID, "no", reqMeta)
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("refunds completed estimation", func(t *testing.T) {
		f := newFixture(t)
		e := completed(t, f)
		ctx := context.Background()
		f.gateway.EXPECT().RefundPayment(gomock.Any(), "pay-1", gomock.Any()).Return(interfaces.ProviderRefund{ID: "rf-1", PaymentID: "pay-1", Amount: price, Status: "approved"}, nil)

		got, err := f.payment.Refund(ctx, admin, e.ID, "client complaint", reqMeta)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Status != entities.EstimationStatusCancelled || got.PaymentStatus != entities.PaymentStatusRefunded {
			t.Fatalf("expected cancelled/refunded, got %s/%s", got.Status, got.PaymentStatus)
		}
		if got.Result == nil {
			t.Fatalf("refund must keep the stored result")
		}
		txs, _ := f.transactions.ListByEstimationID(ctx, e.ID)
		if len(txs) != 2 {
			t.Fatalf("expected succeeded and refunded rows, got %d", len(txs))
		}
		if n := countEvents(f.eventTypes(t, e.ID), entities.EventRefundRequested); n != 1 {
			t.Fatalf("expected one refund_requested event, got %d", n)
		}
	})

	t.Run("refund event failure is replayed without a second provider refund", func(t *testing.T) {
		f := newFixture(t)
		failing := &failingEvents{IAuditEventRepository: f.events, fails: map[entities.EventType]int{}}
		f.wire(failing, f.transactions)
		e := completed(t, f)
		ctx := context.Background()
		failing.mu.Lock()
		failing.fails[entities.EventRefundRequested] = 1
		failing.mu.Unlock()
		f.gateway.EXPECT().RefundPayment(gomock.Any(), "pay-1", gomock.Any()).Return(interfaces.ProviderRefund{ID: "rf-1", PaymentID: "pay-1", Amount: price, Status: "approved"}, nil).Times(1)
		f.alerter.EXPECT().Alert("audit", gomock.Any(), gomock.Any(), gomock.Any())

		_, err := f.payment.Refund(ctx, admin, e.ID, "client complaint", reqMeta)
		if !errors.Is(err, domainerr.ErrPersistence) {
			t.Fatalf("expected persistence error, got %v", err)
		}
		got, err := f.payment.Refund(ctx, admin, e.ID, "client complaint", reqMeta)
		if err != nil {
			t.Fatalf("retry refund: %v", err)
		}
		if got.PaymentStatus != entities.PaymentStatusRefunded {
			t.Fatalf("expected refunded, got %s", got.PaymentStatus)
		}
		if n := countEvents(f.eventTypes(t, e.ID), entities.EventRefundRequested); n != 1 {
			t.Fatalf("expected one refund_requested event, got %d", n)
		}
	})

	t.Run("provider refund webhook is idempotent", func(t *testing.T) {
		f := newFixture(t)
		e := completed(t, f)
		ctx := context.Background()
		f.gateway.EXPECT().GetPayment(gomock.Any(), "pay-1").Return(providerPayment("pay-1", e.ID, interfaces.ProviderStatusRefunded), nil).Times(2)

		for i := 0; i < 2; i++ {
			if _, err := f.payment.HandleWebhook(ctx, WebhookNotification{Type: "payment", DataID: "pay-1"}, entities.RequestMeta{}); err != nil {
				t.Fatalf("webhook %d: %v", i, err)
			}
		}
		if n := countEvents(f.eventTypes(t, e.ID), entities.EventRefundRequested); n != 1 {
			t.Fatalf("expected one refund_requested event, got %d", n)
		}
	})

	t.Run("nothing to refund before payment", func(t *testing.T) {
		f := newFixture(t)
		e := f.consented(t)
		_, err := f.payment.Refund(context.Background(), admin, e.ID, "x", reqMeta)
		if !errors.Is(err, domainerr.ErrStateTransition) {
			t.Fatalf("expected state transition error, got %v", err)
		}
	})

	t.Run("cancel after payment is refused", func(t *testing.T) {
		f := newFixture(t)
		e := completed(t, f)
		_, err := f.estimation.Cancel(context.Background(), client, e.ID, "changed my mind", reqMeta)
		if !errors.Is(err, domainerr.ErrStateTransition) {
			t.Fatalf("expected state transition error, got %v", err)
		}
	})
}

func TestPaymentUseCase_RuleActivationKeepsStoredResults(t *testing.T) {
	f := newFixture(t)
	e := f.consented(t)
	ctx := context.Background()
	f.gateway.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).Return(providerPayment("pay-1", e.ID, interfaces.ProviderStatusApproved), nil)
	f.expectReport(e.ID)
	before, err := f.payment.Initiate(ctx, client, e.ID, InitiatePaymentInput{}, reqMeta)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}

	rs := testRuleSet()
	rs.LocalityPrices["39300"] = dec("3000")
	if _, err := f.rules.Activate(ctx, admin, rs, "price update"); err != nil {
		t.Fatalf("activate: %v", err)
	}

	after, _ := f.estimation.Get(ctx, client, e.ID)
	if after.Result.Median != before.Result.Median || after.RuleVersionNumber != 1 {
		t.Fatalf("stored result changed: %d -> %d (v%d)", before.Result.Median, after.Result.Median, after.RuleVersionNumber)
	}
}

type emptyRules struct{}

func (emptyRules) GetActive(context.Context) (entities.RuleVersion, error) {
	return entities.RuleVersion{}, nil
}
func (emptyRules) GetByNumber(context.Context, int) (entities.RuleVersion, error) {
	return entities.RuleVersion{}, nil
}
func (emptyRules) List(context.Context) ([]entities.RuleVersion, error) { return nil, nil }
func (emptyRules) Activate(context.Context, entities.RuleSet, string, string, time.Time) (entities.RuleVersion, error) {
	return entities.RuleVersion{}, errors.New("read only")
}
