package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"juragites_estimation/internal/adapter/persistence/memory"
	"juragites_estimation/internal/domain/entities"
	"juragites_estimation/internal/domain/valuation"
	"juragites_estimation/internal/usecase/interfaces"
	mock_interfaces "juragites_estimation/internal/usecase/interfaces/mocks"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"
)

var (
	client      = entities.Caller{ClientID: "client-1", Role: entities.RoleClient}
	otherClient = entities.Caller{ClientID: "client-2", Role: entities.RoleClient}
	admin       = entities.Caller{ClientID: "ops-1", Role: entities.RoleAdmin}
	reqMeta     = entities.RequestMeta{IPAddress: "203.0.113.7", UserAgent: "test-agent"}
	price       = decimal.RequireFromString("49.00")
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testRuleSet() entities.RuleSet {
	conf := entities.DefaultConfidenceRules()
	return entities.RuleSet{
		DefaultPricePerM2: dec("1000"),
		LocalityPrices:    map[string]decimal.Decimal{"39300": dec("1500")},
		TypeCoefficients: map[entities.PropertyType]decimal.Decimal{
			entities.PropertyTypeHouse:     dec("1.0"),
			entities.PropertyTypeApartment: dec("0.9"),
		},
		ConditionCoefficients: map[entities.PropertyCondition]decimal.Decimal{
			entities.ConditionToRenovate: dec("0.8"),
			entities.ConditionFair:       dec("0.9"),
			entities.ConditionGood:       dec("1.0"),
			entities.ConditionExcellent:  dec("1.1"),
		},
		TerrainSteps: entities.DefaultTerrainSteps(),
		Amenities: map[string]entities.AmenityAdjustment{
			"pool": {Label: "Piscine", Kind: entities.AmenityKindFixed, Value: dec("30000")},
		},
		Confidence: &conf,
	}
}

// testAttrs prices at 225000 with the v1 rule set.
func testAttrs() entities.PropertyAttributes {
	year := 1985
	return entities.PropertyAttributes{
		PropertyType:     entities.PropertyTypeHouse,
		HabitableArea:    150,
		LocalityID:       "39300",
		PostalCode:       "39300",
		Condition:        entities.ConditionGood,
		ConstructionYear: &year,
	}
}

type fixture struct {
	ctrl         *gomock.Controller
	estimations  *memory.EstimationRepository
	events       *memory.AuditEventRepository
	transactions *memory.PaymentTransactionRepository
	ruleRepo     *memory.RuleVersionRepository
	profiles     *memory.ClientProfileRepository
	gateway      *mock_interfaces.MockIPaymentGateway
	reports      *mock_interfaces.MockIReportGenerator
	alerter      *mock_interfaces.MockIAlerter
	ledger       *AuditLedger
	rules        *RuleVersionUseCase
	estimation   *EstimationUseCase
	payment      *PaymentUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		ctrl:         ctrl,
		estimations:  memory.NewEstimationRepository(),
		events:       memory.NewAuditEventRepository(),
		transactions: memory.NewPaymentTransactionRepository(),
		ruleRepo:     memory.NewRuleVersionRepository(),
		profiles:     memory.NewClientProfileRepository(),
		gateway:      mock_interfaces.NewMockIPaymentGateway(ctrl),
		reports:      mock_interfaces.NewMockIReportGenerator(ctrl),
		alerter:      mock_interfaces.NewMockIAlerter(ctrl),
	}
	f.gateway.EXPECT().Name().Return("mercadopago").AnyTimes()
	f.profiles.Put(entities.ClientProfile{ID: client.ClientID, Email: "client@example.com", FullName: "Jeanne Client"})

	f.rules = NewRuleVersionUseCase(f.ruleRepo, f.alerter)
	f.wire(f.events, f.transactions)

	if _, _, err := f.rules.Seed(context.Background(), testRuleSet(), "initial pricing"); err != nil {
		t.Fatalf("seed rules: %v", err)
	}
	return f
}

// wire builds the ledger and usecases over the given event and transaction stores.
// Reads through f.events and f.transactions still see every write.
func (f *fixture) wire(events interfaces.IAuditEventRepository, transactions interfaces.IPaymentTransactionRepository) {
	f.ledger = NewAuditLedger(events, f.estimations, transactions, f.profiles, f.alerter)
	f.estimation = NewEstimationUseCase(f.estimations, f.ledger, f.reports)
	f.payment = NewPaymentUseCase(PaymentDeps{
		Estimations:  f.estimations,
		Transactions: transactions,
		Profiles:     f.profiles,
		Gateway:      f.gateway,
		Reports:      f.reports,
		Rules:        f.rules,
		Ledger:       f.ledger,
		Engine:       valuation.NewEngine(),
		Alerter:      f.alerter,
	}, PaymentSettings{Amount: price, Currency: "EUR"})
	f.payment.retry = retryPolicy{attempts: 2, base: time.Millisecond}
}

// failingEvents fails the next keyed append of each listed event type.
type failingEvents struct {
	interfaces.IAuditEventRepository
	mu    sync.Mutex
	fails map[entities.EventType]int
}

func (r *failingEvents) AppendOnce(ctx context.Context, ev entities.AuditEvent, key string) (bool, error) {
	r.mu.Lock()
	if r.fails[ev.Type] > 0 {
		r.fails[ev.Type]--
		r.mu.Unlock()
		return false, errors.New("dynamodb throttled")
	}
	r.mu.Unlock()
	return r.IAuditEventRepository.AppendOnce(ctx, ev, key)
}

// failingTransactions fails the next n creates.
type failingTransactions struct {
	interfaces.IPaymentTransactionRepository
	mu sync.Mutex
	n  int
}

func (r *failingTransactions) Create(ctx context.Context, tx entities.PaymentTransaction) (entities.PaymentTransaction, bool, error) {
	r.mu.Lock()
	if r.n > 0 {
		r.n--
		r.mu.Unlock()
		return entities.PaymentTransaction{}, false, errors.New("dynamodb throttled")
	}
	r.mu.Unlock()
	return r.IPaymentTransactionRepository.Create(ctx, tx)
}

// consented walks a new estimation up to consent_given.
func (f *fixture) consented(t *testing.T) entities.Estimation {
	t.Helper()
	ctx := context.Background()
	e, err := f.estimation.Create(ctx, client, CreateEstimationInput{Reason: entities.ReasonSale, Attributes: testAttrs()}, reqMeta)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.estimation.Submit(ctx, client, e.ID, reqMeta); err != nil {
		t.Fatalf("submit: %v", err)
	}
	e, err = f.estimation.AcceptConsent(ctx, client, e.ID, ConsentInput{Accepted: true}, reqMeta)
	if err != nil {
		t.Fatalf("consent: %v", err)
	}
	return e
}

// pending initiates a payment the provider leaves pending.
func (f *fixture) pending(t *testing.T, paymentID string) entities.Estimation {
	t.Helper()
	e := f.consented(t)
	f.gateway.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).Return(providerPayment(paymentID, e.ID, interfaces.ProviderStatusPending), nil)
	e, err := f.payment.Initiate(context.Background(), client, e.ID, InitiatePaymentInput{Payload: []byte(`{"payment_method_id":"pix"}`)}, reqMeta)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	return e
}

func (f *fixture) expectReport(e string) {
	f.reports.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any()).Return(interfaces.GeneratedReport{
		Locator:   "reports/" + e + ".pdf",
		FileName:  e + ".pdf",
		SizeBytes: 512,
	}, nil)
}

func (f *fixture) eventTypes(t *testing.T, id string) []entities.EventType {
	t.Helper()
	evs, err := f.events.ListByEstimationID(context.Background(), id)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	out := make([]entities.EventType, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.Type)
	}
	return out
}

func countEvents(types []entities.EventType, want entities.EventType) int {
	n := 0
	for _, t := range types {
		if t == want {
			n++
		}
	}
	return n
}

func providerPayment(id, estimationID string, status interfaces.ProviderStatus) interfaces.ProviderPayment {
	return interfaces.ProviderPayment{
		ID:                id,
		Status:            status,
		RawStatus:         string(status),
		ExternalReference: estimationID,
		Amount:            price,
		Currency:          "EUR",
		Raw:               []byte(`{"id":"` + id + `","status":"` + string(status) + `"}`),
	}
}
