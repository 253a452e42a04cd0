package routes

import (
	"context"
	"fmt"
	"log"
	"os"

	"juragites_estimation/internal/adapter/http/handlers"
	"juragites_estimation/internal/adapter/persistence/memory"
	"juragites_estimation/internal/adapter/persistence/postgres"
	"juragites_estimation/internal/adapter/persistence/repository"
	"juragites_estimation/internal/domain/entities"
	"juragites_estimation/internal/domain/valuation"
	"juragites_estimation/internal/infrastructure/config"
	"juragites_estimation/internal/infrastructure/database"
	"juragites_estimation/internal/infrastructure/opslog"
	"juragites_estimation/internal/infrastructure/payments"
	"juragites_estimation/internal/infrastructure/reports"
	"juragites_estimation/internal/usecase"
	"juragites_estimation/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
)

type stores struct {
	estimations  interfaces.IEstimationRepository
	events       interfaces.IAuditEventRepository
	transactions interfaces.IPaymentTransactionRepository
	rules        interfaces.IRuleVersionRepository
	profiles     interfaces.IClientProfileRepository
	close        func()
}

type app struct {
	handlers Handlers
	rules    usecase.IRuleVersionUseCase
	close    func()
}

func (a *app) seedRules(ctx context.Context) (entities.RuleVersion, error) {
	v, created, err := a.rules.Seed(ctx, valuation.StarterRuleSet(), valuation.StarterDescription)
	if err != nil {
		return entities.RuleVersion{}, err
	}
	if created {
		log.Printf("[rules][bootstrap] seeded starter rule set version=%d", v.VersionNumber)
	}
	return v, nil
}

// awsLazy resolves the AWS config once, only when a component needs it.
type awsLazy struct {
	settings database.AWSSettings
	cfg      *aws.Config
}

func (l *awsLazy) get(ctx context.Context) (aws.Config, error) {
	if l.cfg != nil {
		return *l.cfg, nil
	}
	cfg, err := database.NewAWSConfig(ctx, l.settings)
	if err != nil {
		return aws.Config{}, err
	}
	l.cfg = &cfg
	return cfg, nil
}

func build(ctx context.Context, cfg config.Config) (*app, error) {
	awsCfg := &awsLazy{settings: database.AWSSettings{
		Region:           cfg.AWSRegion,
		DynamoDBEndpoint: cfg.DynamoDBEndpoint,
		S3Endpoint:       cfg.S3Endpoint,
	}}

	st, err := openStores(ctx, cfg, awsCfg)
	if err != nil {
		return nil, err
	}
	rg, err := openReports(ctx, cfg, awsCfg)
	if err != nil {
		st.close()
		return nil, err
	}

	alerter := opslog.New(os.Stderr)

	var gateway interfaces.IPaymentGateway
	mpGateway, err := payments.NewMercadoPagoGateway(cfg.MercadoPagoAccessToken, cfg.PaymentGatewayMock)
	if err != nil {
		log.Printf("Mercado Pago gateway not configured: %v", err)
	} else {
		gateway = mpGateway
		if cfg.PaymentGatewayMock {
			log.Printf("[payment][bootstrap] mock gateway enabled")
		}
	}

	verifier := payments.NewWebhookVerifier(cfg.MercadoPagoWebhookSecret)
	if !verifier.Enabled() {
		log.Printf("[payment][bootstrap] MERCADOPAGO_WEBHOOK_SECRET not set, webhook signatures are not verified")
	}

	ledger := usecase.NewAuditLedger(st.events, st.estimations, st.transactions, st.profiles, alerter)
	rules := usecase.NewRuleVersionUseCase(st.rules, alerter)
	estimations := usecase.NewEstimationUseCase(st.estimations, ledger, rg)
	paymentUseCase := usecase.NewPaymentUseCase(usecase.PaymentDeps{
		Estimations:  st.estimations,
		Transactions: st.transactions,
		Profiles:     st.profiles,
		Gateway:      gateway,
		Reports:      rg,
		Rules:        rules,
		Ledger:       ledger,
		Engine:       valuation.NewEngine(),
		Alerter:      alerter,
	}, usecase.PaymentSettings{Amount: cfg.Price, Currency: cfg.Currency})

	return &app{
		handlers: Handlers{
			Estimations: handlers.NewEstimationHandler(estimations),
			Payments:    handlers.NewPaymentHandler(paymentUseCase),
			Webhooks:    handlers.NewWebhookHandler(paymentUseCase, verifier),
			Rules:       handlers.NewRuleVersionHandler(rules),
			Audit:       handlers.NewAuditHandler(ledger),
		},
		rules: rules,
		close: st.close,
	}, nil
}

func openStores(ctx context.Context, cfg config.Config, awsCfg *awsLazy) (stores, error) {
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		db, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return stores{}, fmt.Errorf("connect postgres: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return stores{}, fmt.Errorf("migrate postgres: %w", err)
		}
		log.Printf("[database][postgres] connected and migrated")
		return stores{
			estimations:  postgres.NewEstimationRepository(db),
			events:       postgres.NewAuditEventRepository(db),
			transactions: postgres.NewPaymentTransactionRepository(db),
			rules:        postgres.NewRuleVersionRepository(db),
			profiles:     postgres.NewClientProfileRepository(db),
			close:        db.Close,
		}, nil

	case config.StorageMemory:
		log.Printf("[database][memory] using in-memory storage, data is lost on restart")
		return memoryStores(), nil

	default:
		ac, err := awsCfg.get(ctx)
		if err != nil {
			return stores{}, fmt.Errorf("load aws config: %w", err)
		}
		ddb := database.ConnectDynamoDB(ac, awsCfg.settings)
		return stores{
			estimations:  repository.NewEstimationDynamoRepository(ddb, cfg.Tables.Estimations),
			events:       repository.NewAuditEventDynamoRepository(ddb, cfg.Tables.AuditEvents),
			transactions: repository.NewPaymentTransactionDynamoRepository(ddb, cfg.Tables.PaymentTransactions),
			rules:        repository.NewRuleVersionDynamoRepository(ddb, cfg.Tables.RuleVersions),
			profiles:     repository.NewClientProfileDynamoRepository(ddb, cfg.Tables.Profiles),
			close:        func() {},
		}, nil
	}
}

func memoryStores() stores {
	return stores{
		estimations:  memory.NewEstimationRepository(),
		events:       memory.NewAuditEventRepository(),
		transactions: memory.NewPaymentTransactionRepository(),
		rules:        memory.NewRuleVersionRepository(),
		profiles:     memory.NewClientProfileRepository(),
		close:        func() {},
	}
}

func openReports(ctx context.Context, cfg config.Config, awsCfg *awsLazy) (*reports.Generator, error) {
	if cfg.ReportsBucket == "" {
		log.Printf("[reports][bootstrap] REPORTS_BUCKET not set, reports are kept in memory")
		return reports.NewGenerator(reports.NewMemoryStore(), cfg.ReportURLTTL), nil
	}
	ac, err := awsCfg.get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	store := reports.NewS3Store(database.ConnectS3(ac, awsCfg.settings), cfg.ReportsBucket)
	return reports.NewGenerator(store, cfg.ReportURLTTL), nil
}
