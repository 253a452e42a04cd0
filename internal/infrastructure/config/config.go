package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StorageDynamoDB = "dynamodb"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

var ErrMissingDatabaseURL = errors.New("DATABASE_URL is required when STORAGE_DRIVER=postgres")

type Tables struct {
	Estimations         string
	AuditEvents         string
	PaymentTransactions string
	RuleVersions        string
	Profiles            string
}

type Config struct {
	ListenAddr    string
	StorageDriver string
	DatabaseURL   string

	AWSRegion        string
	DynamoDBEndpoint string
	Tables           Tables

	ReportsBucket string
	S3Endpoint    string
	ReportURLTTL  time.Duration

	Price    decimal.Decimal
	Currency string

	MercadoPagoAccessToken   string
	MercadoPagoWebhookSecret string
	PaymentGatewayMock       bool

	JWTSecret          string
	CORSAllowedOrigins []string
}

// Load reads the configuration from the environment. A .env file is loaded by
// the godotenv autoload import in cmd/api before this runs.
func Load() (Config, error) {
	cfg := Config{
		ListenAddr:       getenvDefault("LISTEN_ADDR", ":8080"),
		StorageDriver:    strings.ToLower(getenvDefault("STORAGE_DRIVER", StorageDynamoDB)),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		AWSRegion:        getenvDefault("AWS_REGION", "us-east-1"),
		DynamoDBEndpoint: os.Getenv("DYNAMODB_ENDPOINT"),
		Tables: Tables{
			Estimations:         os.Getenv("ESTIMATIONS_TABLE"),
			AuditEvents:         os.Getenv("AUDIT_EVENTS_TABLE"),
			PaymentTransactions: os.Getenv("PAYMENT_TRANSACTIONS_TABLE"),
			RuleVersions:        os.Getenv("RULE_VERSIONS_TABLE"),
			Profiles:            os.Getenv("PROFILES_TABLE"),
		},
		ReportsBucket:            os.Getenv("REPORTS_BUCKET"),
		S3Endpoint:               os.Getenv("S3_ENDPOINT"),
		Currency:                 strings.ToUpper(getenvDefault("ESTIMATION_CURRENCY", "EUR")),
		MercadoPagoAccessToken:   os.Getenv("MERCADOPAGO_ACCESS_TOKEN"),
		MercadoPagoWebhookSecret: os.Getenv("MERCADOPAGO_WEBHOOK_SECRET"),
		PaymentGatewayMock:       isTruthy(os.Getenv("PAYMENT_GATEWAY_MOCK")) || isTruthy(os.Getenv("MERCADOPAGO_MOCK")),
		JWTSecret:                os.Getenv("AUTH_JWT_SECRET"),
		CORSAllowedOrigins:       splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
	}

	switch cfg.StorageDriver {
	case StorageDynamoDB, StorageMemory:
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, ErrMissingDatabaseURL
		}
	default:
		return Config{}, fmt.Errorf("STORAGE_DRIVER: unknown driver %q", cfg.StorageDriver)
	}

	ttl, err := time.ParseDuration(getenvDefault("REPORT_URL_TTL", "24h"))
	if err != nil {
		return Config{}, fmt.Errorf("REPORT_URL_TTL: %w", err)
	}
	if ttl <= 0 {
		return Config{}, fmt.Errorf("REPORT_URL_TTL: must be positive, got %s", ttl)
	}
	cfg.ReportURLTTL = ttl

	price, err := decimal.NewFromString(getenvDefault("ESTIMATION_PRICE", "49.00"))
	if err != nil {
		return Config{}, fmt.Errorf("ESTIMATION_PRICE: %w", err)
	}
	if !price.IsPositive() {
		return Config{}, fmt.Errorf("ESTIMATION_PRICE: must be positive, got %s", price)
	}
	cfg.Price = price.Round(2)

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on", "mock":
		return true
	}
	return false
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
