package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"LISTEN_ADDR", "STORAGE_DRIVER", "REPORT_URL_TTL", "ESTIMATION_PRICE", "ESTIMATION_CURRENCY", "PAYMENT_GATEWAY_MOCK", "MERCADOPAGO_MOCK", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, StorageDynamoDB, cfg.StorageDriver)
	assert.Equal(t, 24*time.Hour, cfg.ReportURLTTL)
	assert.Equal(t, "49", cfg.Price.String())
	assert.Equal(t, "EUR", cfg.Currency)
	assert.False(t, cfg.PaymentGatewayMock)
	assert.Empty(t, cfg.CORSAllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/estimations")
	t.Setenv("REPORT_URL_TTL", "2h")
	t.Setenv("ESTIMATION_PRICE", "59.90")
	t.Setenv("ESTIMATION_CURRENCY", "eur")
	t.Setenv("PAYMENT_GATEWAY_MOCK", "yes")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://juragites.fr, https://portal.juragites.fr,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoragePostgres, cfg.StorageDriver)
	assert.Equal(t, 2*time.Hour, cfg.ReportURLTTL)
	assert.Equal(t, "59.9", cfg.Price.String())
	assert.Equal(t, "EUR", cfg.Currency)
	assert.True(t, cfg.PaymentGatewayMock)
	assert.Equal(t, []string{"https://juragites.fr", "https://portal.juragites.fr"}, cfg.CORSAllowedOrigins)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"bad ttl":          {"REPORT_URL_TTL": "a day"},
		"negative ttl":     {"REPORT_URL_TTL": "-1h"},
		"bad price":        {"ESTIMATION_PRICE": "forty"},
		"zero price":       {"ESTIMATION_PRICE": "0"},
		"unknown driver":   {"STORAGE_DRIVER": "sqlite"},
		"postgres, no url": {"STORAGE_DRIVER": "postgres", "DATABASE_URL": ""},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("STORAGE_DRIVER", "")
			t.Setenv("REPORT_URL_TTL", "")
			t.Setenv("ESTIMATION_PRICE", "")
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
