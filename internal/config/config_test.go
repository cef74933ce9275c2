package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("TAX_RATE", "")
	t.Setenv("CURRENCY", "")
	t.Setenv("PAYMENT_TIMEOUT", "")
	t.Setenv("OUTBOX_BATCH", "")

	cfg := LoadConfig()
	assert.True(t, cfg.TaxRate.IsZero())
	assert.Equal(t, "UGX", cfg.Currency)
	assert.Equal(t, 10*time.Second, cfg.PaymentTimeout)
	assert.Equal(t, 100, cfg.OutboxBatch)
	assert.Equal(t, "customer_notifications", cfg.NotifyExchange)
	assert.Equal(t, "store", cfg.ServiceName)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("TAX_RATE", "0.18")
	t.Setenv("PAYMENT_TIMEOUT", "3s")
	t.Setenv("CART_TTL", "1h")

	cfg := LoadConfig()
	assert.Equal(t, "0.18", cfg.TaxRate.String())
	assert.Equal(t, 3*time.Second, cfg.PaymentTimeout)
	assert.Equal(t, time.Hour, cfg.CartTTL)
}
