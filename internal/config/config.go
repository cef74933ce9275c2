package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	pkgconfig "github.com/tesotunes/storefront/pkg/config"
)

type Config struct {
	pkgconfig.Config

	TaxRate  decimal.Decimal
	Currency string

	StripeAPIKey   string
	PaymentTimeout time.Duration

	CartTTL time.Duration

	NotifyExchange string

	OutboxInterval time.Duration
	OutboxBatch    int
}

func LoadConfig() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env file not found: %v. Using system environment variables", err)
	}

	return &Config{
		Config: pkgconfig.Load(),

		TaxRate:  pkgconfig.EnvDecimalDefault("TAX_RATE", decimal.Zero),
		Currency: pkgconfig.EnvDefault("CURRENCY", "UGX"),

		StripeAPIKey:   os.Getenv("STRIPE_API_KEY"),
		PaymentTimeout: pkgconfig.EnvDurationDefault("PAYMENT_TIMEOUT", 10*time.Second),

		CartTTL: pkgconfig.EnvDurationDefault("CART_TTL", 72*time.Hour),

		NotifyExchange: pkgconfig.EnvDefault("NOTIFY_EXCHANGE", "customer_notifications"),

		OutboxInterval: pkgconfig.EnvDurationDefault("OUTBOX_INTERVAL", 2*time.Second),
		OutboxBatch:    pkgconfig.EnvIntDefault("OUTBOX_BATCH", 100),
	}
}

// Validate stops the process on settings the service cannot start without.
func (c *Config) Validate() {
	pkgconfig.MustNonEmpty(c.DatabaseURL, "DATABASE_URL")
	pkgconfig.MustNonEmptyBytes(c.JWTAccessSecret, "JWT_SECRET")
	pkgconfig.MustOneOf(c.DatabaseDriver, "DATABASE_DRIVER", "postgres", "sqlite")
	if c.TaxRate.IsNegative() || c.TaxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		log.Fatalf("env TAX_RATE=%s must be in [0, 1)", c.TaxRate)
	}
}
