package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSV(t *testing.T) {
	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a:9092", "b:9092"}, CSV(" a:9092, ,b:9092 "))
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVICE_NAME", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("KAFKA_TOPIC", "")
	t.Setenv("ES_INDEX", "")

	cfg := Load()
	assert.Equal(t, "store", cfg.ServiceName)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, "order_events", cfg.KafkaTopic)
	assert.Equal(t, "products", cfg.ESIndex)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "SQLite")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg := Load()
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []byte("s3cret"), cfg.JWTAccessSecret)
}

func TestEnvHelpers_FallBackOnGarbage(t *testing.T) {
	t.Setenv("X_INT", "nope")
	t.Setenv("X_DUR", "-5s")
	t.Setenv("X_DEC", "1.2.3")

	assert.Equal(t, 7, EnvIntDefault("X_INT", 7))
	assert.Equal(t, 3*time.Second, EnvDurationDefault("X_DUR", 3*time.Second))
	assert.True(t, EnvDecimalDefault("X_DEC", decimal.NewFromInt(2)).Equal(decimal.NewFromInt(2)))
}

func TestEnvHelpers_Parse(t *testing.T) {
	t.Setenv("X_DUR", "1500ms")
	t.Setenv("X_DEC", "0.18")

	require.Equal(t, 1500*time.Millisecond, EnvDurationDefault("X_DUR", time.Second))
	require.Equal(t, "0.18", EnvDecimalDefault("X_DEC", decimal.Zero).String())
}
