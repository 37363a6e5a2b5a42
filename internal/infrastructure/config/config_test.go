package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"HTTP_PORT", "MODEL_PATH", "BAND_POLICY", "RISK_LOW_BOUND", "RISK_MED_BOUND", "AUDIT_ENABLED", "KAFKA_BROKERS", "OUTBOX_POLL_INTERVAL", "OUTBOX_BATCH_SIZE"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "qualitative", cfg.BandPolicy)
	assert.Equal(t, 0.20, cfg.LowBound)
	assert.Equal(t, 0.50, cfg.MedBound)
	assert.False(t, cfg.AuditEnabled)
	assert.False(t, cfg.KafkaEnabled())
	assert.Equal(t, "strokerisk.events", cfg.KafkaTopic)
	assert.Equal(t, time.Second, cfg.OutboxInterval)
	assert.Equal(t, 100, cfg.OutboxBatchSize)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("HTTP_PORT", "8181")
	t.Setenv("BAND_POLICY", "threshold")
	t.Setenv("RISK_LOW_BOUND", "0.1")
	t.Setenv("RISK_MED_BOUND", "0.3")
	t.Setenv("AUDIT_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("REDIS_DB", "3")

	cfg := Load()
	assert.Equal(t, ":8181", cfg.HTTPAddress())
	assert.Equal(t, "threshold", cfg.BandPolicy)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, 3, cfg.RedisDB)

	th, err := cfg.Thresholds()
	require.NoError(t, err)
	assert.Equal(t, 0.1, th.Low())
	assert.Equal(t, 0.3, th.Med())
}

func TestLoad_UnparsableValuesAreReported(t *testing.T) {
	t.Setenv("RISK_LOW_BOUND", "0,3")
	t.Setenv("RISK_MED_BOUND", "half")
	t.Setenv("REDIS_DB", "x")
	t.Setenv("AUDIT_ENABLED", "sometimes")
	t.Setenv("OUTBOX_POLL_INTERVAL", "5")

	cfg := Load()
	assert.Equal(t, 0.20, cfg.LowBound)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.False(t, cfg.AuditEnabled)

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{
		`RISK_LOW_BOUND: cannot parse "0,3"`,
		`RISK_MED_BOUND: cannot parse "half"`,
		`REDIS_DB: cannot parse "x"`,
		`AUDIT_ENABLED: cannot parse "sometimes"`,
		`OUTBOX_POLL_INTERVAL: cannot parse "5"`,
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "inverted thresholds", mutate: func(c *Config) { c.LowBound, c.MedBound = 0.30, 0.10 }, wantErr: "RISK_LOW_BOUND"},
		{name: "unknown policy", mutate: func(c *Config) { c.BandPolicy = "percentile" }, wantErr: "BAND_POLICY"},
		{name: "missing model", mutate: func(c *Config) { c.ModelPath = "" }, wantErr: "MODEL_PATH"},
		{name: "audit without database", mutate: func(c *Config) { c.AuditEnabled, c.DatabaseURL = true, "" }, wantErr: "DATABASE_URL"},
		{name: "half tls", mutate: func(c *Config) { c.GRPCTLSCert = "cert.pem" }, wantErr: "GRPC_TLS_KEY"},
		{name: "zero outbox batch", mutate: func(c *Config) { c.OutboxBatchSize = 0 }, wantErr: "OUTBOX_BATCH_SIZE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			cfg.ModelPath = "models/lda_tuned_model.json"
			cfg.BandPolicy = "qualitative"
			cfg.LowBound, cfg.MedBound = 0.20, 0.50
			cfg.GRPCTLSCert, cfg.GRPCTLSKey = "", ""
			cfg.DatabaseURL = "postgres://localhost/strokerisk"
			cfg.RateLimit = 10
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
