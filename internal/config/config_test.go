package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URI", "postgres://localhost/mmo")

	conf, err := loadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", conf.RunAddress)
	assert.Equal(t, BrokerNATS, conf.Broker)
	assert.Equal(t, "fulfillment", conf.ConsumerGroup)
	assert.Equal(t, uint(5), conf.BuyAccountWorkers)
	assert.Equal(t, 30*time.Second, conf.AckDeadline)
	assert.Equal(t, 5, conf.MaxDeliveries)
	assert.Equal(t, 72*time.Hour, conf.EscrowHold)
	assert.Equal(t, int64(200000), conf.SellerRegistrationFee)
	assert.Equal(t, []string{"localhost:9092"}, conf.KafkaBrokers)
}

func TestLoadConfigEnvOverridesFlags(t *testing.T) {
	t.Setenv("DATABASE_URI", "postgres://env/mmo")
	t.Setenv("BROKER", "Kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("ACK_DEADLINE", "45s")
	t.Setenv("SELLER_REGISTRATION_FEE", "150000")

	conf, err := loadConfig([]string{"-d", "postgres://flag/mmo", "-ack-deadline", "10s", "-intent-workers", "7"})
	require.NoError(t, err)

	assert.Equal(t, "postgres://env/mmo", conf.DatabaseDSN)
	assert.Equal(t, BrokerKafka, conf.Broker)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, conf.KafkaBrokers)
	assert.Equal(t, 45*time.Second, conf.AckDeadline)
	assert.Equal(t, int64(150000), conf.SellerRegistrationFee)
	// нет переменной окружения, берется флаг.
	assert.Equal(t, uint(7), conf.IntentWorkers)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{name: "no dsn"},
		{name: "unknown broker", env: map[string]string{"DATABASE_URI": "postgres://x", "BROKER": "rabbit"}},
		{name: "blank redis", env: map[string]string{"DATABASE_URI": "postgres://x"}, args: []string{"-b", "redis", "-redis-addr", ""}},
		{name: "bad flag", env: map[string]string{"DATABASE_URI": "postgres://x"}, args: []string{"-max-deliveries", "many"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URI", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := loadConfig(tt.args)
			require.Error(t, err)
		})
	}
}
