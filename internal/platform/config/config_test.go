package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "practiceops.audit", cfg.AuditTopic)
	assert.Equal(t, float64(70), cfg.Rules.KPIPassingThreshold)
	assert.Equal(t, 3, cfg.Rules.LatenessCount)
	assert.Equal(t, 3, cfg.Rules.OverdueTaskCount)
}

func TestOverridesFromEnvironment(t *testing.T) {
	t.Setenv("PRACTICEOPS_ADDR", ":9090")
	t.Setenv("KPI_PASSING_THRESHOLD", "80")
	t.Setenv("LATENESS_WARNING_COUNT", "5")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg := FromEnv()
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, float64(80), cfg.Rules.KPIPassingThreshold)
	assert.Equal(t, 5, cfg.Rules.LatenessCount)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
}

func TestMalformedNumbersFallBack(t *testing.T) {
	t.Setenv("KPI_PASSING_THRESHOLD", "most of them")
	t.Setenv("LATENESS_WARNING_COUNT", "")

	cfg := FromEnv()
	assert.Equal(t, float64(70), cfg.Rules.KPIPassingThreshold)
	assert.Equal(t, 3, cfg.Rules.LatenessCount)
}

func TestKafkaBrokerListIsCleaned(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " broker-1:9092 ,broker-2:9092, broker-1:9092 ,,")

	cfg := FromEnv()
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
}
