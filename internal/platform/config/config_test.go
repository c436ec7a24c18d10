package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("TESTSVC_DB_HOST", "db.internal")
	t.Setenv("TESTSVC_KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("TESTSVC_SERVICE_PORT", "9001")

	v, err := Load("TESTSVC")
	require.NoError(t, err)

	db := LoadDatabaseConfig(v, "DB_NAME")
	assert.Equal(t, "db.internal", db.Host)
	assert.Equal(t, "5432", db.Port)

	kafka := LoadKafkaConfig(v)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, kafka.Brokers)

	assert.Equal(t, ":9001", GetServicePort(v, "SERVICE_PORT"))
	assert.Equal(t, "development", GetAppEnv(v))
}

func TestGetServicePort_Default(t *testing.T) {
	v, err := Load("TESTSVC_EMPTY")
	require.NoError(t, err)
	assert.Equal(t, ":8080", GetServicePort(v, "SERVICE_PORT"))
}
