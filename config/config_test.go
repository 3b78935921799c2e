package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("MQ_BACKEND", "")
	t.Setenv("STORAGE_BACKEND", "")

	cfg := LoadConfig()

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "", cfg.MQ.Backend)
	assert.Equal(t, "", cfg.Storage.Backend)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_SSL", "true")
	t.Setenv("PASSWORD_HASH_COST", "12")
	t.Setenv("MQ_BACKEND", " RabbitMQ ")
	t.Setenv("MQ_USER_EVENTS_CHANNEL", "accounts")
	t.Setenv("STORAGE_BACKEND", "GCS")
	t.Setenv("GCS_BUCKET", "exports")

	cfg := LoadConfig()

	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.True(t, cfg.Database.UseSSL)
	assert.Equal(t, 12, cfg.PasswordHashCost)
	assert.Equal(t, MQBackendRabbitMQ, cfg.MQ.Backend)
	assert.Equal(t, "accounts", cfg.MQ.UserEventsChannel)
	assert.Equal(t, StorageBackendGCS, cfg.Storage.Backend)
	assert.Equal(t, "exports", cfg.Storage.GCS.Bucket)
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("ACCOUNTD_FLAG_TRUE", "1")
	t.Setenv("ACCOUNTD_FLAG_BAD", "maybe")

	assert.True(t, getEnvBool("ACCOUNTD_FLAG_TRUE", false))
	assert.True(t, getEnvBool("ACCOUNTD_FLAG_BAD", true))
	assert.False(t, getEnvBool("ACCOUNTD_FLAG_UNSET", false))
}
