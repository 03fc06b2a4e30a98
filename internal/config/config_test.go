package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PORT", "LOG_LEVEL", "STORE_DRIVER", "CONFIG_FILE",
	"COSMOS_DB_URI", "COSMOS_DB_KEY", "COSMOS_DB_ACCOUNT", "COSMOS_DB_NAME", "COSMOS_DB_CONTAINER",
	"DATABASE_URL", "SQLITE_PATH", "RABBITMQ_URL", "EVENTS_QUEUE", "OTEL_EXPORTER_OTLP_ENDPOINT",
	"METRICS_ENABLED", "METRICS_TOKEN", "CORS_ALLOWED_ORIGINS", "TRUSTED_PROXY",
	"WRITE_RATE_LIMIT", "WRITE_RATE_WINDOW", "SHUTDOWN_TIMEOUT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_MongoDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("COSMOS_DB_URI", "mongodb://acct.mongo.cosmos.azure.com:10255/?ssl=true")
	t.Setenv("COSMOS_DB_KEY", "secret")
	t.Setenv("COSMOS_DB_NAME", "catalog")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverMongo, cfg.Store.Driver)
	assert.Equal(t, "Products", cfg.Store.CosmosContainer)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, 60, cfg.WriteRateLimit)
	assert.Equal(t, time.Minute, cfg.WriteRateWindow)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.RabbitMQURL)
	assert.False(t, cfg.TrustedProxy)
}

func TestLoad_ReportsEveryMissingKey(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	require.Error(t, err)

	var missing *MissingError
	require.True(t, errors.As(err, &missing), "err=%v", err)
	assert.Equal(t, []string{"PORT", "COSMOS_DB_URI", "COSMOS_DB_KEY", "COSMOS_DB_NAME"}, missing.Keys)
	assert.Contains(t, err.Error(), "COSMOS_DB_KEY")
}

func TestLoad_DriverRequirements(t *testing.T) {
	cases := []struct {
		driver  string
		env     map[string]string
		missing []string
	}{
		{driver: "postgres", missing: []string{"DATABASE_URL"}},
		{driver: "postgres", env: map[string]string{"DATABASE_URL": "postgres://u:p@db/catalog"}},
		{driver: "sqlite"},
		{driver: "MEMORY"},
	}

	for _, tc := range cases {
		t.Run(tc.driver, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("PORT", "3000")
			t.Setenv("STORE_DRIVER", tc.driver)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tc.missing != nil {
				var missing *MissingError
				require.True(t, errors.As(err, &missing), "err=%v", err)
				assert.Equal(t, tc.missing, missing.Keys)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, cfg.Store.Driver)
		})
	}
}

func TestLoad_UnknownDriver(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "3000")
	t.Setenv("STORE_DRIVER", "cassandra")

	_, err := Load()
	require.Error(t, err)

	var missing *MissingError
	assert.False(t, errors.As(err, &missing))
	assert.Contains(t, err.Error(), "cassandra")
}

func TestLoad_ListsAndOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "3000")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example ,, https://b.example")
	t.Setenv("WRITE_RATE_LIMIT", "5")
	t.Setenv("WRITE_RATE_WINDOW", "30s")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("TRUSTED_PROXY", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 5, cfg.WriteRateLimit)
	assert.Equal(t, 30*time.Second, cfg.WriteRateWindow)
	assert.False(t, cfg.MetricsEnabled)
	assert.True(t, cfg.TrustedProxy)
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	body := "port: \"9090\"\nstore_driver: sqlite\nsqlite_path: /tmp/catalog.db\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "/tmp/catalog.db", cfg.Store.SQLitePath)
}

func TestLoad_ConfigFileMissing(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestLoadEvents(t *testing.T) {
	clearEnv(t)
	t.Setenv("RABBITMQ_URL", "amqp://guest:guest@mq:5672/")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadEvents()
	require.NoError(t, err)

	assert.Equal(t, "amqp://guest:guest@mq:5672/", cfg.RabbitMQURL)
	assert.Equal(t, "catalog_events", cfg.EventsQueue)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadEvents_NeedsOnlyBroker(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "cassandra")

	_, err := LoadEvents()

	var missing *MissingError
	require.True(t, errors.As(err, &missing), "err=%v", err)
	assert.Equal(t, []string{"RABBITMQ_URL"}, missing.Keys)
}
