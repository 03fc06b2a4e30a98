// Package config loads service settings from the environment (and optionally a
// file named by CONFIG_FILE) and refuses to continue when required keys are absent.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type Config struct {
	Port     string
	LogLevel string

	Store StoreConfig

	RabbitMQURL  string
	EventsQueue  string
	OTLPEndpoint string

	MetricsEnabled bool
	MetricsToken   string

	AllowedOrigins  []string
	TrustedProxy    bool
	WriteRateLimit  int
	WriteRateWindow time.Duration
	ShutdownTimeout time.Duration
}

type StoreConfig struct {
	Driver string

	CosmosURI       string
	CosmosKey       string
	CosmosAccount   string
	CosmosDatabase  string
	CosmosContainer string

	DatabaseURL string
	SQLitePath  string
}

// MissingError lists every required key that had no value.
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return "missing required configuration: " + strings.Join(e.Keys, ", ")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_DRIVER", DriverMongo)
	v.SetDefault("COSMOS_DB_CONTAINER", "Products")
	v.SetDefault("SQLITE_PATH", "catalog.db")
	v.SetDefault("EVENTS_QUEUE", "catalog_events")
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("TRUSTED_PROXY", false)
	v.SetDefault("WRITE_RATE_LIMIT", 60)
	v.SetDefault("WRITE_RATE_WINDOW", "1m")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
}

func Load() (*Config, error) {
	return load(viper.New())
}

// EventsConfig is the subset used by processes that only talk to the event
// queue; it needs no store settings.
type EventsConfig struct {
	LogLevel    string
	RabbitMQURL string
	EventsQueue string
}

func LoadEvents() (*EventsConfig, error) {
	v := viper.New()
	if err := prepare(v); err != nil {
		return nil, err
	}

	cfg := &EventsConfig{
		LogLevel:    v.GetString("LOG_LEVEL"),
		RabbitMQURL: v.GetString("RABBITMQ_URL"),
		EventsQueue: v.GetString("EVENTS_QUEUE"),
	}
	if strings.TrimSpace(cfg.RabbitMQURL) == "" {
		return nil, &MissingError{Keys: []string{"RABBITMQ_URL"}}
	}
	return cfg, nil
}

func prepare(v *viper.Viper) error {
	setDefaults(v)
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", file, err)
		}
	}
	return nil
}

func load(v *viper.Viper) (*Config, error) {
	if err := prepare(v); err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:     v.GetString("PORT"),
		LogLevel: v.GetString("LOG_LEVEL"),
		Store: StoreConfig{
			Driver:          strings.ToLower(v.GetString("STORE_DRIVER")),
			CosmosURI:       v.GetString("COSMOS_DB_URI"),
			CosmosKey:       v.GetString("COSMOS_DB_KEY"),
			CosmosAccount:   v.GetString("COSMOS_DB_ACCOUNT"),
			CosmosDatabase:  v.GetString("COSMOS_DB_NAME"),
			CosmosContainer: v.GetString("COSMOS_DB_CONTAINER"),
			DatabaseURL:     v.GetString("DATABASE_URL"),
			SQLitePath:      v.GetString("SQLITE_PATH"),
		},
		RabbitMQURL:     v.GetString("RABBITMQ_URL"),
		EventsQueue:     v.GetString("EVENTS_QUEUE"),
		OTLPEndpoint:    v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		MetricsEnabled:  v.GetBool("METRICS_ENABLED"),
		MetricsToken:    v.GetString("METRICS_TOKEN"),
		AllowedOrigins:  splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		TrustedProxy:    v.GetBool("TRUSTED_PROXY"),
		WriteRateLimit:  v.GetInt("WRITE_RATE_LIMIT"),
		WriteRateWindow: v.GetDuration("WRITE_RATE_WINDOW"),
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports all missing keys at once, so an operator can fix the
// deployment in one pass.
func (c *Config) Validate() error {
	var missing []string
	need := func(key, val string) {
		if strings.TrimSpace(val) == "" {
			missing = append(missing, key)
		}
	}

	need("PORT", c.Port)

	switch c.Store.Driver {
	case DriverMongo:
		need("COSMOS_DB_URI", c.Store.CosmosURI)
		need("COSMOS_DB_KEY", c.Store.CosmosKey)
		need("COSMOS_DB_NAME", c.Store.CosmosDatabase)
	case DriverPostgres:
		need("DATABASE_URL", c.Store.DatabaseURL)
	case DriverSQLite:
		need("SQLITE_PATH", c.Store.SQLitePath)
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}

	if len(missing) > 0 {
		return &MissingError{Keys: missing}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
