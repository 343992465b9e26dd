// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	HTTP          HTTPConfig              `mapstructure:"http"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Push          PushConfig              `mapstructure:"push"`
	Scan          ScanConfig              `mapstructure:"scan"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// HTTPConfig configures the manual trigger API.
type HTTPConfig struct {
	Address         string `mapstructure:"address"`
	TriggerToken    string `mapstructure:"trigger_token"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	Plaintext      bool   `mapstructure:"plaintext"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

// DatabaseConfig selects the document store backend. Driver is one of
// "postgres", "firestore" or "memory".
type DatabaseConfig struct {
	Driver    string          `mapstructure:"driver"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Firestore FirestoreConfig `mapstructure:"firestore"`
	Redis     RedisConfig     `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type FirestoreConfig struct {
	ProjectID       string `mapstructure:"project_id"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TokenTTL int    `mapstructure:"token_ttl"` // seconds, 0 disables the token cache
}

// PushConfig selects and tunes the push gateway. Provider is "fcm" or "sns".
type PushConfig struct {
	Provider       string `mapstructure:"provider"`
	MaxConcurrency int    `mapstructure:"max_concurrency"`
	SendTimeout    int    `mapstructure:"send_timeout"` // milliseconds
	FCM            struct {
		ProjectID       string `mapstructure:"project_id"`
		CredentialsFile string `mapstructure:"credentials_file"`
	} `mapstructure:"fcm"`
	SNS struct {
		Region   string `mapstructure:"region"`
		Endpoint string `mapstructure:"endpoint"`
	} `mapstructure:"sns"`
}

type ScanConfig struct {
	ExpiryThresholdDays int    `mapstructure:"expiry_threshold_days"`
	Timezone            string `mapstructure:"timezone"`
}

// Location resolves the scan time zone, falling back to UTC.
func (s ScanConfig) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// WorkerConfig holds the core settings applicable to every job worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type ObservabilityConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}
