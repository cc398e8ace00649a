package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Sentinel Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Device   DeviceConfig   `yaml:"device"`
	Storage  StorageConfig  `yaml:"storage"`
	API      APIConfig      `yaml:"api"`
	Session  SessionConfig  `yaml:"session"`
	Lockout  LockoutConfig  `yaml:"lockout"`
	Sensor   SensorConfig   `yaml:"sensor"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Audit    AuditConfig    `yaml:"audit"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DeviceConfig contains device identity information.
type DeviceConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// StorageConfig contains settings for the non-volatile credential/config region.
type StorageConfig struct {
	// Path is the filesystem path backing the persistent region.
	Path string `yaml:"path"`
}

// APIConfig contains HTTP portal server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings, in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// SessionConfig contains portal session settings.
type SessionConfig struct {
	// TimeoutSeconds is the sliding-expiration window for the session token.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// LockoutConfig contains brute-force lockout settings.
type LockoutConfig struct {
	// Threshold is the number of consecutive failures that triggers a lockout.
	Threshold int `yaml:"threshold"`

	// CooldownSeconds is how long a lockout lasts after the final failure.
	CooldownSeconds int `yaml:"cooldown_seconds"`
}

// SensorConfig contains input-polling and alarm-output settings.
type SensorConfig struct {
	// PollIntervalMs is the sampling period for discrete inputs.
	PollIntervalMs int `yaml:"poll_interval_ms"`

	// PulseSeconds is how long the alarm output stays high after a trigger.
	PulseSeconds int `yaml:"pulse_seconds"`

	// StatusLogSeconds is how often the sensor task logs session validity.
	StatusLogSeconds int `yaml:"status_log_seconds"`

	// Inputs is the number of discrete inputs sampled each iteration.
	Inputs int `yaml:"inputs"`

	// Modbus configures the I/O module backing the inputs and siren coil.
	// When disabled, the sensor task runs against inert in-memory I/O.
	Modbus ModbusConfig `yaml:"modbus"`
}

// ModbusConfig contains Modbus TCP I/O module settings.
type ModbusConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	UnitID       int    `yaml:"unit_id"`
	TimeoutMs    int    `yaml:"timeout_ms"`
	InputAddress int    `yaml:"input_address"`
	CoilAddress  int    `yaml:"coil_address"`
}

// MQTTConfig contains MQTT broker connection settings for alarm notification.
type MQTTConfig struct {
	Enabled     bool             `yaml:"enabled"`
	Broker      MQTTBrokerConfig `yaml:"broker"`
	Auth        MQTTAuthConfig   `yaml:"auth"`
	QoS         int              `yaml:"qos"`
	TopicPrefix string           `yaml:"topic_prefix"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// InfluxDBConfig contains the optional diagnostics sink settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// AuditConfig contains the optional authentication audit trail settings.
type AuditConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Database DatabaseConfig `yaml:"database"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: SENTINEL_SECTION_KEY
// For example: SENTINEL_STORAGE_PATH, SENTINEL_API_PORT
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			ID:   "sentinel-001",
			Name: "Sentinel",
		},
		Storage: StorageConfig{
			Path: "./data/sentinel.nvm",
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Session: SessionConfig{
			TimeoutSeconds: 300,
		},
		Lockout: LockoutConfig{
			Threshold:       5,
			CooldownSeconds: 60,
		},
		Sensor: SensorConfig{
			PollIntervalMs:   100,
			PulseSeconds:     5,
			StatusLogSeconds: 60,
			Inputs:           4,
			Modbus: ModbusConfig{
				Host:      "localhost",
				Port:      502,
				UnitID:    1,
				TimeoutMs: 1000,
			},
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "sentinel-core",
			},
			QoS:         1,
			TopicPrefix: "sentinel",
		},
		Audit: AuditConfig{
			Database: DatabaseConfig{
				Path:        "./data/sentinel.db",
				WALMode:     true,
				BusyTimeout: 5,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: SENTINEL_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Storage
	if v := os.Getenv("SENTINEL_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}

	// API
	if v := os.Getenv("SENTINEL_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("SENTINEL_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// MQTT
	if v := os.Getenv("SENTINEL_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("SENTINEL_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("SENTINEL_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("SENTINEL_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Audit
	if v := os.Getenv("SENTINEL_AUDIT_DATABASE_PATH"); v != "" {
		cfg.Audit.Database.Path = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Device.ID == "" {
		errs = append(errs, "device.id is required")
	}

	if c.Storage.Path == "" {
		errs = append(errs, "storage.path is required")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.Session.TimeoutSeconds < 1 {
		errs = append(errs, "session.timeout_seconds must be positive")
	}

	if c.Lockout.Threshold < 1 {
		errs = append(errs, "lockout.threshold must be positive")
	}
	if c.Lockout.CooldownSeconds < 1 {
		errs = append(errs, "lockout.cooldown_seconds must be positive")
	}

	if c.Sensor.PollIntervalMs < 1 {
		errs = append(errs, "sensor.poll_interval_ms must be positive")
	}
	if c.Sensor.PulseSeconds < 1 {
		errs = append(errs, "sensor.pulse_seconds must be positive")
	}
	if c.Sensor.Inputs < 1 {
		errs = append(errs, "sensor.inputs must be positive")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.Audit.Enabled && c.Audit.Database.Path == "" {
		errs = append(errs, "audit.database.path is required when audit is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// SessionTimeout returns the session sliding-expiration window as a Duration.
func (c *Config) SessionTimeout() time.Duration {
	return time.Duration(c.Session.TimeoutSeconds) * time.Second
}

// LockoutCooldown returns the lockout duration as a Duration.
func (c *Config) LockoutCooldown() time.Duration {
	return time.Duration(c.Lockout.CooldownSeconds) * time.Second
}

// PollInterval returns the sensor sampling period as a Duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Sensor.PollIntervalMs) * time.Millisecond
}

// PulseDuration returns the alarm pulse length as a Duration.
func (c *Config) PulseDuration() time.Duration {
	return time.Duration(c.Sensor.PulseSeconds) * time.Second
}

// StatusLogInterval returns the sensor task status-log period as a Duration.
func (c *Config) StatusLogInterval() time.Duration {
	return time.Duration(c.Sensor.StatusLogSeconds) * time.Second
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
