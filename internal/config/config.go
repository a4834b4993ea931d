// File: backend/services/integrity-service/internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/models"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Logging   LoggingConfig   `yaml:"logging"`
	Integrity IntegrityConfig `yaml:"integrity"`
}

type ServerConfig struct {
	MetricsPort     int           `yaml:"metrics_port" env:"METRICS_PORT" env-default:"9090"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"15s"`
}

type DatabaseConfig struct {
	Host           string        `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port           int           `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User           string        `yaml:"user" env:"DB_USER" env-default:"integrity"`
	Password       string        `yaml:"password" env:"DB_PASSWORD"`
	DBName         string        `yaml:"dbname" env:"DB_NAME" env-default:"integrity"`
	SSLMode        string        `yaml:"sslmode" env:"DB_SSLMODE" env-default:"disable"`
	MaxConns       int           `yaml:"max_conns" env-default:"10"`
	MinConns       int           `yaml:"min_conns" env-default:"2"`
	ConnMaxLife    time.Duration `yaml:"conn_max_life" env-default:"1h"`
	MigrationsPath string        `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`
	AutoMigrate    bool          `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE" env-default:"true"`
}

// DSN builds the pgx connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type KafkaProducerConfig struct {
	EscalationTopic string `yaml:"escalation_topic" env-default:"integrity.escalations"`
	IncidentTopic   string `yaml:"incident_topic" env-default:"integrity.incidents"`
}

type KafkaConfig struct {
	Enabled  bool                `yaml:"enabled" env:"KAFKA_ENABLED" env-default:"false"`
	Brokers  []string            `yaml:"brokers" env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	Producer KafkaProducerConfig `yaml:"producer"`
}

type LoggingConfig struct {
	Level       string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Environment string `yaml:"environment" env:"APP_ENV" env-default:"development"`
}

// IntegrityConfig collects every enforcement threshold. The numbers below are
// the canonical defaults; deployments tune them per tenant population, so
// nothing in the engine hard-codes them.
type IntegrityConfig struct {
	// Clock drift severity bands per device class.
	DriftBands map[models.DeviceClass]models.DriftBands `yaml:"drift_bands"`

	// Escalation detector.
	PermissionJumpThreshold int           `yaml:"permission_jump_threshold" env-default:"5"`
	ElevationMinGain        int           `yaml:"elevation_min_gain" env-default:"2"`
	TimingWindow            time.Duration `yaml:"timing_window" env-default:"1h"`
	// Disallowed direct transitions, e.g. "member->superadmin".
	DisallowedTransitions []string `yaml:"disallowed_transitions" env-default:"member->superadmin,guest->superadmin,guest->tenant_admin"`

	// Incident aggregator.
	IntakeFlushInterval time.Duration `yaml:"intake_flush_interval" env-default:"30s"`
	IntakeBufferSize    int           `yaml:"intake_buffer_size" env-default:"256"`
	// Acknowledgement SLA per severity; overdue incidents are surfaced by a
	// read-side query, never auto-escalated.
	AckSLACritical time.Duration `yaml:"ack_sla_critical" env-default:"1h"`
	AckSLAHigh     time.Duration `yaml:"ack_sla_high" env-default:"4h"`
	AckSLAMedium   time.Duration `yaml:"ack_sla_medium" env-default:"24h"`
	AckSLALow      time.Duration `yaml:"ack_sla_low" env-default:"72h"`
}

// DefaultDriftBands returns the band table used when the config file does not
// override it. Managed devices get the tightest bands; browsers the loosest.
func DefaultDriftBands() map[models.DeviceClass]models.DriftBands {
	return map[models.DeviceClass]models.DriftBands{
		models.DeviceManaged: {WarningSeconds: 10, CriticalSeconds: 60, BlockSeconds: 300},
		models.DeviceMobile:  {WarningSeconds: 30, CriticalSeconds: 180, BlockSeconds: 600},
		models.DeviceBrowser: {WarningSeconds: 30, CriticalSeconds: 180, BlockSeconds: 600},
	}
}

// BandsFor returns the configured bands for a device class, falling back to
// the defaults for an unknown class.
func (c IntegrityConfig) BandsFor(class models.DeviceClass) models.DriftBands {
	if b, ok := c.DriftBands[class]; ok {
		return b
	}
	if b, ok := DefaultDriftBands()[class]; ok {
		return b
	}
	return DefaultDriftBands()[models.DeviceBrowser]
}

// AckSLAFor returns the acknowledgement SLA for a severity.
func (c IntegrityConfig) AckSLAFor(sev models.Severity) time.Duration {
	switch sev {
	case models.SeverityCritical:
		return c.AckSLACritical
	case models.SeverityHigh:
		return c.AckSLAHigh
	case models.SeverityMedium:
		return c.AckSLAMedium
	default:
		return c.AckSLALow
	}
}

// Load reads configuration from an optional yaml file plus environment
// variables. A .env file is honored in development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "configs/config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read config from environment: %w", err)
		}
	}

	if cfg.Integrity.DriftBands == nil {
		cfg.Integrity.DriftBands = DefaultDriftBands()
	}
	return &cfg, nil
}
