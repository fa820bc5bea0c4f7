package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v4"

	"parking-ledger/internal/parking"
)

const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

type Config struct {
	Environment string          `yaml:"environment"`
	Lot         LotConfig       `yaml:"lot"`
	Storage     StorageConfig   `yaml:"storage"`
	Audit       AuditConfig     `yaml:"audit"`
	Server      ServerConfig    `yaml:"server"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
}

// LotConfig is keyed by class code ("2W", "4W", "TR").
type LotConfig struct {
	Capacities map[string]int     `yaml:"capacities"`
	Rates      map[string]float64 `yaml:"rates"`
}

type StorageConfig struct {
	Driver      string `yaml:"driver"`
	Path        string `yaml:"path"`
	RedisAddr   string `yaml:"redis_addr"`
	RedisKey    string `yaml:"redis_key"`
	PostgresDSN string `yaml:"postgres_dsn"`

	// AutoSave writes a snapshot after every successful park or remove.
	AutoSave bool `yaml:"autosave"`
	// ResetOnLoadError starts from an empty ledger when the stored snapshot
	// cannot be read, instead of refusing to start.
	ResetOnLoadError bool `yaml:"reset_on_load_error"`
}

type AuditConfig struct {
	JournalPath  string   `yaml:"journal_path"`
	MaxEntries   int      `yaml:"max_entries"`
	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type TelemetryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	ServiceName  string `yaml:"service_name"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

func Default() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			Driver:   DriverFile,
			Path:     "sample_data.json",
			RedisKey: "parking:snapshot",
		},
		Audit: AuditConfig{
			JournalPath: "history.json",
			MaxEntries:  200,
			KafkaTopic:  "parking.events",
		},
		Server: ServerConfig{
			Port: "8080",
		},
		Telemetry: TelemetryConfig{
			ServiceName:  "parking-ledger",
			OTLPEndpoint: "http://localhost:4318",
		},
	}
}

// LoadConfig reads filename over the defaults, then applies environment
// overrides. An empty filename skips the file.
func LoadConfig(filename string) (*Config, error) {
	cfg := Default()

	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Storage.Driver = getEnv("PARKING_STORAGE_DRIVER", c.Storage.Driver)
	c.Storage.Path = getEnv("PARKING_STORAGE_PATH", c.Storage.Path)
	c.Storage.RedisAddr = getEnv("REDIS_ADDR", c.Storage.RedisAddr)
	c.Storage.PostgresDSN = getEnv("DATABASE_URL", c.Storage.PostgresDSN)
	c.Telemetry.ServiceName = getEnv("OTEL_SERVICE_NAME", c.Telemetry.ServiceName)
	c.Telemetry.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.Telemetry.OTLPEndpoint)

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		c.Audit.KafkaBrokers = strings.Split(brokers, ",")
	}

	if enabled := os.Getenv("OTEL_ENABLED"); enabled != "" {
		v, err := strconv.ParseBool(enabled)
		if err != nil {
			return fmt.Errorf("invalid OTEL_ENABLED: %w", err)
		}
		c.Telemetry.Enabled = v
	}

	return nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverFile, DriverSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the %s driver", c.Storage.Driver)
		}
	case DriverRedis:
		if c.Storage.RedisAddr == "" {
			return fmt.Errorf("storage.redis_addr is required for the redis driver")
		}
	case DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Audit.MaxEntries < 0 {
		return fmt.Errorf("audit.max_entries must not be negative")
	}

	if _, err := c.LedgerConfig(); err != nil {
		return err
	}

	return nil
}

// LedgerConfig converts the class-code keyed lot section.
func (c *Config) LedgerConfig() (parking.Config, error) {
	out := parking.Config{
		Capacities: make(map[parking.VehicleClass]int, len(c.Lot.Capacities)),
		Rates:      make(map[parking.VehicleClass]float64, len(c.Lot.Rates)),
	}

	for code, capacity := range c.Lot.Capacities {
		class, ok := parking.ParseClass(code)
		if !ok {
			return parking.Config{}, fmt.Errorf("lot.capacities: unknown vehicle class %q", code)
		}
		if capacity <= 0 {
			return parking.Config{}, fmt.Errorf("lot.capacities: %s must be positive", code)
		}
		out.Capacities[class] = capacity
	}

	for code, rate := range c.Lot.Rates {
		class, ok := parking.ParseClass(code)
		if !ok {
			return parking.Config{}, fmt.Errorf("lot.rates: unknown vehicle class %q", code)
		}
		if rate < 0 {
			return parking.Config{}, fmt.Errorf("lot.rates: %s must not be negative", code)
		}
		out.Rates[class] = rate
	}

	return out, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
