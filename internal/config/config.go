package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMySQL  = "mysql"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Messaging MessagingConfig `yaml:"messaging"`
	Auth      AuthConfig      `yaml:"auth"`
	Orders    OrdersConfig    `yaml:"orders"`
	Logging   LoggingConfig   `yaml:"logging"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

type ServerConfig struct {
	HTTPAddr        string `yaml:"http_addr"`
	GRPCAddr        string `yaml:"grpc_addr"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// StorageConfig selects the repository backend. With "mysql" the durable
// records live in MySQL and sessions plus idempotency keys in Redis.
type StorageConfig struct {
	Backend   string `yaml:"backend"`
	MySQLDSN  string `yaml:"mysql_dsn"`
	RedisAddr string `yaml:"redis_addr"`
}

// MessagingConfig configures order event publication. An empty RabbitMQURL
// logs events instead of publishing them.
type MessagingConfig struct {
	RabbitMQURL string `yaml:"rabbitmq_url"`
	Exchange    string `yaml:"exchange"`
	Workers     int    `yaml:"workers"`
	QueueSize   int    `yaml:"queue_size"`
}

type AuthConfig struct {
	OTPCode    string `yaml:"otp_code"`
	OTPDelay   string `yaml:"otp_delay"`
	SessionTTL string `yaml:"session_ttl"`
	BcryptCost int    `yaml:"bcrypt_cost"`
}

type OrdersConfig struct {
	ConfirmDelay string `yaml:"confirm_delay"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// TracingConfig enables OpenTelemetry tracing of HTTP requests. Spans go to
// the OTLP collector at OTLPEndpoint, or to stdout when it is empty.
type TracingConfig struct {
	Enabled      bool   `yaml:"enabled"`
	ServiceName  string `yaml:"service_name"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:        ":8080",
			GRPCAddr:        ":50051",
			ShutdownTimeout: "10s",
		},
		Storage: StorageConfig{
			Backend:   BackendMemory,
			MySQLDSN:  "root:root@tcp(localhost:3306)/shopy?parseTime=true",
			RedisAddr: "localhost:6379",
		},
		Messaging: MessagingConfig{
			Exchange:  "shopy.orders",
			Workers:   10,
			QueueSize: 10000,
		},
		Auth: AuthConfig{
			OTPCode:    "123456",
			OTPDelay:   "1s",
			SessionTTL: "24h",
		},
		Orders: OrdersConfig{
			ConfirmDelay: "1s",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Tracing: TracingConfig{
			ServiceName: "shopy",
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies SHOPY_*
// environment overrides. An empty path or a missing file means defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	strs := map[string]*string{
		"SHOPY_HTTP_ADDR":     &c.Server.HTTPAddr,
		"SHOPY_GRPC_ADDR":     &c.Server.GRPCAddr,
		"SHOPY_STORAGE":       &c.Storage.Backend,
		"SHOPY_MYSQL_DSN":     &c.Storage.MySQLDSN,
		"SHOPY_REDIS_ADDR":    &c.Storage.RedisAddr,
		"SHOPY_RABBITMQ_URL":  &c.Messaging.RabbitMQURL,
		"SHOPY_OTP_CODE":      &c.Auth.OTPCode,
		"SHOPY_CONFIRM_DELAY": &c.Orders.ConfirmDelay,
		"SHOPY_LOG_LEVEL":     &c.Logging.Level,
		"SHOPY_OTLP_ENDPOINT": &c.Tracing.OTLPEndpoint,
	}
	for key, field := range strs {
		if v := os.Getenv(key); v != "" {
			*field = v
		}
	}

	ints := map[string]*int{
		"SHOPY_WORKERS":    &c.Messaging.Workers,
		"SHOPY_QUEUE_SIZE": &c.Messaging.QueueSize,
	}
	for key, field := range ints {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*field = n
	}

	if v := os.Getenv("SHOPY_TRACING"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SHOPY_TRACING: %w", err)
		}
		c.Tracing.Enabled = enabled
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendRedis, BackendMySQL:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Messaging.Workers <= 0 {
		return fmt.Errorf("messaging.workers must be positive")
	}
	if c.Messaging.QueueSize <= 0 {
		return fmt.Errorf("messaging.queue_size must be positive")
	}
	if c.Auth.OTPCode == "" {
		return fmt.Errorf("auth.otp_code must not be empty")
	}
	for name, d := range map[string]string{
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"auth.otp_delay":          c.Auth.OTPDelay,
		"auth.session_ttl":        c.Auth.SessionTTL,
		"orders.confirm_delay":    c.Orders.ConfirmDelay,
	} {
		if _, err := time.ParseDuration(d); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging.level: %w", err)
	}
	return nil
}

func duration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func (c *Config) GetShutdownTimeout() time.Duration {
	return duration(c.Server.ShutdownTimeout, 10*time.Second)
}

func (c *Config) GetOTPDelay() time.Duration {
	return duration(c.Auth.OTPDelay, time.Second)
}

func (c *Config) GetSessionTTL() time.Duration {
	return duration(c.Auth.SessionTTL, 24*time.Hour)
}

func (c *Config) GetConfirmDelay() time.Duration {
	return duration(c.Orders.ConfirmDelay, time.Second)
}

// GetLogLevel returns the configured level, or info if it does not parse.
func (c *Config) GetLogLevel() zapcore.Level {
	level, err := zapcore.ParseLevel(c.Logging.Level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}
