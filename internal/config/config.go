package config

import (
	"fmt"
	"os"
	"path/filepath"

	envconfig "github.com/Likith-Yadav/PayCoreX/pkg/config"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "paycorex"

type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	JWT      JWTConfig      `yaml:"jwt"`
	Vault    VaultConfig    `yaml:"vault"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Executor ExecutorConfig `yaml:"executor"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Events   EventsConfig   `yaml:"events"`
	Gateways GatewaysConfig `yaml:"gateways"`
	Crypto   CryptoConfig   `yaml:"crypto"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	Output      string `yaml:"output"`
	FilePath    string `yaml:"file_path"`
	Development bool   `yaml:"development"`
}

type JWTConfig struct {
	Secret    string   `yaml:"secret"`
	SkipPaths []string `yaml:"skip_paths"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoadConfig reads the YAML file at CONFIG_PATH, then applies PAYCOREX_* environment overrides.
func LoadConfig() (*Config, error) {
	// A missing .env file is fine
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/paycorex.yaml"
	}

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg, envconfig.FromEnv(envPrefix))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML and fills defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	c.Service.applyDefaults()
	c.Database.applyDefaults()
	c.Webhook.applyDefaults()
	c.Executor.applyDefaults()
	c.Ledger.applyDefaults()
	c.Events.applyDefaults()
	c.Crypto.applyDefaults()
	if c.Server.HTTP.Port == 0 {
		c.Server.HTTP.Port = 8080
	}
	if c.Server.GRPC.Port == 0 {
		c.Server.GRPC.Port = 9090
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks settings the process cannot start without.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	if len(c.Vault.Key) != 64 {
		return fmt.Errorf("vault.key must be 64 hex characters")
	}
	switch c.Events.Driver {
	case EventsDriverNone, EventsDriverRedis, EventsDriverKafka:
	default:
		return fmt.Errorf("events.driver %q is not supported", c.Events.Driver)
	}
	return nil
}

func applyEnvOverrides(cfg *Config, env envconfig.Config) {
	envconfig.OverrideString(env, "database.host", &cfg.Database.Host)
	envconfig.OverrideInt(env, "database.port", &cfg.Database.Port)
	envconfig.OverrideString(env, "database.user", &cfg.Database.User)
	envconfig.OverrideString(env, "database.password", &cfg.Database.Password)
	envconfig.OverrideString(env, "database.name", &cfg.Database.Name)
	envconfig.OverrideString(env, "jwt.secret", &cfg.JWT.Secret)
	envconfig.OverrideString(env, "vault.key", &cfg.Vault.Key)
	envconfig.OverrideString(env, "log.level", &cfg.Log.Level)
	envconfig.OverrideString(env, "events.driver", &cfg.Events.Driver)
	envconfig.OverrideString(env, "events.redis.addr", &cfg.Events.Redis.Addr)
	envconfig.OverrideString(env, "events.redis.password", &cfg.Events.Redis.Password)
	envconfig.OverrideStringSlice(env, "events.kafka.brokers", &cfg.Events.Kafka.Brokers)
	envconfig.OverrideString(env, "gateways.razorpay.base_url", &cfg.Gateways.Razorpay.BaseURL)
	envconfig.OverrideString(env, "gateways.stripe.secret_key", &cfg.Gateways.Stripe.SecretKey)
	envconfig.OverrideInt(env, "webhook.max_retries", &cfg.Webhook.MaxRetries)
	envconfig.OverrideDuration(env, "webhook.timeout", &cfg.Webhook.Timeout)
	envconfig.OverrideBool(env, "metrics.enabled", &cfg.Metrics.Enabled)
}
