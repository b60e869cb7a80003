package config

import "time"

type ServiceConfig struct {
	Name            string `yaml:"name"`
	Environment     string `yaml:"environment"`
	Version         string `yaml:"version"`
	DefaultCurrency string `yaml:"default_currency"`
}

func (c *ServiceConfig) applyDefaults() {
	if c.Name == "" {
		c.Name = "paycorex"
	}
	if c.DefaultCurrency == "" {
		c.DefaultCurrency = "INR"
	}
}

// VaultConfig holds the AES-256 key for stored instruments and provider secrets.
type VaultConfig struct {
	Key string `yaml:"key"`
}

type WebhookConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	MaxRetries    int           `yaml:"max_retries"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	SweepBatch    int           `yaml:"sweep_batch"`
	RatePerSecond float64       `yaml:"rate_per_second"`
	Workers       int           `yaml:"workers"`
}

func (c *WebhookConfig) applyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = 30 * time.Second
	}
	if c.SweepBatch == 0 {
		c.SweepBatch = 100
	}
	if c.RatePerSecond == 0 {
		c.RatePerSecond = 20
	}
	if c.Workers == 0 {
		c.Workers = 4
	}
}

type ExecutorConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

func (c *ExecutorConfig) applyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
}

type LedgerConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
}

func (c *LedgerConfig) applyDefaults() {
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
}

const (
	EventsDriverNone  = "none"
	EventsDriverRedis = "redis"
	EventsDriverKafka = "kafka"
)

type EventsConfig struct {
	Driver string      `yaml:"driver"`
	Redis  RedisConfig `yaml:"redis"`
	Kafka  KafkaConfig `yaml:"kafka"`
}

func (c *EventsConfig) applyDefaults() {
	if c.Driver == "" {
		c.Driver = EventsDriverNone
	}
	if c.Redis.Channel == "" {
		c.Redis.Channel = "paycorex.events"
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "paycorex.events"
	}
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type GatewaysConfig struct {
	Razorpay RazorpayConfig `yaml:"razorpay"`
	Stripe   StripeConfig   `yaml:"stripe"`
}

type RazorpayConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type StripeConfig struct {
	// SecretKey is the platform key used when a merchant config carries none
	SecretKey string `yaml:"secret_key"`
}

type CryptoConfig struct {
	Networks []NetworkConfig `yaml:"networks"`
}

type NetworkConfig struct {
	Name          string `yaml:"name"`
	Kind          string `yaml:"kind"` // evm or tron
	RPCURL        string `yaml:"rpc_url"`
	Confirmations uint64 `yaml:"confirmations"`
}

func (c *CryptoConfig) applyDefaults() {
	if len(c.Networks) == 0 {
		c.Networks = []NetworkConfig{
			{Name: "ethereum", Kind: "evm"},
			{Name: "polygon", Kind: "evm"},
			{Name: "bsc", Kind: "evm"},
		}
	}
}
