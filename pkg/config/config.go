package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"PlumbWatch/pkg/util"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Host            string        `yaml:"host"`
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		CORSOrigins     []string      `yaml:"cors_origins"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Providers struct {
		Timeout time.Duration `yaml:"timeout"`
		FRED    struct {
			BaseURL string `yaml:"base_url"`
			APIKey  string `yaml:"api_key"`
		} `yaml:"fred"`
		NYFed struct {
			BaseURL string `yaml:"base_url"`
		} `yaml:"nyfed"`
		FXRates struct {
			BaseURL string `yaml:"base_url"`
			APIKey  string `yaml:"api_key"`
		} `yaml:"fxrates"`
	} `yaml:"providers"`
	Cache struct {
		RealtimeTTL time.Duration `yaml:"realtime_ttl"`
		DailyTTL    time.Duration `yaml:"daily_ttl"`
	} `yaml:"cache"`
	RateLimit struct {
		Window   time.Duration `yaml:"window"`
		Capacity int           `yaml:"capacity"`
	} `yaml:"rate_limit"`
	History struct {
		MaxEntries int `yaml:"max_entries"`
	} `yaml:"history"`
	Refresh struct {
		Interval time.Duration `yaml:"interval"`
	} `yaml:"refresh"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	ClickHouse struct {
		Enabled     bool          `yaml:"enabled"`
		Host        string        `yaml:"host"`
		Port        int           `yaml:"port"`
		Database    string        `yaml:"database"`
		User        string        `yaml:"user"`
		Password    string        `yaml:"password"`
		DialTimeout time.Duration `yaml:"dial_timeout"`
		ReadTimeout time.Duration `yaml:"read_timeout"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		Compression  string   `yaml:"compression"`
		RequiredAcks int      `yaml:"required_acks"`
	} `yaml:"kafka"`
}

// envOverrides are read without a prefix. Zero values leave the file value in place.
type envOverrides struct {
	Port        int    `envconfig:"PORT"`
	CORSOrigins string `envconfig:"CORS_ORIGINS"`
	FREDAPIKey  string `envconfig:"FRED_API_KEY"`
	FXAPIKey    string `envconfig:"FX_API_KEY"`
	RedisAddr   string `envconfig:"REDIS_ADDR"`
	CHHost      string `envconfig:"CLICKHOUSE_HOST"`
	Brokers     string `envconfig:"KAFKA_BROKERS"`
	LogLevel    string `envconfig:"LOG_LEVEL"`
}

// Default returns the built-in configuration.
func Default() *Config {
	c := &Config{Environment: "development"}

	c.Server.Host = "0.0.0.0"
	c.Server.Port = 3001
	c.Server.ReadTimeout = 10 * time.Second
	c.Server.WriteTimeout = 30 * time.Second
	c.Server.ShutdownTimeout = 10 * time.Second
	c.Server.CORSOrigins = []string{"http://localhost:3000"}

	c.Logging.Level = "info"
	c.Logging.Format = "json"
	c.Logging.Output = "stdout"

	c.Providers.Timeout = 10 * time.Second
	c.Providers.FRED.BaseURL = "https://api.stlouisfed.org/fred"
	c.Providers.NYFed.BaseURL = "https://markets.newyorkfed.org"
	c.Providers.FXRates.BaseURL = "https://api.exchangerate-api.com"

	c.Cache.RealtimeTTL = 60 * time.Second
	c.Cache.DailyTTL = 300 * time.Second

	c.RateLimit.Window = 60 * time.Second
	c.RateLimit.Capacity = 60

	c.History.MaxEntries = 90
	c.Refresh.Interval = 30 * time.Second

	c.Redis.Addr = "localhost:6379"

	c.ClickHouse.Host = "localhost"
	c.ClickHouse.Port = 9000
	c.ClickHouse.Database = "plumbwatch"
	c.ClickHouse.User = "default"
	c.ClickHouse.DialTimeout = 5 * time.Second
	c.ClickHouse.ReadTimeout = 10 * time.Second

	c.Kafka.Brokers = []string{"localhost:9092"}
	c.Kafka.Topic = "plumbwatch.stress"
	c.Kafka.Compression = "snappy"
	c.Kafka.RequiredAcks = 1

	return c
}

// Load reads a YAML file over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, c.Validate()
	}

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return c, c.Validate()
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads the YAML file, then .env, then environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// .env is optional
	_ = godotenv.Load()

	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}

	if env.Port != 0 {
		c.Server.Port = env.Port
	}
	if origins := util.SplitCSV(env.CORSOrigins); len(origins) > 0 {
		c.Server.CORSOrigins = origins
	}
	if env.FREDAPIKey != "" {
		c.Providers.FRED.APIKey = env.FREDAPIKey
	}
	if env.FXAPIKey != "" {
		c.Providers.FXRates.APIKey = env.FXAPIKey
	}
	if env.RedisAddr != "" {
		c.Redis.Addr = env.RedisAddr
		c.Redis.Enabled = true
	}
	if env.CHHost != "" {
		c.ClickHouse.Host = env.CHHost
		c.ClickHouse.Enabled = true
	}
	if brokers := util.SplitCSV(env.Brokers); len(brokers) > 0 {
		c.Kafka.Brokers = brokers
		c.Kafka.Enabled = true
	}
	if env.LogLevel != "" {
		c.Logging.Level = strings.ToLower(env.LogLevel)
	}
	return nil
}

// Validate checks ranges and required fields.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}

	durations := map[string]time.Duration{
		"server.read_timeout":     c.Server.ReadTimeout,
		"server.write_timeout":    c.Server.WriteTimeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"providers.timeout":       c.Providers.Timeout,
		"cache.realtime_ttl":      c.Cache.RealtimeTTL,
		"cache.daily_ttl":         c.Cache.DailyTTL,
		"rate_limit.window":       c.RateLimit.Window,
		"refresh.interval":        c.Refresh.Interval,
	}
	for name, d := range durations {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}

	if c.RateLimit.Capacity <= 0 {
		return fmt.Errorf("rate_limit.capacity must be positive")
	}
	if c.History.MaxEntries <= 0 {
		return fmt.Errorf("history.max_entries must be positive")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when clickhouse is enabled")
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka.topic is required when kafka is enabled")
		}
	}
	return nil
}
