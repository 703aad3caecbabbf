package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Logger struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logger"`
	Trading struct {
		BaseURL   string        `yaml:"base_url"`
		Timeout   time.Duration `yaml:"timeout"`
		LoginPath string        `yaml:"login_path"`
	} `yaml:"trading"`
	Session struct {
		Store     string `yaml:"store"` // memory, file, redis
		TokenFile string `yaml:"token_file"`
		RedisKey  string `yaml:"redis_key"`
	} `yaml:"session"`
	Resources struct {
		Account       time.Duration `yaml:"account"`
		OpenTrades    time.Duration `yaml:"open_trades"`
		Status        time.Duration `yaml:"status"`
		History       time.Duration `yaml:"history"`
		Performance   time.Duration `yaml:"performance"`
		Signals       time.Duration `yaml:"signals"`
		External      time.Duration `yaml:"external_signals"`
		News          time.Duration `yaml:"news"`
		Activity      time.Duration `yaml:"activity"`
		Correlation   time.Duration `yaml:"correlation"`
		EquityCurve   time.Duration `yaml:"equity_curve"`
		HistoryLimit  int           `yaml:"history_limit"`
		ActivityLimit int           `yaml:"activity_limit"`
	} `yaml:"resources"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Queue struct {
		Enabled bool          `yaml:"enabled"`
		Workers int           `yaml:"workers"`
		Retry   time.Duration `yaml:"retry_delay"`
	} `yaml:"queue"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"`
		RequiredAcks int           `yaml:"required_acks"`
		Compression  string        `yaml:"compression"`
		MaxAttempts  int           `yaml:"max_attempts"`
		Linger       time.Duration `yaml:"linger"`
		BatchBytes   int           `yaml:"batch_bytes"`
		BatchSize    int           `yaml:"batch_size"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		Async        bool          `yaml:"async"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		Table            string        `yaml:"table"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.ApplyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("TRADING_BASE_URL"); v != "" {
		c.Trading.BaseURL = v
	}
	if v := os.Getenv("SESSION_STORE"); v != "" {
		c.Session.Store = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}

	return c, nil
}

// ApplyDefaults fills sensitivity-tiered poll intervals and other fields
// left at zero in the YAML.
func (c *Config) ApplyDefaults() {
	r := &c.Resources
	if r.Account <= 0 {
		r.Account = 3 * time.Second
	}
	if r.OpenTrades <= 0 {
		r.OpenTrades = 3 * time.Second
	}
	if r.Status <= 0 {
		r.Status = 5 * time.Second
	}
	if r.History <= 0 {
		r.History = 30 * time.Second
	}
	if r.Performance <= 0 {
		r.Performance = 30 * time.Second
	}
	if r.Signals <= 0 {
		r.Signals = 15 * time.Second
	}
	if r.External <= 0 {
		r.External = time.Minute
	}
	if r.News <= 0 {
		r.News = time.Minute
	}
	if r.Activity <= 0 {
		r.Activity = 20 * time.Second
	}
	if r.Correlation <= 0 {
		r.Correlation = 30 * time.Second
	}
	if r.EquityCurve <= 0 {
		r.EquityCurve = time.Minute
	}
	if r.HistoryLimit <= 0 {
		r.HistoryLimit = 100
	}
	if r.ActivityLimit <= 0 {
		r.ActivityLimit = 100
	}

	if c.Trading.Timeout <= 0 {
		c.Trading.Timeout = 10 * time.Second
	}
	if c.Trading.LoginPath == "" {
		c.Trading.LoginPath = "/login"
	}
	if c.Session.Store == "" {
		c.Session.Store = "file"
	}
	if c.Session.TokenFile == "" {
		c.Session.TokenFile = "data/session.token"
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "console"
	}
	if c.Logger.Output == "" {
		c.Logger.Output = "stdout"
	}
	if c.Queue.Workers <= 0 {
		c.Queue.Workers = 1
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Trading.BaseURL == "" {
		return fmt.Errorf("trading.base_url is required")
	}
	switch c.Session.Store {
	case "memory", "file", "redis":
	default:
		return fmt.Errorf("session.store must be 'memory', 'file' or 'redis', got '%s'", c.Session.Store)
	}
	if c.Session.Store == "redis" && !c.Redis.Enabled {
		return fmt.Errorf("session.store=redis requires redis.enabled")
	}
	if c.Queue.Enabled && !c.Redis.Enabled {
		return fmt.Errorf("queue.enabled requires redis.enabled")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when clickhouse is enabled")
	}
	return nil
}
