package config

import (
	"fmt"
	"os"
	"strconv"
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
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	RateLimit struct {
		Enabled      bool    `yaml:"enabled"`
		Capacity     float64 `yaml:"capacity"`
		RefillPerSec float64 `yaml:"refill_per_sec"`
	} `yaml:"rate_limit"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Events struct {
		Backend string `yaml:"backend"` // kafka, clickhouse, or none
	} `yaml:"events"`
	Kafka struct {
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"`
		RequiredAcks int           `yaml:"required_acks"`
		Compression  string        `yaml:"compression"`
		MaxAttempts  int           `yaml:"max_attempts"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		Async        bool          `yaml:"async"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host         string        `yaml:"host"`
		Port         int           `yaml:"port"`
		Database     string        `yaml:"database"`
		User         string        `yaml:"user"`
		Password     string        `yaml:"password"`
		UseHTTP      bool          `yaml:"use_http"`
		DialTimeout  time.Duration `yaml:"dial_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"clickhouse"`
	Telegram struct {
		Enabled bool          `yaml:"enabled"`
		Token   string        `yaml:"token"`
		ChatID  int64         `yaml:"chat_id"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"telegram"`
	Notify struct {
		WebhookURL string        `yaml:"webhook_url"`
		Workers    int           `yaml:"workers"`
		QueueSize  int           `yaml:"queue_size"`
		RetryLimit int           `yaml:"retry_limit"`
		RetryDelay time.Duration `yaml:"retry_delay"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"notify"`
	Engine EngineConfig `yaml:"engine"`
}

// EngineConfig drives the aggregation core: groups, combinations, trend
// thresholds, dedup windows, pending-buffer bounds, and trade caps.
type EngineConfig struct {
	Trend struct {
		ConfirmThreshold int  `yaml:"confirm_threshold"`
		CloseOnFlip      bool `yaml:"close_on_flip"`
	} `yaml:"trend"`
	Dedup struct {
		BlockWindow     time.Duration `yaml:"block_window"`
		CleanupInterval time.Duration `yaml:"cleanup_interval"`
		CleanupFactor   int           `yaml:"cleanup_factor"`
	} `yaml:"dedup"`
	Pending struct {
		TTL          time.Duration `yaml:"ttl"`
		MaxPerBucket int           `yaml:"max_per_bucket"`
	} `yaml:"pending"`
	Trades struct {
		MaxOpenPerSymbol  int `yaml:"max_open_per_symbol"`
		MaxPerSymbol      int `yaml:"max_per_symbol"`
		MaxOpenGlobal     int `yaml:"max_open_global"`
		MaxPerCombination int `yaml:"max_per_combination"`
	} `yaml:"trades"`
	Maintenance struct {
		Interval time.Duration `yaml:"interval"`
	} `yaml:"maintenance"`
	Signals struct {
		Trend        []string `yaml:"trend"`
		TrendConfirm []string `yaml:"trend_confirm"`
		Exit         []string `yaml:"exit"`
	} `yaml:"signals"`
	Groups       []GroupConfig       `yaml:"groups"`
	Combinations []CombinationConfig `yaml:"combinations"`
}

type GroupConfig struct {
	ID              int      `yaml:"id"`
	Enabled         bool     `yaml:"enabled"`
	Required        int      `yaml:"required"`
	TrendMode       string   `yaml:"trend_mode"` // respect or counter
	StoreContrarian bool     `yaml:"store_contrarian"`
	Bullish         []string `yaml:"bullish"`
	Bearish         []string `yaml:"bearish"`
}

type CombinationConfig struct {
	Name   string `yaml:"name"`
	Groups []int  `yaml:"groups"`
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

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides secrets and addresses
// with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		if ok {
			if p, err := strconv.Atoi(port); err == nil {
				c.Redis.Host, c.Redis.Port = host, p
			}
		}
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Telegram.ChatID = id
		}
	}

	return c, nil
}

// Validate checks the parts of the configuration the engine cannot default.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Events.Backend {
	case "", "none", "kafka", "clickhouse":
	default:
		return fmt.Errorf("events.backend must be 'kafka', 'clickhouse' or 'none', got %q", c.Events.Backend)
	}
	if c.Events.Backend == "kafka" && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers required for events.backend=kafka")
	}
	if c.Events.Backend == "clickhouse" && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host required for events.backend=clickhouse")
	}
	if c.Telegram.Enabled && c.Telegram.Token == "" {
		return fmt.Errorf("telegram.token required when telegram is enabled")
	}
	if len(c.Engine.Groups) == 0 {
		return fmt.Errorf("engine.groups cannot be empty")
	}
	seen := map[int]bool{}
	for _, g := range c.Engine.Groups {
		if g.ID <= 0 {
			return fmt.Errorf("engine group id must be positive, got %d", g.ID)
		}
		if seen[g.ID] {
			return fmt.Errorf("duplicate engine group id %d", g.ID)
		}
		seen[g.ID] = true
		switch g.TrendMode {
		case "", "respect", "counter":
		default:
			return fmt.Errorf("group %d: trend_mode must be 'respect' or 'counter', got %q", g.ID, g.TrendMode)
		}
	}
	for _, combo := range c.Engine.Combinations {
		if combo.Name == "" {
			return fmt.Errorf("combination name is required")
		}
		if len(combo.Groups) == 0 {
			return fmt.Errorf("combination %q references no groups", combo.Name)
		}
		for _, gid := range combo.Groups {
			if !seen[gid] {
				return fmt.Errorf("combination %q references unknown group %d", combo.Name, gid)
			}
		}
	}
	return nil
}
