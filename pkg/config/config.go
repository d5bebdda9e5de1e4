package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
		CORSOrigins     []string      `yaml:"cors_origins" default:"[\"*\"]"`
	} `yaml:"server"`
	Logging struct {
		Level     string `yaml:"level" default:"info"`
		Format    string `yaml:"format" default:"json"`
		Output    string `yaml:"output" default:"stdout"`
		Collector struct {
			Enabled        bool          `yaml:"enabled"`
			Topic          string        `yaml:"topic" default:"finsignal.logs"`
			Interval       time.Duration `yaml:"interval" default:"30s"`
			CountThreshold int           `yaml:"count_threshold" default:"100"`
		} `yaml:"collector"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Storage struct {
		Driver       string        `yaml:"driver" default:"postgres"`
		PostgresDSN  string        `yaml:"postgres_dsn"`
		MaxOpenConns int           `yaml:"max_open_conns" default:"10"`
		QueryTimeout time.Duration `yaml:"query_timeout" default:"5s"`
	} `yaml:"storage"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"finsignal"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled          bool     `yaml:"enabled"`
		Brokers          []string `yaml:"brokers"`
		DecisionsTopic   string   `yaml:"decisions_topic" default:"finsignal.decisions"`
		BarsTopic        string   `yaml:"bars_topic" default:"finsignal.bars"`
		SettlementsTopic string   `yaml:"settlements_topic" default:"finsignal.settlements"`
		RequiredAcks     int      `yaml:"required_acks" default:"1"`
		Compression      string   `yaml:"compression" default:"snappy"`
		Producer         struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"5"`
			Linger       time.Duration `yaml:"linger" default:"10ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"finsignal"`
			Workers    int           `yaml:"workers" default:"4"`
			BufferSize int           `yaml:"buffer_size" default:"256"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"100ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes" default:"1"`
			MaxBytes   int           `yaml:"max_bytes" default:"10485760"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"finsignal"`
	} `yaml:"redis"`
	Queue struct {
		Workers      int           `yaml:"workers" default:"2"`
		PollInterval time.Duration `yaml:"poll_interval" default:"1s"`
		RetryLimit   int           `yaml:"retry_limit" default:"3"`
		RetryDelay   time.Duration `yaml:"retry_delay" default:"30s"`
	} `yaml:"queue"`
	Market struct {
		Lookback    int    `yaml:"lookback" default:"300"`
		Timeframe   string `yaml:"timeframe" default:"1m"`
		OTCVariance bool   `yaml:"otc_variance" default:"true"`
		MemoryBars  int    `yaml:"memory_bars" default:"5000"`
	} `yaml:"market"`
	Fusion struct {
		MinBars             int           `yaml:"min_bars" default:"100"`
		BaseConfidence      float64       `yaml:"base_confidence" default:"70"`
		MaxConfidence       float64       `yaml:"max_confidence" default:"95"`
		DefaultVolatility   float64       `yaml:"default_volatility" default:"0.02"`
		HighVolatility      float64       `yaml:"high_volatility" default:"0.03"`
		MidVolatility       float64       `yaml:"mid_volatility" default:"0.015"`
		RSIOversold         float64       `yaml:"rsi_oversold" default:"25"`
		RSIOverbought       float64       `yaml:"rsi_overbought" default:"75"`
		OTCExpiries         []int         `yaml:"otc_expiries" default:"[1,3,5,10,15]"`
		StandardExpiries    []int         `yaml:"standard_expiries" default:"[5,10,15,30]"`
		CollaboratorTimeout time.Duration `yaml:"collaborator_timeout" default:"5s"`
	} `yaml:"fusion"`
	Structure struct {
		Enabled bool          `yaml:"enabled"`
		URL     string        `yaml:"url"`
		Timeout time.Duration `yaml:"timeout" default:"3s"`
		Retries int           `yaml:"retries" default:"2"`
	} `yaml:"structure"`
	Sentiment struct {
		Enabled bool          `yaml:"enabled" default:"true"`
		URL     string        `yaml:"url" default:"https://api.alternative.me/fng/"`
		Timeout time.Duration `yaml:"timeout" default:"5s"`
	} `yaml:"sentiment"`
	Settlement struct {
		Auto           bool          `yaml:"auto" default:"true"`
		Stake          float64       `yaml:"stake" default:"10"`
		Payout         float64       `yaml:"payout" default:"0.85"`
		Grace          time.Duration `yaml:"grace" default:"5s"`
		MaxCloseLag    time.Duration `yaml:"max_close_lag" default:"5m"`
		VerifyInterval time.Duration `yaml:"verify_interval" default:"10m"`
	} `yaml:"settlement"`
	RateLimit struct {
		RPS   float64 `yaml:"rps" default:"1"`
		Burst int     `yaml:"burst" default:"5"`
	} `yaml:"ratelimit"`
}

// Default returns a config populated from struct defaults only.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}

	b, err := os.ReadFile(path)
	if err != nil {
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

// LoadWithEnv loads .env (when present) and the YAML file, then overrides
// with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	c, err := Default()
	if err != nil {
		return nil, err
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	c.applyEnv()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("FINSIGNAL_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Storage.PostgresDSN = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
		c.ClickHouse.Enabled = true
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("STRUCTURE_URL"); v != "" {
		c.Structure.URL = v
		c.Structure.Enabled = true
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("storage.driver must be 'postgres' or 'memory', got '%s'", c.Storage.Driver)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Structure.Enabled && c.Structure.URL == "" {
		return fmt.Errorf("structure.url is required when structure is enabled")
	}
	if c.Market.Lookback < c.Fusion.MinBars {
		return fmt.Errorf("market.lookback (%d) must be at least fusion.min_bars (%d)", c.Market.Lookback, c.Fusion.MinBars)
	}
	if len(c.Fusion.OTCExpiries) < 4 || len(c.Fusion.StandardExpiries) < 4 {
		return fmt.Errorf("fusion expiry lists need at least 4 entries")
	}
	if c.Settlement.Stake <= 0 || c.Settlement.Payout <= 0 {
		return fmt.Errorf("settlement.stake and settlement.payout must be positive")
	}
	return nil
}
