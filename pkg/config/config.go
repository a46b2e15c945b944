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
	Binance struct {
		RestURL        string        `yaml:"rest_url"`
		WebSocketURL   string        `yaml:"websocket_url"`
		Interval       string        `yaml:"interval"`
		CandleLimit    int           `yaml:"candle_limit"`
		BookDepth      int           `yaml:"book_depth"`
		QuoteAsset     string        `yaml:"quote_asset"`
		MinQuoteVolume float64       `yaml:"min_quote_volume"`
		MaxSymbols     int           `yaml:"max_symbols"`
		Timeout        time.Duration `yaml:"timeout"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"binance"`
	Scan struct {
		Concurrency    int      `yaml:"concurrency"`
		MinConfidence  int      `yaml:"min_confidence"`
		VolatilityGate float64  `yaml:"volatility_gate"`
		TopResults     int      `yaml:"top_results"`
		PanelSymbols   []string `yaml:"panel_symbols"`
		Learning       struct {
			TradeCount int `yaml:"trade_count"`
			Lookahead  int `yaml:"lookahead"`
			Rate       int `yaml:"rate"`
		} `yaml:"learning"`
	} `yaml:"scan"`
	Redis struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	Telegram struct {
		Enabled bool   `yaml:"enabled"`
		APIURL  string `yaml:"api_url"`
		Token   string `yaml:"token"`
		ChatID  string `yaml:"chat_id"`
	} `yaml:"telegram"`
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

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("BINANCE_REST_URL"); v != "" {
		c.Binance.RestURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port := splitHostPort(v, c.Redis.Port)
		c.Redis.Host = host
		c.Redis.Port = port
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("PANEL_SYMBOLS"); v != "" {
		c.Scan.PanelSymbols = strings.Split(v, ",")
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Binance.RestURL == "" {
		return fmt.Errorf("binance.rest_url is required")
	}
	if len(c.Scan.PanelSymbols) == 0 {
		return fmt.Errorf("scan.panel_symbols cannot be empty")
	}
	if c.Redis.Host == "" {
		return fmt.Errorf("redis.host is required")
	}
	if c.Scan.Concurrency <= 0 {
		c.Scan.Concurrency = 10
	}
	if c.Scan.MinConfidence == 0 {
		c.Scan.MinConfidence = 50
	}
	if c.Scan.VolatilityGate == 0 {
		c.Scan.VolatilityGate = 0.5
	}
	if c.Scan.TopResults == 0 {
		c.Scan.TopResults = 25
	}
	if c.Binance.CandleLimit == 0 {
		c.Binance.CandleLimit = 210
	}
	if c.Binance.BookDepth == 0 {
		c.Binance.BookDepth = 10
	}
	if c.Binance.MaxSymbols == 0 {
		c.Binance.MaxSymbols = 120
	}
	if c.Scan.Learning.TradeCount == 0 {
		c.Scan.Learning.TradeCount = 30
	}
	if c.Scan.Learning.Lookahead == 0 {
		c.Scan.Learning.Lookahead = 5
	}
	if c.Scan.Learning.Rate == 0 {
		c.Scan.Learning.Rate = 2
	}
	return nil
}

func splitHostPort(addr string, defPort int) (string, int) {
	host, portStr, ok := strings.Cut(addr, ":")
	if !ok {
		return addr, defPort
	}
	port := defPort
	if _, err := fmt.Sscanf(portStr, "%d", &port); err != nil {
		return host, defPort
	}
	return host, port
}
