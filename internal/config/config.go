package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server" envconfig:"SERVER"`
	Security      SecurityConfig      `yaml:"security" envconfig:"SECURITY"`
	Logging       LoggingConfig       `yaml:"logging" envconfig:"LOGGING"`
	Dataset       DatasetConfig       `yaml:"dataset" envconfig:"DATASET"`
	Lookup        LookupConfig        `yaml:"lookup" envconfig:"LOOKUP"`
	Explorer      ExplorerConfig      `yaml:"explorer" envconfig:"EXPLORER"`
	Cache         CacheConfig         `yaml:"cache" envconfig:"CACHE"`
	WebSocket     WebSocketConfig     `yaml:"websocket" envconfig:"WEBSOCKET"`
	Observability ObservabilityConfig `yaml:"observability" envconfig:"OBSERVABILITY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"20s"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	// ReloadAPIKey protects POST /api/dataset/reload. Empty leaves it open.
	ReloadAPIKey string `yaml:"reload_api_key" envconfig:"RELOAD_API_KEY"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format      string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output      string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT" default:"false"`
}

// DatasetConfig describes where the company-year panel is read from.
//
// Source is one of "file" or "sheets". For "file", Files is tried in order and the
// first readable file wins, so a CSV export can stand in for a missing workbook.
type DatasetConfig struct {
	Source          string        `yaml:"source" envconfig:"SOURCE" default:"file"`
	DataDir         string        `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	Files           []string      `yaml:"files" envconfig:"FILES" default:"合并后的文件.xlsx,股票数据合并结果.csv"`
	Sheet           string        `yaml:"sheet" envconfig:"SHEET"`
	ReloadSchedule  string        `yaml:"reload_schedule" envconfig:"RELOAD_SCHEDULE"`
	ReloadTimezone  string        `yaml:"reload_timezone" envconfig:"RELOAD_TIMEZONE" default:"Asia/Shanghai"`
	LoadTimeout     time.Duration `yaml:"load_timeout" envconfig:"LOAD_TIMEOUT" default:"2m"`
	SpreadsheetID   string        `yaml:"spreadsheet_id" envconfig:"SPREADSHEET_ID"`
	SheetRange      string        `yaml:"sheet_range" envconfig:"SHEET_RANGE" default:"Sheet1"`
	CredentialsFile string        `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
	APIKey          string        `yaml:"api_key" envconfig:"API_KEY"`
}

// LookupConfig bounds the single-stock lookup view.
type LookupConfig struct {
	MinYear     int `yaml:"min_year" envconfig:"MIN_YEAR" default:"2019"`
	MaxYear     int `yaml:"max_year" envconfig:"MAX_YEAR" default:"2020"`
	DefaultYear int `yaml:"default_year" envconfig:"DEFAULT_YEAR" default:"2020"`
}

// ExplorerConfig names the fixed columns of the multi-filter explorer and its limits.
type ExplorerConfig struct {
	StockColumn      string `yaml:"stock_column" envconfig:"STOCK_COLUMN" default:"股票代码简称"`
	CompanyColumn    string `yaml:"company_column" envconfig:"COMPANY_COLUMN" default:"企业名称"`
	YearColumn       string `yaml:"year_column" envconfig:"YEAR_COLUMN" default:"年份"`
	IndustryColumn   string `yaml:"industry_column" envconfig:"INDUSTRY_COLUMN" default:"行业名称_文件1"`
	IndexColumn      string `yaml:"index_column" envconfig:"INDEX_COLUMN" default:"数字化转型指数"`
	FrequencyMarker  string `yaml:"frequency_marker" envconfig:"FREQUENCY_MARKER" default:"词频"`
	MaxStocks        int    `yaml:"max_stocks" envconfig:"MAX_STOCKS" default:"10"`
	DefaultYearCount int    `yaml:"default_year_count" envconfig:"DEFAULT_YEAR_COUNT" default:"5"`
	SearchFallback   int    `yaml:"search_fallback" envconfig:"SEARCH_FALLBACK" default:"20"`
	RankingSize      int    `yaml:"ranking_size" envconfig:"RANKING_SIZE" default:"10"`
	MaxKeyColumns    int    `yaml:"max_key_columns" envconfig:"MAX_KEY_COLUMNS" default:"10"`
}

// CacheConfig configures the optional Redis query cache. An empty Addr disables it.
type CacheConfig struct {
	Addr      string        `yaml:"addr" envconfig:"ADDR"`
	Password  string        `yaml:"password" envconfig:"PASSWORD"`
	DB        int           `yaml:"db" envconfig:"DB" default:"0"`
	TTL       time.Duration `yaml:"ttl" envconfig:"TTL" default:"10m"`
	Namespace string        `yaml:"namespace" envconfig:"NAMESPACE" default:"dtindex"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" default:"1024"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" default:"1024"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" default:"30s"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" default:"60s"`
}

// ObservabilityConfig toggles tracing and metrics export
type ObservabilityConfig struct {
	ServiceName   string `yaml:"service_name" envconfig:"SERVICE_NAME" default:"dtindex"`
	EnableTracing bool   `yaml:"enable_tracing" envconfig:"ENABLE_TRACING" default:"false"`
	EnableMetrics bool   `yaml:"enable_metrics" envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPath   string `yaml:"metrics_path" envconfig:"METRICS_PATH" default:"/metrics"`
}

// Load builds the configuration from DTI_* environment variables and their
// defaults, then overlays an optional YAML file. Keys set in the file win.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile := getConfigFilePath(); configFile != "" {
		if err := loadFromFile(configFile, &cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file %s: %w", configFile, err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile overlays YAML configuration onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	switch strings.ToLower(c.Dataset.Source) {
	case SourceFile:
		if len(c.Dataset.Files) == 0 {
			return fmt.Errorf("dataset source %q needs at least one file", c.Dataset.Source)
		}
	case SourceSheets:
		if c.Dataset.SpreadsheetID == "" {
			return fmt.Errorf("dataset source %q needs a spreadsheet id", c.Dataset.Source)
		}
	default:
		return fmt.Errorf("unknown dataset source: %q", c.Dataset.Source)
	}
	c.Dataset.Source = strings.ToLower(c.Dataset.Source)

	if c.Dataset.ReloadSchedule != "" {
		if _, err := cron.ParseStandard(c.Dataset.ReloadSchedule); err != nil {
			return fmt.Errorf("invalid reload schedule %q: %w", c.Dataset.ReloadSchedule, err)
		}
		if _, err := time.LoadLocation(c.Dataset.ReloadTimezone); err != nil {
			return fmt.Errorf("invalid reload timezone %q: %w", c.Dataset.ReloadTimezone, err)
		}
	}

	if c.Lookup.MinYear > c.Lookup.MaxYear {
		return fmt.Errorf("lookup min year %d is after max year %d", c.Lookup.MinYear, c.Lookup.MaxYear)
	}
	if c.Lookup.DefaultYear < c.Lookup.MinYear || c.Lookup.DefaultYear > c.Lookup.MaxYear {
		return fmt.Errorf("lookup default year %d outside [%d, %d]",
			c.Lookup.DefaultYear, c.Lookup.MinYear, c.Lookup.MaxYear)
	}

	if c.Explorer.MaxStocks <= 0 {
		return fmt.Errorf("explorer max stocks must be positive")
	}
	if c.Explorer.RankingSize <= 0 {
		c.Explorer.RankingSize = DefaultRankingSize
	}

	if c.Logging.Format != "json" {
		// Logs are always structured
		c.Logging.Format = "json"
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG_FILE"); explicit != "" {
		return explicit
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  20 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Dataset: DatasetConfig{
			Source:         SourceFile,
			DataDir:        "data",
			Files:          []string{WorkbookFileName, FallbackCSVFileName},
			ReloadTimezone: "Asia/Shanghai",
			LoadTimeout:    2 * time.Minute,
			SheetRange:     "Sheet1",
		},
		Lookup: LookupConfig{
			MinYear:     2019,
			MaxYear:     2020,
			DefaultYear: 2020,
		},
		Explorer: ExplorerConfig{
			StockColumn:      "股票代码简称",
			CompanyColumn:    "企业名称",
			YearColumn:       "年份",
			IndustryColumn:   "行业名称_文件1",
			IndexColumn:      "数字化转型指数",
			FrequencyMarker:  "词频",
			MaxStocks:        DefaultMaxStocks,
			DefaultYearCount: 5,
			SearchFallback:   20,
			RankingSize:      DefaultRankingSize,
			MaxKeyColumns:    10,
		},
		Cache: CacheConfig{
			TTL:       10 * time.Minute,
			Namespace: "dtindex",
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
		},
		Observability: ObservabilityConfig{
			ServiceName:   AppName,
			EnableMetrics: true,
			MetricsPath:   "/metrics",
		},
	}
}
