package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Search   SearchConfig   `yaml:"search" mapstructure:"search"`
	Download DownloadConfig `yaml:"download" mapstructure:"download"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Browser  BrowserConfig  `yaml:"browser" mapstructure:"browser"`
	Match    MatchConfig    `yaml:"match" mapstructure:"match"`
	OCR      OCRConfig      `yaml:"ocr" mapstructure:"ocr"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// SearchConfig configures the custom search API and the discovery query.
type SearchConfig struct {
	APIKey             string  `yaml:"api_key" mapstructure:"api_key"`
	CSEID              string  `yaml:"cse_id" mapstructure:"cse_id"`
	BaseURL            string  `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`
	QueryTemplate      string  `yaml:"query_template" mapstructure:"query_template" validate:"required"`
	NumResults         int     `yaml:"num_results" mapstructure:"num_results" validate:"min=1,max=10"`
	Year               int     `yaml:"year" mapstructure:"year" validate:"min=0"`
	RatePerSec         float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec" validate:"min=0"`
	TimeoutSecs        int     `yaml:"timeout_secs" mapstructure:"timeout_secs" validate:"min=0"`
	CaseInsensitivePDF bool    `yaml:"case_insensitive_pdf" mapstructure:"case_insensitive_pdf"`
}

// DownloadConfig configures report downloads.
type DownloadConfig struct {
	DataDir            string `yaml:"data_dir" mapstructure:"data_dir" validate:"required"`
	UserAgent          string `yaml:"user_agent" mapstructure:"user_agent" validate:"required"`
	TimeoutSecs        int    `yaml:"timeout_secs" mapstructure:"timeout_secs" validate:"min=0"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify" mapstructure:"insecure_skip_verify"`
	MaxAttempts        int    `yaml:"max_attempts" mapstructure:"max_attempts" validate:"min=1"`
}

// StoreConfig configures the result table backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver" validate:"oneof=csv sqlite postgres"`
	LoadPath    string `yaml:"load_path" mapstructure:"load_path"`
	SavePath    string `yaml:"save_path" mapstructure:"save_path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Dedup       bool   `yaml:"dedup" mapstructure:"dedup"`
}

// BrowserConfig configures headless page rendering.
type BrowserConfig struct {
	TimeoutSecs int  `yaml:"timeout_secs" mapstructure:"timeout_secs" validate:"min=1"`
	NoSandbox   bool `yaml:"no_sandbox" mapstructure:"no_sandbox"`
}

// MatchConfig configures fuzzy reconciliation.
type MatchConfig struct {
	Threshold int `yaml:"threshold" mapstructure:"threshold" validate:"min=0,max=100"`
	Limit     int `yaml:"limit" mapstructure:"limit" validate:"min=0"`
}

// OCRConfig configures PDF text extraction.
type OCRConfig struct {
	Provider      string `yaml:"provider" mapstructure:"provider" validate:"oneof=local mistral"`
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	MistralKey    string `yaml:"mistral_key" mapstructure:"mistral_key"`
	MistralModel  string `yaml:"mistral_model" mapstructure:"mistral_model"`
	MistralURL    string `yaml:"mistral_url" mapstructure:"mistral_url" validate:"required,url"`
	Concurrency   int    `yaml:"concurrency" mapstructure:"concurrency" validate:"min=1"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=json console"`
}

// Load reads configuration from .env, config.yaml and the environment.
func Load() (*Config, error) {
	// Credentials usually live in .env; a missing file is fine.
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("REPORTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("search.api_key", "")
	v.SetDefault("search.cse_id", "")
	v.SetDefault("search.base_url", "https://www.googleapis.com/customsearch/v1")
	v.SetDefault("search.query_template", "sustainability report pdf")
	v.SetDefault("search.num_results", 5)
	v.SetDefault("search.year", 0)
	v.SetDefault("search.rate_per_sec", 0)
	v.SetDefault("search.timeout_secs", 0)
	v.SetDefault("search.case_insensitive_pdf", false)
	v.SetDefault("download.data_dir", "data/reports")
	v.SetDefault("download.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/74.0.3729.169 Safari/537.36")
	v.SetDefault("download.timeout_secs", 30)
	v.SetDefault("download.insecure_skip_verify", true)
	v.SetDefault("download.max_attempts", 1)
	v.SetDefault("store.driver", "csv")
	v.SetDefault("store.load_path", "searchresult/report_urls.csv")
	v.SetDefault("store.save_path", "searchresult/report_urls.csv")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.dedup", false)
	v.SetDefault("browser.timeout_secs", 60)
	v.SetDefault("browser.no_sandbox", false)
	v.SetDefault("match.threshold", 80)
	v.SetDefault("match.limit", 1)
	v.SetDefault("ocr.provider", "local")
	v.SetDefault("ocr.pdftotext_path", "pdftotext")
	v.SetDefault("ocr.mistral_key", "")
	v.SetDefault("ocr.mistral_model", "mistral-ocr-latest")
	v.SetDefault("ocr.mistral_url", "https://api.mistral.ai/v1")
	v.SetDefault("ocr.concurrency", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := cfg.ValidateStructure(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ValidateStructure checks field ranges and enumerations. It does not
// require credentials; see Validate.
func (c *Config) ValidateStructure() error {
	if err := validator.New().Struct(c); err != nil {
		return eris.Wrap(err, "config: validate")
	}
	return nil
}

// Validate checks that everything the given command mode needs is present.
// Modes: discover, download, render, match, stats, ocr.
func (c *Config) Validate(mode string) error {
	var errs []string

	needsStore := false
	switch mode {
	case "discover":
		needsStore = true
		if c.Search.APIKey == "" {
			errs = append(errs, "search.api_key is required (REPORTS_SEARCH_API_KEY)")
		}
		if c.Search.CSEID == "" {
			errs = append(errs, "search.cse_id is required (REPORTS_SEARCH_CSE_ID)")
		}
	case "stats":
		needsStore = true
	case "ocr":
		if c.OCR.Provider == "mistral" && c.OCR.MistralKey == "" {
			errs = append(errs, "ocr.mistral_key is required for the mistral provider (REPORTS_OCR_MISTRAL_KEY)")
		}
	case "download", "render", "match":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if needsStore {
		switch c.Store.Driver {
		case "csv":
			if c.Store.SavePath == "" {
				errs = append(errs, "store.save_path is required for the csv driver")
			}
		case "sqlite", "postgres":
			if c.Store.DatabaseURL == "" {
				errs = append(errs, "store.database_url is required for the "+c.Store.Driver+" driver")
			}
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
