package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		Primary        string `yaml:"primary"`
		PolygonAPIKey  string `yaml:"polygon_api_key"`
		PolygonBaseURL string `yaml:"polygon_base_url"`
		YahooBaseURL   string `yaml:"yahoo_base_url"`
		MaxPages       int    `yaml:"max_pages"`
	} `yaml:"data_source"`
	Greeks struct {
		RiskFreeRate      float64 `yaml:"risk_free_rate"`
		FixedDays         int     `yaml:"fixed_days"`
		ExpiryMode        string  `yaml:"expiry_mode"`
		ContractSelection string  `yaml:"contract_selection"`
	} `yaml:"greeks"`
	Commentary struct {
		Enabled     bool    `yaml:"enabled"`
		APIKey      string  `yaml:"api_key"`
		BaseURL     string  `yaml:"base_url"`
		Model       string  `yaml:"model"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float64 `yaml:"temperature"`
	} `yaml:"commentary"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Log struct {
		ErrorFile string `yaml:"error_file"`
	} `yaml:"log"`
	Defaults struct {
		Symbol    string `yaml:"symbol"`
		Range     string `yaml:"range"`
		Timeframe string `yaml:"timeframe"`
	} `yaml:"defaults"`
	Proxy string `yaml:"proxy"`
}

const (
	PrimaryPolygon = "polygon"
	PrimaryYahoo   = "yahoo"

	ExpiryContract = "contract"
	ExpiryFixed    = "fixed"

	SelectFirst = "first"
	SelectATM   = "atm"
)

// Load starts from Default, overlays the YAML file, then .env and environment
// variables. Keys the file sets keep their value even when it is zero.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DATA_SOURCE"); v != "" {
		cfg.DataSource.Primary = v
	}
	if v := os.Getenv("POLYGON_API_KEY"); v != "" {
		cfg.DataSource.PolygonAPIKey = v
	}
	if v := os.Getenv("POLYGON_BASE_URL"); v != "" {
		cfg.DataSource.PolygonBaseURL = v
	}
	if v := os.Getenv("YAHOO_BASE_URL"); v != "" {
		cfg.DataSource.YahooBaseURL = v
	}
	if v := os.Getenv("POLYGON_MAX_PAGES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DataSource.MaxPages = n
		}
	}
	if v := os.Getenv("RISK_FREE_RATE"); v != "" {
		if r, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Greeks.RiskFreeRate = r
		}
	}
	if v := os.Getenv("GREEKS_EXPIRY_MODE"); v != "" {
		cfg.Greeks.ExpiryMode = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Commentary.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.Commentary.BaseURL = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.Commentary.Model = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("ERROR_LOG_FILE"); v != "" {
		cfg.Log.ErrorFile = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	cfg := &Config{}
	cfg.DataSource.Primary = PrimaryPolygon
	cfg.DataSource.MaxPages = 1
	cfg.Greeks.RiskFreeRate = 0.01
	cfg.Greeks.FixedDays = 30
	cfg.Greeks.ExpiryMode = ExpiryContract
	cfg.Greeks.ContractSelection = SelectFirst
	cfg.Commentary.BaseURL = "https://api.openai.com/v1"
	cfg.Commentary.Model = "gpt-3.5-turbo"
	cfg.Commentary.MaxTokens = 150
	cfg.Commentary.Temperature = 0.7
	cfg.Server.Addr = ":8080"
	cfg.Log.ErrorFile = "stock_app_error.log"
	cfg.Defaults.Symbol = "AAPL"
	cfg.Defaults.Range = "1 Month"
	cfg.Defaults.Timeframe = "1 Day"
	return cfg
}

// Validate checks enumerated values and numeric bounds.
func (c *Config) Validate() error {
	switch c.DataSource.Primary {
	case PrimaryPolygon, PrimaryYahoo:
	default:
		return fmt.Errorf("data_source.primary must be %q or %q, got %q", PrimaryPolygon, PrimaryYahoo, c.DataSource.Primary)
	}
	if c.DataSource.MaxPages < 1 {
		return fmt.Errorf("data_source.max_pages must be at least 1")
	}
	switch c.Greeks.ExpiryMode {
	case ExpiryContract, ExpiryFixed:
	default:
		return fmt.Errorf("greeks.expiry_mode must be %q or %q, got %q", ExpiryContract, ExpiryFixed, c.Greeks.ExpiryMode)
	}
	switch c.Greeks.ContractSelection {
	case SelectFirst, SelectATM:
	default:
		return fmt.Errorf("greeks.contract_selection must be %q or %q, got %q", SelectFirst, SelectATM, c.Greeks.ContractSelection)
	}
	if c.Greeks.FixedDays <= 0 {
		return fmt.Errorf("greeks.fixed_days must be positive")
	}
	if c.Greeks.RiskFreeRate < -1 || c.Greeks.RiskFreeRate > 1 {
		return fmt.Errorf("greeks.risk_free_rate must be a yearly fraction between -1 and 1, got %g", c.Greeks.RiskFreeRate)
	}
	if c.Commentary.Temperature < 0 || c.Commentary.Temperature > 2 {
		return fmt.Errorf("commentary.temperature must be between 0 and 2, got %g", c.Commentary.Temperature)
	}
	if c.Commentary.MaxTokens <= 0 {
		return fmt.Errorf("commentary.max_tokens must be positive")
	}
	if c.Commentary.Enabled && c.Commentary.APIKey == "" {
		return fmt.Errorf("commentary.api_key is required when commentary is enabled")
	}
	return nil
}

// TelegramEnabled reports whether bot credentials are present.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
