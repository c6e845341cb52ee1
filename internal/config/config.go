package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// APIConfig describes the markets request.
type APIConfig struct {
	Crypto            []string `mapstructure:"crypto"`
	Currency          string   `mapstructure:"currency"`
	Endpoint          string   `mapstructure:"endpoint"`
	Order             string   `mapstructure:"order"`
	PerPage           int      `mapstructure:"per_page"`
	Page              int      `mapstructure:"page"`
	Sparkline         bool     `mapstructure:"sparkline"`
	RequestsPerMinute float64  `mapstructure:"requests_per_minute"`
}

// HTTPConfig tunes the HTTP client.
type HTTPConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	RetryCount   int           `mapstructure:"retry_count"`
	RetryWait    time.Duration `mapstructure:"retry_wait"`
	RetryMaxWait time.Duration `mapstructure:"retry_max_wait"`
}

// PathsConfig holds the working folders.
type PathsConfig struct {
	Raw       string `mapstructure:"raw"`
	Processed string `mapstructure:"processed"`
	Output    string `mapstructure:"output"`
	Logs      string `mapstructure:"logs"`
	Tests     string `mapstructure:"tests"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// Config holds all configuration for the ETL pipeline.
type Config struct {
	API   APIConfig   `mapstructure:"api"`
	HTTP  HTTPConfig  `mapstructure:"http"`
	Paths PathsConfig `mapstructure:"paths"`
	Log   LogConfig   `mapstructure:"log"`
}

// Load reads configuration from config/config.yaml (or ./config.yaml) and
// environment variables. Environment variables take precedence over config
// file values and are read from a .env file when one is present.
//
// Every key can be overridden as CRYPTOETL_<SECTION>_<KEY>, for example:
//   - CRYPTOETL_API_CRYPTO (comma separated coin ids)
//   - CRYPTOETL_API_CURRENCY
//   - CRYPTOETL_API_ENDPOINT
//   - CRYPTOETL_PATHS_RAW
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("config")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return decode(v)
}

// LoadFile reads configuration from an explicit YAML file, with the same
// environment overrides as Load.
func LoadFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()

	v.SetEnvPrefix("cryptoetl")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("api.currency", "usd")
	v.SetDefault("api.endpoint", "https://api.coingecko.com/api/v3/coins/markets")
	v.SetDefault("api.order", "market_cap_desc")
	v.SetDefault("api.per_page", 0)
	v.SetDefault("api.page", 1)
	v.SetDefault("api.sparkline", false)
	v.SetDefault("api.requests_per_minute", 30)

	v.SetDefault("http.timeout", 30*time.Second)
	v.SetDefault("http.retry_count", 3)
	v.SetDefault("http.retry_wait", time.Second)
	v.SetDefault("http.retry_max_wait", 10*time.Second)

	v.SetDefault("paths.raw", "data/raw")
	v.SetDefault("paths.processed", "data/processed")
	v.SetDefault("paths.output", "data/output")
	v.SetDefault("paths.logs", "logs")
	v.SetDefault("paths.tests", "tests")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 5)

	// api.crypto has no default, so AutomaticEnv alone would never see it
	v.BindEnv("api.crypto", "CRYPTOETL_API_CRYPTO")

	return v
}

func decode(v *viper.Viper) (*Config, error) {
	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.API.Crypto = cleanList(config.API.Crypto)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate reports every missing required value at once.
func (c *Config) Validate() error {
	var missing []string
	if len(c.API.Crypto) == 0 {
		missing = append(missing, "api.crypto")
	}
	if c.API.Currency == "" {
		missing = append(missing, "api.currency")
	}
	if c.API.Endpoint == "" {
		missing = append(missing, "api.endpoint")
	}

	paths := []struct{ key, value string }{
		{"paths.raw", c.Paths.Raw},
		{"paths.processed", c.Paths.Processed},
		{"paths.output", c.Paths.Output},
		{"paths.logs", c.Paths.Logs},
		{"paths.tests", c.Paths.Tests},
	}
	for _, p := range paths {
		if p.value == "" {
			missing = append(missing, p.key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
