package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Upstream directory service
	APIURL        string   `mapstructure:"api_url" yaml:"api_url"`
	Results       int      `mapstructure:"results" yaml:"results"`
	Seed          string   `mapstructure:"seed" yaml:"seed"`
	Nationalities []string `mapstructure:"nationalities" yaml:"nationalities"`
	Pages         int      `mapstructure:"pages" yaml:"pages"`
	// FetchConcurrency bounds parallel page requests.
	FetchConcurrency int `mapstructure:"fetch_concurrency" yaml:"fetch_concurrency"`
	// RateLimitRPS caps outgoing requests per second; 0 disables limiting.
	RateLimitRPS float64 `mapstructure:"rate_limit_rps" yaml:"rate_limit_rps"`
	// BreakerFailures is the consecutive failure count that opens the circuit.
	BreakerFailures int `mapstructure:"breaker_failures" yaml:"breaker_failures"`

	// Local data (user cache + state)
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".userdeck"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.userdeck/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := defaultDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("USERDECK")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("api_url", "https://randomuser.me/api")
	v.SetDefault("results", 1000)
	v.SetDefault("seed", "windy")
	v.SetDefault("nationalities", []string{"us", "gb", "ca", "au"})
	v.SetDefault("pages", 1)
	v.SetDefault("fetch_concurrency", 4)
	v.SetDefault("rate_limit_rps", 2.0)
	v.SetDefault("breaker_failures", 5)
	v.SetDefault("log_level", "warn")
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// Resolve data_dir default: ~/.userdeck/data
	if c.DataDir == "" {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		c.DataDir = filepath.Join(dir, "data")
	}
	return &c, nil
}
