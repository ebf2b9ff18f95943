// Package config loads the run configuration from environment variables, an
// optional YAML file and CLI flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/John-Robertt/free-servers/internal/fetch"
	"github.com/John-Robertt/free-servers/internal/model"
)

type Config struct {
	Cloudflare CloudflareConfig `mapstructure:"cloudflare"`
	Fetch      FetchConfig      `mapstructure:"fetch"`
	Sample     SampleConfig     `mapstructure:"sample"`
	Output     OutputConfig     `mapstructure:"output"`
	Logger     LoggerConfig     `mapstructure:"logger"`
}

type CloudflareConfig struct {
	AccountID   string `mapstructure:"account_id"`
	NamespaceID string `mapstructure:"namespace_id"`
	APIToken    string `mapstructure:"api_token"`
	KVKey       string `mapstructure:"kv_key" validate:"required"`
	APIBase     string `mapstructure:"api_base" validate:"omitempty,url"`
}

type FetchConfig struct {
	Timeout  time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxBytes int64         `mapstructure:"max_bytes" validate:"gt=0"`
}

type SampleConfig struct {
	Count int `mapstructure:"count" validate:"gt=0"`
}

type OutputConfig struct {
	Path            string `mapstructure:"path" validate:"required"`
	HTML            string `mapstructure:"html" validate:"omitempty,nefield=Path"`
	SubscriptionURL string `mapstructure:"subscription_url" validate:"omitempty,url"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format" validate:"omitempty,oneof=console json"`
	OutputPath string `mapstructure:"output_path"`
}

const (
	DefaultKVKey           = "data"
	DefaultAPIBase         = fetch.DefaultAPIBase
	DefaultFetchTimeout    = 30 * time.Second
	DefaultFetchMaxBytes   = 5 * 1024 * 1024
	DefaultSampleCount     = 3
	DefaultOutputPath      = "README.md"
	DefaultSubscriptionURL = "https://jcnode.top/clash"
)

// envBindings keeps the variable names used by the existing GitHub workflow.
var envBindings = map[string]string{
	"cloudflare.account_id":   "CF_ACCOUNT_ID",
	"cloudflare.namespace_id": "CF_NAMESPACE_ID",
	"cloudflare.api_token":    "CF_API_TOKEN",
	"cloudflare.kv_key":       "CF_KV_KEY",
	"cloudflare.api_base":     "CF_API_BASE",
}

const envPrefix = "FREE_SERVERS"

// NewViper returns a viper instance with defaults and environment bindings.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	for key, env := range envBindings {
		// BindEnv only fails without a key.
		_ = v.BindEnv(key, env)
	}
	return v
}

// Load reads configFile (when non-empty) into v and decodes the result.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("cloudflare.kv_key", DefaultKVKey)
	v.SetDefault("cloudflare.api_base", DefaultAPIBase)

	v.SetDefault("fetch.timeout", DefaultFetchTimeout)
	v.SetDefault("fetch.max_bytes", DefaultFetchMaxBytes)

	v.SetDefault("sample.count", DefaultSampleCount)

	v.SetDefault("output.path", DefaultOutputPath)
	v.SetDefault("output.html", "")
	v.SetDefault("output.subscription_url", DefaultSubscriptionURL)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")
}

type ConfigError struct {
	AppError model.AppError
	Missing  []string
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.AppError.Format(nil)
}

// IsMissing reports whether err is a missing-settings error.
func IsMissing(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce) && ce.AppError.Code == "CONFIG_MISSING"
}

// Validate checks the required Cloudflare settings first, then value ranges.
func (c *Config) Validate() error {
	var missing []string
	required := []struct {
		env   string
		value string
	}{
		{envBindings["cloudflare.account_id"], c.Cloudflare.AccountID},
		{envBindings["cloudflare.namespace_id"], c.Cloudflare.NamespaceID},
		{envBindings["cloudflare.api_token"], c.Cloudflare.APIToken},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.env)
		}
	}
	if len(missing) > 0 {
		return &ConfigError{
			AppError: model.AppError{
				Code:    "CONFIG_MISSING",
				Message: "缺少 Cloudflare 配置环境变量",
				Stage:   model.StageConfig,
				Hint:    "missing: " + strings.Join(missing, ", "),
			},
			Missing: missing,
		}
	}

	return validateRanges(c)
}

func invalid(msg string) error {
	return &ConfigError{
		AppError: model.AppError{
			Code:    "INVALID_ARGUMENT",
			Message: msg,
			Stage:   model.StageConfig,
		},
	}
}
