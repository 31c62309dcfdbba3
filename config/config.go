package config

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Process exit codes for startup failures. ExitPushRejected is used by main
// when the bridge stops on a rejected push.
const (
	ExitPushRejected = 1
	ExitMissingToken = 2
	ExitInvalidToken = 3
)

const (
	DefaultConfigFile = "./config.json"
	placeholderToken  = "authentication_token"
	ntfyTokenPrefix   = "tk_"
)

var (
	ErrMissingToken = errors.New("option 'ntfy_auth' is set to 'true' but no 'ntfy_token' was set")
	ErrInvalidToken = errors.New("authentication token set in 'ntfy_token' is invalid")
)

type Config struct {
	NtfyBaseURL           string   `mapstructure:"ntfy_base_url"`
	NtfyTopic             string   `mapstructure:"ntfy_topic"`
	NtfyAuth              bool     `mapstructure:"ntfy_auth"`
	NtfyToken             string   `mapstructure:"ntfy_token"`
	NtfyPriority          int      `mapstructure:"ntfy_priority"`
	NtfyTags              []string `mapstructure:"ntfy_tags"`
	NtfyMaxPublishPerSec  float64  `mapstructure:"ntfy_max_publish_per_second"`
	NextcloudBaseURL      string   `mapstructure:"nextcloud_base_url"`
	NextcloudPath         string   `mapstructure:"nextcloud_notification_path"`
	NextcloudUsername     string   `mapstructure:"nextcloud_username"`
	NextcloudPassword     string   `mapstructure:"nextcloud_password"`
	NextcloudDisplayName  string   `mapstructure:"nextcloud_display_name"`
	PollIntervalSeconds   int      `mapstructure:"nextcloud_poll_interval_seconds"`
	ErrorSleepSeconds     int      `mapstructure:"nextcloud_error_sleep_seconds"`
	EmptySleepSeconds     int      `mapstructure:"nextcloud_204_sleep_seconds"`
	RateLimitSleepSeconds int      `mapstructure:"rate_limit_sleep_seconds"`
	HTTPTimeoutSeconds    int      `mapstructure:"http_timeout_seconds"`
	LogLevel              string   `mapstructure:"log_level"`
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func (c *Config) ErrorSleep() time.Duration {
	return time.Duration(c.ErrorSleepSeconds) * time.Second
}

// EmptySleep is only reported in logs, the loop keeps polling at
// PollInterval after a 204.
func (c *Config) EmptySleep() time.Duration {
	return time.Duration(c.EmptySleepSeconds) * time.Second
}

func (c *Config) RateLimitSleep() time.Duration {
	return time.Duration(c.RateLimitSleepSeconds) * time.Second
}

func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// NotificationsURL is the OCS endpoint listing pending notifications.
func (c *Config) NotificationsURL() string {
	return strings.TrimRight(c.NextcloudBaseURL, "/") + c.NextcloudPath
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("ntfy_base_url", "https://ntfy.sh")
	v.SetDefault("ntfy_topic", "nextcloud")
	v.SetDefault("ntfy_auth", false)
	v.SetDefault("ntfy_token", placeholderToken)
	v.SetDefault("ntfy_priority", 0)
	v.SetDefault("ntfy_tags", []string{})
	v.SetDefault("ntfy_max_publish_per_second", 0)
	v.SetDefault("nextcloud_base_url", "https://nextcloud.example.com")
	v.SetDefault("nextcloud_notification_path", "/ocs/v2.php/apps/notifications/api/v2/notifications")
	v.SetDefault("nextcloud_username", "user")
	v.SetDefault("nextcloud_password", "application_password")
	v.SetDefault("nextcloud_display_name", "Nextcloud")
	v.SetDefault("nextcloud_poll_interval_seconds", 60)
	v.SetDefault("nextcloud_error_sleep_seconds", 600)
	v.SetDefault("nextcloud_204_sleep_seconds", 3600)
	v.SetDefault("rate_limit_sleep_seconds", 600)
	v.SetDefault("http_timeout_seconds", 30)
	v.SetDefault("log_level", "INFO")
}

// Load reads configFile into v and decodes it over the defaults. A missing
// or undecodable file is logged and the defaults are used instead.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)
	v.AutomaticEnv()
	if configFile == "" {
		configFile = DefaultConfigFile
	}
	v.SetConfigFile(configFile)
	if filepath.Ext(configFile) == "" {
		v.SetConfigType("json")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			slog.Warn("configuration file not found, using default values", slog.String("file", configFile))
		} else {
			slog.Warn("can't decode configuration file, using default values",
				slog.String("file", configFile), slog.String("err", err.Error()))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshalling config")
	}

	if err := cfg.Validate(); err != nil {
		return &cfg, err
	}
	return &cfg, nil
}

// Validate checks the ntfy authentication options. With auth disabled the
// token is cleared so it is never sent.
func (c *Config) Validate() error {
	if !c.NtfyAuth {
		c.NtfyToken = ""
		return nil
	}
	if c.NtfyToken == "" || c.NtfyToken == placeholderToken {
		return ErrMissingToken
	}
	if !strings.HasPrefix(c.NtfyToken, ntfyTokenPrefix) {
		return ErrInvalidToken
	}
	return nil
}

// ExitCode maps a Load error to the process exit status.
func ExitCode(err error) int {
	switch {
	case errors.Is(err, ErrMissingToken):
		return ExitMissingToken
	case errors.Is(err, ErrInvalidToken):
		return ExitInvalidToken
	default:
		return 1
	}
}

func MustLoadConfig(v *viper.Viper, configFile string) *Config {
	cfg, err := Load(v, configFile)
	if err != nil {
		slog.Error("can't initialize config.", slog.String("err", err.Error()))
		os.Exit(ExitCode(err))
	}

	return cfg
}
