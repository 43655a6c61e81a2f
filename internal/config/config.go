package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Session modes.
const (
	SessionModeCookie   = "cookie"
	SessionModePassword = "password"
	SessionModeBrowser  = "browser"
)

// Config stores all configuration for the application.
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`

	PostgresURL          string `mapstructure:"POSTGRES_URL"`
	RedisAddr            string `mapstructure:"REDIS_ADDR"`
	RedisPassword        string `mapstructure:"REDIS_PASSWORD"`
	RedisDB              int    `mapstructure:"REDIS_DB"`
	OrgCacheTTLHours     int    `mapstructure:"ORG_CACHE_TTL_HOURS"`
	ScrapeLockTTLMinutes int    `mapstructure:"SCRAPE_LOCK_TTL_MINUTES"`

	LinkedInBaseURL     string `mapstructure:"LINKEDIN_BASE_URL"`
	SessionMode         string `mapstructure:"SESSION_MODE"`
	LiAt                string `mapstructure:"LI_AT"`
	JSessionID          string `mapstructure:"JSESSIONID"`
	LinkedInUsername    string `mapstructure:"LINKEDIN_USERNAME"`
	LinkedInPassword    string `mapstructure:"LINKEDIN_PASSWORD"`
	BrowserLoginTimeout int    `mapstructure:"BROWSER_LOGIN_TIMEOUT"` // in seconds
	HTTPTimeout         int    `mapstructure:"HTTP_TIMEOUT"`          // in seconds
	RequestMinInterval  int    `mapstructure:"REQUEST_MIN_INTERVAL_MS"`
	Proxies             string `mapstructure:"PROXIES"` // comma separated

	DimensionWorkers int    `mapstructure:"DIMENSION_WORKERS"`
	OutputDir        string `mapstructure:"OUTPUT_DIR"`
	WriteFiles       bool   `mapstructure:"WRITE_FILES"`
}

// Load reads configuration from file or environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Attempt to read the .env file, but don't fail if it's not present
	// This allows configuration purely through environment variables in production
	_ = v.ReadInConfig()

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	// empty store addresses disable persistence; bound so AutomaticEnv sees them
	v.SetDefault("POSTGRES_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ORG_CACHE_TTL_HOURS", 24)
	v.SetDefault("SCRAPE_LOCK_TTL_MINUTES", 60)
	v.SetDefault("LINKEDIN_BASE_URL", "https://www.linkedin.com")
	v.SetDefault("SESSION_MODE", SessionModeCookie)
	v.SetDefault("LI_AT", "")
	v.SetDefault("JSESSIONID", "")
	v.SetDefault("LINKEDIN_USERNAME", "")
	v.SetDefault("LINKEDIN_PASSWORD", "")
	v.SetDefault("BROWSER_LOGIN_TIMEOUT", 180)
	v.SetDefault("HTTP_TIMEOUT", 30)
	v.SetDefault("REQUEST_MIN_INTERVAL_MS", 0)
	v.SetDefault("PROXIES", "")
	v.SetDefault("DIMENSION_WORKERS", 1)
	v.SetDefault("OUTPUT_DIR", "output")
	v.SetDefault("WRITE_FILES", true)
}

// Validate checks the settings that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.SessionMode {
	case SessionModeCookie:
	case SessionModePassword:
		if c.LinkedInUsername == "" || c.LinkedInPassword == "" {
			return errors.New("SESSION_MODE=password needs LINKEDIN_USERNAME and LINKEDIN_PASSWORD")
		}
	case SessionModeBrowser:
	default:
		return errors.New("SESSION_MODE must be one of cookie, password, browser")
	}
	if c.DimensionWorkers < 1 {
		return errors.New("DIMENSION_WORKERS must be at least 1")
	}
	return nil
}

// ProxyList splits PROXIES.
func (c *Config) ProxyList() []string {
	var out []string
	for _, p := range strings.Split(c.Proxies, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) HTTPTimeoutDuration() time.Duration {
	return time.Duration(c.HTTPTimeout) * time.Second
}

func (c *Config) BrowserLoginTimeoutDuration() time.Duration {
	return time.Duration(c.BrowserLoginTimeout) * time.Second
}

func (c *Config) RequestMinIntervalDuration() time.Duration {
	return time.Duration(c.RequestMinInterval) * time.Millisecond
}

func (c *Config) OrgCacheTTL() time.Duration {
	return time.Duration(c.OrgCacheTTLHours) * time.Hour
}

func (c *Config) ScrapeLockTTL() time.Duration {
	return time.Duration(c.ScrapeLockTTLMinutes) * time.Minute
}
