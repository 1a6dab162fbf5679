package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Gemini  GeminiConfig  `yaml:"gemini"`
	SMTP    SMTPConfig    `yaml:"smtp"`
	Archive ArchiveConfig `yaml:"archive"`
	Store   StoreConfig   `yaml:"store"`
	Session SessionConfig `yaml:"session"`
	Auth    AuthConfig    `yaml:"auth"`
	Payment PaymentConfig `yaml:"payment"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

type GeminiConfig struct {
	APIURL          string `yaml:"api_url"`
	APIKey          string `yaml:"api_key"`
	Model           string `yaml:"model"`
	PollIntervalSec int    `yaml:"poll_interval_sec"`
	PollTimeoutSec  int    `yaml:"poll_timeout_sec"`
	RetryDelaySec   int    `yaml:"retry_delay_sec"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	FromName string `yaml:"from_name"`
}

type ArchiveConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type SessionConfig struct {
	MaxSessions int `yaml:"max_sessions"`
	TTLHours    int `yaml:"ttl_hours"`
}

type AuthConfig struct {
	JWTSecret         string `yaml:"jwt_secret"`
	TokenExpireHours  int    `yaml:"token_expire_hours"`
	AdminPasswordHash string `yaml:"admin_password_hash"` // bcrypt
}

type PaymentConfig struct {
	DelayMs     int `yaml:"delay_ms"`
	AmountPaise int `yaml:"amount_paise"`
}

var GlobalConfig *Config

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Gemini.APIURL == "" {
		cfg.Gemini.APIURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = "gemini-flash-latest"
	}
	if cfg.Gemini.PollIntervalSec == 0 {
		cfg.Gemini.PollIntervalSec = 1
	}
	if cfg.Gemini.PollTimeoutSec == 0 {
		cfg.Gemini.PollTimeoutSec = 120
	}
	if cfg.Gemini.RetryDelaySec == 0 {
		cfg.Gemini.RetryDelaySec = 10
	}
	if cfg.SMTP.Port == 0 {
		cfg.SMTP.Port = 587
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "dastaavej.db"
	}
	if cfg.Session.MaxSessions == 0 {
		cfg.Session.MaxSessions = 1000
	}
	if cfg.Session.TTLHours == 0 {
		cfg.Session.TTLHours = 12
	}
	if cfg.Auth.TokenExpireHours == 0 {
		cfg.Auth.TokenExpireHours = 24
	}
	if cfg.Payment.DelayMs == 0 {
		cfg.Payment.DelayMs = 1000
	}
	if cfg.Payment.AmountPaise == 0 {
		cfg.Payment.AmountPaise = 9900 // Rs 99
	}

	GlobalConfig = &cfg
	return &cfg, nil
}

// PollInterval returns the Gemini file polling interval as a duration.
func (c *GeminiConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSec) * time.Second
}

// PollTimeout returns the maximum total wait for file processing.
func (c *GeminiConfig) PollTimeout() time.Duration {
	return time.Duration(c.PollTimeoutSec) * time.Second
}

// RetryDelay returns the wait before the single rate-limit retry.
func (c *GeminiConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySec) * time.Second
}
