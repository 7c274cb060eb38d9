package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the client and the development backend
type Config struct {
	API          APIConfig          `yaml:"api" mapstructure:"api"`
	Session      SessionConfig      `yaml:"session" mapstructure:"session"`
	Poll         PollConfig         `yaml:"poll" mapstructure:"poll"`
	Countdown    CountdownConfig    `yaml:"countdown" mapstructure:"countdown"`
	Registration RegistrationConfig `yaml:"registration" mapstructure:"registration"`
	Realtime     RealtimeConfig     `yaml:"realtime" mapstructure:"realtime"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Database     DatabaseConfig     `yaml:"database" mapstructure:"database"`
	Redis        RedisConfig        `yaml:"redis" mapstructure:"redis"`
	AWS          AWSConfig          `yaml:"aws" mapstructure:"aws"`
	JWT          JWTConfig          `yaml:"jwt" mapstructure:"jwt"`
	APNs         APNsConfig         `yaml:"apns" mapstructure:"apns"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// APIConfig holds the backend location used by the client
type APIConfig struct {
	BaseURL string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// SessionConfig holds where the session pair is persisted
type SessionConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// PollConfig holds message polling configuration
type PollConfig struct {
	Interval        time.Duration `yaml:"interval" mapstructure:"interval"`
	ChangeDetection string        `yaml:"change_detection" mapstructure:"change_detection"`
}

// CountdownConfig holds countdown refresh configuration
type CountdownConfig struct {
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// RegistrationConfig selects the registration variant
type RegistrationConfig struct {
	WithInterests bool `yaml:"with_interests" mapstructure:"with_interests"`
}

// RealtimeConfig toggles the websocket nudge listener
type RealtimeConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int    `yaml:"port" mapstructure:"port"`
	Host string `yaml:"host" mapstructure:"host"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	DBName   string `yaml:"dbname" mapstructure:"dbname"`
	SSLMode  string `yaml:"sslmode" mapstructure:"sslmode"`
}

// RedisConfig holds the rate limiter store address. Empty disables limiting.
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
}

// AWSConfig holds S3-compatible storage configuration
type AWSConfig struct {
	Region    string `yaml:"region" mapstructure:"region"`
	S3Bucket  string `yaml:"s3_bucket" mapstructure:"s3_bucket"`
	AccessKey string `yaml:"access_key" mapstructure:"access_key"`
	SecretKey string `yaml:"secret_key" mapstructure:"secret_key"`
	Endpoint  string `yaml:"endpoint" mapstructure:"endpoint"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string `yaml:"secret" mapstructure:"secret"`
}

// APNsConfig holds token-based APNs credentials. Empty KeyFile disables push.
type APNsConfig struct {
	KeyFile    string `yaml:"key_file" mapstructure:"key_file"`
	KeyID      string `yaml:"key_id" mapstructure:"key_id"`
	TeamID     string `yaml:"team_id" mapstructure:"team_id"`
	Topic      string `yaml:"topic" mapstructure:"topic"`
	Production bool   `yaml:"production" mapstructure:"production"`
}

// RateLimitConfig holds message send quotas
type RateLimitConfig struct {
	MessagesPerMinute int `yaml:"messages_per_minute" mapstructure:"messages_per_minute"`
	MessagesPer10Sec  int `yaml:"messages_per_10s" mapstructure:"messages_per_10s"`
}

// Load reads configuration from a YAML file, overlaid with APONTE_* environment
// variables. A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APONTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Poll.Interval <= 0 {
		cfg.Poll.Interval = time.Second
	}
	if cfg.Countdown.Interval <= 0 {
		cfg.Countdown.Interval = time.Second
	}
	if cfg.API.Timeout <= 0 {
		cfg.API.Timeout = 10 * time.Second
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8080")
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("session.path", "aponte-session.yaml")
	v.SetDefault("poll.interval", time.Second)
	v.SetDefault("poll.change_detection", "fingerprint")
	v.SetDefault("countdown.interval", time.Second)
	v.SetDefault("registration.with_interests", false)
	v.SetDefault("realtime.enabled", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "aponte")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "aponte")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("aws.s3_bucket", "")
	v.SetDefault("aws.access_key", "")
	v.SetDefault("aws.secret_key", "")
	v.SetDefault("aws.endpoint", "")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("apns.key_file", "")
	v.SetDefault("apns.key_id", "")
	v.SetDefault("apns.team_id", "")
	v.SetDefault("apns.topic", "")
	v.SetDefault("apns.production", false)
	v.SetDefault("rate_limit.messages_per_minute", 30)
	v.SetDefault("rate_limit.messages_per_10s", 10)
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// Addr returns the listen address of the development backend
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
