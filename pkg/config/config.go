package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Spotify  SpotifyConfig  `mapstructure:"spotify"`
	Matching MatchingConfig `mapstructure:"matching"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig for HTTP server settings
type ServerConfig struct {
	Port         string `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout_seconds"`
	WriteTimeout int    `mapstructure:"write_timeout_seconds"`
}

// DatabaseConfig selects the catalog store. Driver is sqlite3 or postgres.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Path     string `mapstructure:"path"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SpotifyConfig for Spotify API
type SpotifyConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURI  string `mapstructure:"redirect_uri"`
	APIBaseURL   string `mapstructure:"api_base_url"`
	TimeRange    string `mapstructure:"time_range"`
}

type MatchingConfig struct {
	SlotWidthMinutes int     `mapstructure:"slot_width_minutes"`
	BatchSize        int     `mapstructure:"batch_size"`
	Concurrency      int     `mapstructure:"concurrency"`
	RankDiscountStep float64 `mapstructure:"rank_discount_step"`
}

type CacheConfig struct {
	TTLMinutes int `mapstructure:"ttl_minutes"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from an optional YAML or JSON file and the
// environment. Environment variables override file values using the pattern
// LINEUP_SECTION_KEY, and a .env file in the working directory is loaded
// first when present.
func Load(configPath string) (*Config, error) {
	loadEnvFile(".env")

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LINEUP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile(path string) {
	if _, err := os.Stat(path); err == nil {
		_ = godotenv.Load(path)
	}
}

// Every key needs a default so AutomaticEnv can see it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout_seconds", 30)
	v.SetDefault("server.write_timeout_seconds", 30)

	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.path", "./lineup.db")
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "")
	v.SetDefault("database.ssl_mode", "disable")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("spotify.client_id", "")
	v.SetDefault("spotify.client_secret", "")
	v.SetDefault("spotify.redirect_uri", "")
	v.SetDefault("spotify.api_base_url", "https://api.spotify.com/v1")
	v.SetDefault("spotify.time_range", "medium_term")

	v.SetDefault("matching.slot_width_minutes", 120)
	v.SetDefault("matching.batch_size", 10)
	v.SetDefault("matching.concurrency", 4)
	v.SetDefault("matching.rank_discount_step", 0.1)

	v.SetDefault("cache.ttl_minutes", 30)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetDSN returns the connection string for the configured driver
func (c *DatabaseConfig) GetDSN() string {
	if c.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
	}
	return c.Path
}

func (c *MatchingConfig) SlotWidth() time.Duration {
	return time.Duration(c.SlotWidthMinutes) * time.Minute
}

func (c *CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// Validate checks if required configurations are present
func (c *Config) Validate() error {
	var problems []string

	switch c.Database.Driver {
	case "sqlite3":
		if c.Database.Path == "" {
			problems = append(problems, "database.path is required for sqlite3")
		}
	case "postgres":
		if c.Database.Host == "" {
			problems = append(problems, "database.host is required for postgres")
		}
		if c.Database.User == "" {
			problems = append(problems, "database.user is required for postgres")
		}
		if c.Database.Database == "" {
			problems = append(problems, "database.name is required for postgres")
		}
	default:
		problems = append(problems, fmt.Sprintf("database.driver %q is not supported", c.Database.Driver))
	}

	if (c.Spotify.ClientID == "") != (c.Spotify.ClientSecret == "") {
		problems = append(problems, "spotify.client_id and spotify.client_secret must be set together")
	}

	if c.Redis.Enabled && c.Redis.Address == "" {
		problems = append(problems, "redis.address is required when redis is enabled")
	}

	if c.Matching.SlotWidthMinutes <= 0 || 1440%c.Matching.SlotWidthMinutes != 0 {
		problems = append(problems, "matching.slot_width_minutes must divide a day")
	}
	if c.Matching.BatchSize <= 0 {
		problems = append(problems, "matching.batch_size must be positive")
	}
	if c.Matching.Concurrency <= 0 {
		problems = append(problems, "matching.concurrency must be positive")
	}
	if c.Matching.RankDiscountStep < 0 || c.Matching.RankDiscountStep >= 1 {
		problems = append(problems, "matching.rank_discount_step must be in [0, 1)")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, ", "))
	}

	return nil
}

// SpotifyEnabled reports whether token-based recommendations can be served.
func (c *Config) SpotifyEnabled() bool {
	return c.Spotify.ClientID != "" && c.Spotify.ClientSecret != ""
}
