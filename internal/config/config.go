package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/yukikurage/taskboard-api/internal/constants"
)

// Config holds runtime configuration. Values come from defaults, an optional
// taskboard.yaml and environment variables such as DB_HOST.
type Config struct {
	DBDriver      string        `mapstructure:"db_driver"`
	DBHost        string        `mapstructure:"db_host"`
	DBPort        string        `mapstructure:"db_port"`
	DBUser        string        `mapstructure:"db_user"`
	DBPassword    string        `mapstructure:"db_password"`
	DBName        string        `mapstructure:"db_name"`
	DBPath        string        `mapstructure:"db_path"`
	RedisHost     string        `mapstructure:"redis_host"`
	RedisPort     string        `mapstructure:"redis_port"`
	RedisDB       int           `mapstructure:"redis_db"`
	BoardCacheTTL time.Duration `mapstructure:"board_cache_ttl"`
	SessionSecret string        `mapstructure:"session_secret"`
	GinMode       string        `mapstructure:"gin_mode"`
	LogLevel      string        `mapstructure:"log_level"`
	OpenAIAPIKey  string        `mapstructure:"openai_api_key"`
	InviteTTL     time.Duration `mapstructure:"invite_ttl"`
	HTTPAddr      string        `mapstructure:"http_addr"`
}

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func setDefaults() {
	viper.SetDefault("db_driver", DriverMySQL)
	viper.SetDefault("db_host", "localhost")
	viper.SetDefault("db_port", "3306")
	viper.SetDefault("db_user", "taskuser")
	viper.SetDefault("db_password", "taskpassword")
	viper.SetDefault("db_name", "taskboard")
	viper.SetDefault("db_path", "taskboard.db")
	viper.SetDefault("redis_host", "localhost")
	viper.SetDefault("redis_port", "6379")
	viper.SetDefault("redis_db", 0)
	viper.SetDefault("board_cache_ttl", "5m")
	viper.SetDefault("session_secret", "default-secret-key-change-me")
	viper.SetDefault("gin_mode", "debug")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("openai_api_key", "")
	viper.SetDefault("invite_ttl", "24h")
	viper.SetDefault("http_addr", constants.DefaultHTTPAddress)
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file or environment.
func Load() (*Config, error) {
	setDefaults()
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	switch cfg.DBDriver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	return &cfg, nil
}

// RedisAddr returns host:port of the Redis server.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// IsProduction reports whether gin runs in release mode.
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}
