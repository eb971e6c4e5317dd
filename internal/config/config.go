package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Runtime
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Player data
	PlayersFile     string        `mapstructure:"PLAYERS_FILE"`
	PlayerSource    string        `mapstructure:"PLAYER_SOURCE"` // "file", "api"
	FPLAPIURL       string        `mapstructure:"FPL_API_URL"`
	FPLRateLimit    float64       `mapstructure:"FPL_RATE_LIMIT"` // requests per second
	PlayersCacheTTL time.Duration `mapstructure:"PLAYERS_CACHE_TTL"`

	// External APIs
	ExternalAPITimeout      time.Duration `mapstructure:"EXTERNAL_API_TIMEOUT"`
	CircuitBreakerThreshold int           `mapstructure:"CIRCUIT_BREAKER_THRESHOLD"`

	// Redis (optional player cache)
	RedisURL string `mapstructure:"REDIS_URL"`

	// Run history (sqlite path or postgres URL)
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// Optimization
	SweepWorkers int  `mapstructure:"SWEEP_WORKERS"`
	CrossCheck   bool `mapstructure:"CROSS_CHECK"`

	// League layout
	TeamCount      int    `mapstructure:"TEAM_COUNT"`
	MaxPerTeam     int    `mapstructure:"MAX_PER_TEAM"`
	PositionQuotas string `mapstructure:"POSITION_QUOTAS"`

	// Scheduler
	WatchSchedule string `mapstructure:"WATCH_SCHEDULE"`
}

// LoadConfig reads .env from the working directory (or its parent) and the
// environment. Missing config files are not an error.
func LoadConfig() (*Config, error) {
	return load(".", "..")
}

func load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetDefault("ENV", "production")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("PLAYERS_FILE", "data/players.json")
	v.SetDefault("PLAYER_SOURCE", "file")
	v.SetDefault("FPL_API_URL", "https://fantasy.premierleague.com/api")
	v.SetDefault("FPL_RATE_LIMIT", 2)
	v.SetDefault("PLAYERS_CACHE_TTL", "30m")
	v.SetDefault("EXTERNAL_API_TIMEOUT", "10s")
	v.SetDefault("CIRCUIT_BREAKER_THRESHOLD", 5)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("DATABASE_URL", "data/runs.db")
	v.SetDefault("SWEEP_WORKERS", 4)
	v.SetDefault("CROSS_CHECK", false)
	v.SetDefault("TEAM_COUNT", 20)
	v.SetDefault("MAX_PER_TEAM", 3)
	v.SetDefault("POSITION_QUOTAS", "GK:2,DEF:5,MID:5,FWD:3")
	v.SetDefault("WATCH_SCHEDULE", "0 */6 * * *")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	switch c.PlayerSource {
	case "file", "api":
	default:
		return fmt.Errorf("invalid PLAYER_SOURCE %q: want file or api", c.PlayerSource)
	}
	if c.SweepWorkers < 1 {
		return fmt.Errorf("SWEEP_WORKERS must be positive, got %d", c.SweepWorkers)
	}
	if c.FPLRateLimit <= 0 {
		return fmt.Errorf("FPL_RATE_LIMIT must be positive, got %v", c.FPLRateLimit)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
