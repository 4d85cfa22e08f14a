// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Bot       BotConfig       `mapstructure:"bot"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Whitelist WhitelistConfig `mapstructure:"whitelist"`
	Session   SessionConfig   `mapstructure:"session"`
	Economy   EconomyConfig   `mapstructure:"economy"`
	Games     GamesConfig     `mapstructure:"games"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token string `mapstructure:"token"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// WhitelistConfig holds chat whitelist configuration.
type WhitelistConfig struct {
	Chats []int64 `mapstructure:"chats"`
}

// SessionConfig holds session lifecycle configuration.
type SessionConfig struct {
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	ReplayTimeout time.Duration `mapstructure:"replay_timeout"`
}

// EconomyConfig holds wallet and daily reward configuration.
type EconomyConfig struct {
	FallbackBet      int64 `mapstructure:"fallback_bet"`
	DailyReward      int64 `mapstructure:"daily_reward"`
	DailyCooldownHrs int   `mapstructure:"daily_cooldown_hours"`
}

// DailyCooldown returns the daily reward cooldown as a duration.
func (e *EconomyConfig) DailyCooldown() time.Duration {
	return time.Duration(e.DailyCooldownHrs) * time.Hour
}

// GamesConfig holds game-specific configuration.
type GamesConfig struct {
	BlackJack BlackJackConfig `mapstructure:"blackjack"`
	HighLow   HighLowConfig   `mapstructure:"highlow"`
	Dice      DiceConfig      `mapstructure:"dice"`
}

// BlackJackConfig holds blackjack configuration.
type BlackJackConfig struct {
	MaxBet int64 `mapstructure:"max_bet"`
}

// HighLowConfig holds high-low payout curve configuration.
type HighLowConfig struct {
	MaxBet    int64 `mapstructure:"max_bet"`
	PayoutNum int64 `mapstructure:"payout_num"`
	PayoutDen int64 `mapstructure:"payout_den"`
	MaxStreak int   `mapstructure:"max_streak"`
}

// DiceConfig holds dice game configuration.
type DiceConfig struct {
	MaxBet int64 `mapstructure:"max_bet"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase,
	// e.g. BOT_TOKEN, DATABASE_HOST, SESSION_SWEEP_INTERVAL.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// A missing config file is fine, env vars can provide everything.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "casinobot")
	v.SetDefault("database.name", "casinobot")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	v.SetDefault("session.sweep_interval", "1s")
	v.SetDefault("session.replay_timeout", "60s")

	v.SetDefault("economy.fallback_bet", 10)
	v.SetDefault("economy.daily_reward", 500)
	v.SetDefault("economy.daily_cooldown_hours", 24)

	v.SetDefault("games.blackjack.max_bet", 1000)
	v.SetDefault("games.highlow.max_bet", 1000)
	v.SetDefault("games.highlow.payout_num", 3)
	v.SetDefault("games.highlow.payout_den", 2)
	v.SetDefault("games.highlow.max_streak", 10)
	v.SetDefault("games.dice.max_bet", 1000)
}

// IsChatAllowed checks if a chat ID is in the whitelist.
// An empty whitelist allows all chats.
func (c *Config) IsChatAllowed(chatID int64) bool {
	if len(c.Whitelist.Chats) == 0 {
		return true
	}
	for _, id := range c.Whitelist.Chats {
		if id == chatID {
			return true
		}
	}
	return false
}
