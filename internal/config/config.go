package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	App      AppConfig
	Log      LogConfig
	Wallet   WalletConfig
	Telegram TelegramConfig
	Jobs     JobsConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SSLMode    string
	SQLitePath string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port        string
	FrontendURL string
}

// AppConfig holds application-specific settings
type AppConfig struct {
	JWTSecret               string
	JWTTTL                  time.Duration
	AutoCompleteDeposits    bool
	PlanCacheTTL            time.Duration
	BootstrapSuperadminMail string
}

// LogConfig holds zap logger settings
type LogConfig struct {
	Level  string
	Format string
}

// WalletConfig holds crypto wallet settings
type WalletConfig struct {
	AssetsFile   string
	Mnemonic     string
	SolanaRPCURL string
}

// TelegramConfig holds admin notification settings
type TelegramConfig struct {
	BotToken    string
	AdminChatID int64
}

// JobsConfig holds background job intervals
type JobsConfig struct {
	MaturityInterval      time.Duration
	DashboardPushInterval time.Duration
}

// Load loads configuration from the environment, an optional .env file and an optional config.yaml
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	v.AutomaticEnv()

	config := &Config{
		Database: DatabaseConfig{
			Driver:     strings.ToLower(v.GetString("DB_DRIVER")),
			Host:       v.GetString("DB_HOST"),
			Port:       v.GetString("DB_PORT"),
			User:       v.GetString("DB_USER"),
			Password:   v.GetString("DB_PASSWORD"),
			DBName:     v.GetString("DB_NAME"),
			SSLMode:    v.GetString("DB_SSLMODE"),
			SQLitePath: v.GetString("DB_SQLITE_PATH"),
		},
		Server: ServerConfig{
			Port:        v.GetString("SERVER_PORT"),
			FrontendURL: v.GetString("FRONTEND_URL"),
		},
		App: AppConfig{
			JWTSecret:               v.GetString("JWT_SECRET"),
			JWTTTL:                  v.GetDuration("JWT_TTL"),
			AutoCompleteDeposits:    v.GetBool("AUTO_COMPLETE_DEPOSITS"),
			PlanCacheTTL:            v.GetDuration("PLAN_CACHE_TTL"),
			BootstrapSuperadminMail: strings.ToLower(v.GetString("BOOTSTRAP_SUPERADMIN_EMAIL")),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Wallet: WalletConfig{
			AssetsFile:   v.GetString("ASSETS_FILE"),
			Mnemonic:     v.GetString("WALLET_MNEMONIC"),
			SolanaRPCURL: v.GetString("SOLANA_RPC_URL"),
		},
		Telegram: TelegramConfig{
			BotToken:    v.GetString("TELEGRAM_BOT_TOKEN"),
			AdminChatID: v.GetInt64("TELEGRAM_ADMIN_CHAT_ID"),
		},
		Jobs: JobsConfig{
			MaturityInterval:      v.GetDuration("MATURITY_JOB_INTERVAL"),
			DashboardPushInterval: v.GetDuration("DASHBOARD_PUSH_INTERVAL"),
		},
	}

	// Validate required fields
	if config.App.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	switch config.Database.Driver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", config.Database.Driver)
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "investment_platform")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_SQLITE_PATH", "investment_platform.db")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("FRONTEND_URL", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("AUTO_COMPLETE_DEPOSITS", false)
	v.SetDefault("PLAN_CACHE_TTL", "5m")
	v.SetDefault("BOOTSTRAP_SUPERADMIN_EMAIL", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("ASSETS_FILE", "assets.yaml")
	v.SetDefault("WALLET_MNEMONIC", "")
	v.SetDefault("SOLANA_RPC_URL", "")
	v.SetDefault("TELEGRAM_BOT_TOKEN", "")
	v.SetDefault("TELEGRAM_ADMIN_CHAT_ID", 0)
	v.SetDefault("MATURITY_JOB_INTERVAL", "1h")
	v.SetDefault("DASHBOARD_PUSH_INTERVAL", "15s")
}

// GetDSN returns the connection string for the configured driver
func (c *Config) GetDSN() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.SQLitePath
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}
