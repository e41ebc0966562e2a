package config

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/fractrade-xyz/fractrade-hl-simple/pkg/secrets"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Hyperliquid HyperliquidConfig `mapstructure:"hyperliquid"`
	Trading     TradingConfig     `mapstructure:"trading"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	GCP         GCPConfig         `mapstructure:"gcp"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type HyperliquidConfig struct {
	// Env selects mainnet or testnet endpoints.
	Env           string `mapstructure:"env"`
	PublicAddress string `mapstructure:"public_address"`
	PrivateKey    string `mapstructure:"private_key"`
}

type TradingConfig struct {
	DefaultTrailPercent  float64 `mapstructure:"default_trail_percent"`
	TrailIntervalSeconds int     `mapstructure:"trail_interval_seconds"`
	DefaultUrgency       float64 `mapstructure:"default_urgency"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type GCPConfig struct {
	ProjectID   string              `mapstructure:"project_id"`
	UseSecrets  bool                `mapstructure:"use_secrets"`
	SecretNames secrets.SecretNames `mapstructure:"secret_names"`
}

func Load(configPath string) (*Config, error) {
	// A local .env is honored the same way the library's env lookup does.
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/hl-trader")
	}

	v.SetEnvPrefix("HL")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; use defaults and environment
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&config)

	if config.GCP.UseSecrets && config.GCP.ProjectID != "" {
		ctx := context.Background()
		logger := logrus.New()
		if err := loadSecretsFromGCP(ctx, &config, logger); err != nil {
			return nil, fmt.Errorf("error loading secrets from GCP: %w", err)
		}
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)

	v.SetDefault("hyperliquid.env", "mainnet")

	v.SetDefault("trading.default_trail_percent", 2.0)
	v.SetDefault("trading.trail_interval_seconds", 30)
	v.SetDefault("trading.default_urgency", 0.5)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("gcp.use_secrets", false)
	v.SetDefault("gcp.project_id", "")

	secretNames := secrets.DefaultSecretNames()
	v.SetDefault("gcp.secret_names.public_address", secretNames.PublicAddress)
	v.SetDefault("gcp.secret_names.private_key", secretNames.PrivateKey)
}

func overrideFromEnv(config *Config) {
	if address := os.Getenv("HYPERLIQUID_PUBLIC_ADDRESS"); address != "" {
		config.Hyperliquid.PublicAddress = address
	}
	if privateKey := os.Getenv("HYPERLIQUID_PRIVATE_KEY"); privateKey != "" {
		config.Hyperliquid.PrivateKey = privateKey
	}
	if env := os.Getenv("HYPERLIQUID_ENV"); env != "" {
		config.Hyperliquid.Env = env
	}

	if projectID := os.Getenv("GCP_PROJECT_ID"); projectID != "" {
		config.GCP.ProjectID = projectID
	}
	if useSecrets := os.Getenv("GCP_USE_SECRETS"); useSecrets == "true" {
		config.GCP.UseSecrets = true
	}
}

func loadSecretsFromGCP(ctx context.Context, config *Config, logger *logrus.Logger) error {
	secretManager, err := secrets.NewGCPSecretManager(ctx, config.GCP.ProjectID, logger)
	if err != nil {
		return fmt.Errorf("failed to create secret manager: %w", err)
	}
	defer secretManager.Close()

	// Only load secrets that are not already set
	if config.Hyperliquid.PublicAddress == "" {
		config.Hyperliquid.PublicAddress = secretManager.GetSecretWithDefault(ctx,
			config.GCP.SecretNames.PublicAddress, "")
	}
	if config.Hyperliquid.PrivateKey == "" {
		config.Hyperliquid.PrivateKey = secretManager.GetSecretWithDefault(ctx,
			config.GCP.SecretNames.PrivateKey, "")
	}

	logger.Info("Successfully loaded secrets from GCP Secret Manager")
	return nil
}
