package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	APIURL   string `mapstructure:"API_URL"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// HTTP client behaviour.
	HTTPTimeoutSeconds int `mapstructure:"HTTP_TIMEOUT_SECONDS"`
	OTPRetryAttempts   int `mapstructure:"OTP_RETRY_ATTEMPTS"`
	OTPRetryBaseMs     int `mapstructure:"OTP_RETRY_BASE_MS"`
	OTPRetryMaxMs      int `mapstructure:"OTP_RETRY_MAX_MS"`

	// On-device credential store.
	KeystorePath       string `mapstructure:"KEYSTORE_PATH"`
	KeystorePassphrase string `mapstructure:"KEYSTORE_PASSPHRASE"`

	// Loopback listener for the OAuth consent redirect.
	ConsentCallbackPort string `mapstructure:"CONSENT_CALLBACK_PORT"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("API_URL", "http://localhost:8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("HTTP_TIMEOUT_SECONDS", 15)
	viper.SetDefault("OTP_RETRY_ATTEMPTS", 3)
	viper.SetDefault("OTP_RETRY_BASE_MS", 200)
	viper.SetDefault("OTP_RETRY_MAX_MS", 2000)
	viper.SetDefault("KEYSTORE_PATH", "packmate.keystore")
	viper.SetDefault("KEYSTORE_PASSPHRASE", "")
	viper.SetDefault("CONSENT_CALLBACK_PORT", "8917")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

// HTTPTimeout returns the configured HTTP client timeout.
func HTTPTimeout() time.Duration {
	secs := AppConfig.HTTPTimeoutSeconds
	if secs <= 0 {
		secs = 15
	}
	return time.Duration(secs) * time.Second
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
