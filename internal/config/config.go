package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/go_cart/digital-store/internal/publisher"
)

type Config struct {
	Env      string
	LogLevel string

	HTTPPort           string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64

	DB DBConfig

	RedisAddr     string
	RedisPassword string

	KafkaBrokers []string
	ReceiptTopic string

	Paymob PaymobConfig
}

type DBConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	Name           string
	MigrationsPath string
}

type PaymobConfig struct {
	BaseURL       string
	IframeBaseURL string
	APIKey        string
	HMACSecret    string
	IntegrationID int64
	IframeID      string
	Currency      string
	KeyExpiration time.Duration
	Timeout       time.Duration
}

func Load() (*Config, error) {
	port, err := getEnvInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}
	integrationID, err := getEnvInt("PAYMOB_INTEGRATION_ID", 0)
	if err != nil {
		return nil, err
	}
	requestTimeout, err := getEnvDuration("REQUEST_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	gatewayTimeout, err := getEnvDuration("PAYMOB_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	keyExpiration, err := getEnvDuration("PAYMOB_KEY_EXPIRATION", time.Hour)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Env:                getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		RequestTimeout:     requestTimeout,
		ShutdownTimeout:    10 * time.Second,
		MaxRequestBodySize: 1 << 20, // 1MB
		DB: DBConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           port,
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			Name:           getEnv("DB_NAME", "digital_store"),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "./internal/repository/migrations"),
		},
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		KafkaBrokers:  splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		ReceiptTopic:  getEnv("RECEIPT_TOPIC", publisher.DefaultReceiptTopic),
		Paymob: PaymobConfig{
			BaseURL:       getEnv("PAYMOB_BASE_URL", "https://accept.paymob.com/api"),
			IframeBaseURL: getEnv("PAYMOB_IFRAME_BASE_URL", "https://accept.paymob.com/api/acceptance"),
			APIKey:        getEnv("PAYMOB_API_KEY", ""),
			HMACSecret:    getEnv("PAYMOB_HMAC_SECRET", ""),
			IntegrationID: int64(integrationID),
			IframeID:      getEnv("PAYMOB_IFRAME_ID", ""),
			Currency:      getEnv("PAYMOB_CURRENCY", "EGP"),
			KeyExpiration: keyExpiration,
			Timeout:       gatewayTimeout,
		},
	}
	return cfg, cfg.Validate()
}

// Validate rejects configurations that would let checkout or webhooks run
// without processor credentials. Development mode is exempt.
func (c *Config) Validate() error {
	if c.Env == "development" {
		return nil
	}
	var errs []error
	if c.Paymob.APIKey == "" {
		errs = append(errs, errors.New("PAYMOB_API_KEY is required"))
	}
	if c.Paymob.HMACSecret == "" {
		errs = append(errs, errors.New("PAYMOB_HMAC_SECRET is required"))
	}
	if c.Paymob.IntegrationID == 0 {
		errs = append(errs, errors.New("PAYMOB_INTEGRATION_ID is required"))
	}
	if c.Paymob.IframeID == "" {
		errs = append(errs, errors.New("PAYMOB_IFRAME_ID is required"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
