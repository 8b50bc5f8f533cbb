package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds application configuration
type Config struct {
	Port     string
	DBConn   string
	LogLevel string

	JWTSecret string

	// LLM API
	LLMAPIKey        string
	LLMBaseURL       string
	LLMModel         string
	LLMFallbackModel string

	// WhatsApp Cloud API
	WhatsAppToken       string
	WhatsAppPhoneID     string
	WhatsAppBaseURL     string
	WhatsAppVerifyToken string
	WhatsAppAppSecret   string

	// Bank of Israel exchange rates
	BOIRatesURL string

	// SMTP for the email reminder channel
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string

	// Safety-check thresholds
	CriticalResidualRatio float64
	ComfortableRatio      float64
	ExcellentRatio        float64

	// Forecasting
	ForecastConfidenceMin float64
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		DBConn:   getEnv("DB_CONN", "host=localhost port=5432 user=coach password=coach dbname=cashcoach sslmode=disable"),
		LogLevel: getEnv("LOG_LEVEL", "INFO"),

		JWTSecret: getEnv("JWT_SECRET", "secret"),

		LLMAPIKey:        getEnv("LLM_API_KEY", ""),
		LLMBaseURL:       getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMModel:         getEnv("LLM_MODEL", "gpt-4o"),
		LLMFallbackModel: getEnv("LLM_FALLBACK_MODEL", "gpt-4o-mini"),

		WhatsAppToken:       getEnv("WHATSAPP_TOKEN", ""),
		WhatsAppPhoneID:     getEnv("WHATSAPP_PHONE_ID", ""),
		WhatsAppBaseURL:     getEnv("WHATSAPP_BASE_URL", "https://graph.facebook.com/v19.0"),
		WhatsAppVerifyToken: getEnv("WHATSAPP_VERIFY_TOKEN", "verify"),
		WhatsAppAppSecret:   getEnv("WHATSAPP_APP_SECRET", ""),

		BOIRatesURL: getEnv("BOI_RATES_URL", "https://boi.org.il/PublicApi/GetExchangeRates"),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SenderEmail:  getEnv("SENDER_EMAIL", "coach@cashcoach.example"),

		CriticalResidualRatio: getEnvFloat("SAFETY_CRITICAL_RATIO", 0.15),
		ComfortableRatio:      getEnvFloat("SAFETY_COMFORTABLE_RATIO", 0.3),
		ExcellentRatio:        getEnvFloat("SAFETY_EXCELLENT_RATIO", 0.4),

		ForecastConfidenceMin: getEnvFloat("FORECAST_CONFIDENCE_MIN", 0.6),
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultVal
	}
	return f
}
