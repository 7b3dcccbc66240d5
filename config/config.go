package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"payment-orchestrator/awsx"
)

type Config struct {
	Port                   string
	StoreCode              string
	PostgresUser           string
	PostgresPassword       string
	PostgresDB             string
	PostgresHost           string
	PostgresPort           string
	PostgresSSLMode        string
	PostgresTimeZone       string
	StripeSecretKey        string
	PayPalClientID         string
	PayPalSecret           string
	ProductServiceURL      string
	KafkaBrokers           []string
	KafkaPaymentTopic      string
	PaymentRequestQueueURL string // SQS queue URL for checkout payment requests
	PaymentSNSTopicARN     string // SNS topic ARN for payment outcome events
}

// LoadConfig reads configuration from environment variables with optional
// Secrets Manager override.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:                   getEnv("PORT", "8093"),
		StoreCode:              getEnv("STORE_CODE", "default"),
		PostgresUser:           os.Getenv("POSTGRES_USER"),
		PostgresPassword:       os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:             os.Getenv("POSTGRES_DB"),
		PostgresHost:           os.Getenv("POSTGRES_HOST"),
		PostgresPort:           getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:        getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone:       getEnv("POSTGRES_TIMEZONE", "UTC"),
		StripeSecretKey:        os.Getenv("STRIPE_API_KEY"),
		PayPalClientID:         os.Getenv("PAYPAL_CLIENT_ID"),
		PayPalSecret:           os.Getenv("PAYPAL_SECRET"),
		ProductServiceURL:      getEnv("PRODUCT_SERVICE_URL", "http://product-service:8081"),
		KafkaBrokers:           strings.Split(getEnv("KAFKA_BROKERS", "kafka:9092"), ","),
		KafkaPaymentTopic:      getEnv("KAFKA_PAYMENT_TOPIC", "payment-events"),
		PaymentRequestQueueURL: os.Getenv("PAYMENT_REQUEST_QUEUE_URL"),
		PaymentSNSTopicARN:     getEnv("PAYMENT_SNS_TOPIC_ARN", "arn:aws:sns:eu-west-2:000000000000:payment-events"),
	}

	// Override credentials from Secrets Manager when running on AWS
	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if awsCfg, err := awsx.LoadAWSConfig(context.Background()); err == nil {
			sm := awsx.NewSecretsClient(awsCfg)
			if dbjson, err := sm.GetSecret(context.Background(), "payment/DB_CREDENTIALS"); err == nil && dbjson != "" {
				var m map[string]string
				if err := json.Unmarshal([]byte(dbjson), &m); err == nil {
					if v, ok := m["POSTGRES_USER"]; ok && v != "" {
						cfg.PostgresUser = v
					}
					if v, ok := m["POSTGRES_PASSWORD"]; ok && v != "" {
						cfg.PostgresPassword = v
					}
					if v, ok := m["POSTGRES_DB"]; ok && v != "" {
						cfg.PostgresDB = v
					}
					if v, ok := m["POSTGRES_HOST"]; ok && v != "" {
						cfg.PostgresHost = v
					}
					if v, ok := m["POSTGRES_PORT"]; ok && v != "" {
						cfg.PostgresPort = v
					}
				}
			}
			if v, err := sm.GetSecret(context.Background(), "payment/STRIPE_API_KEY"); err == nil && v != "" {
				cfg.StripeSecretKey = v
			}
			if v, err := sm.GetSecret(context.Background(), "payment/PAYPAL_SECRET"); err == nil && v != "" {
				cfg.PayPalSecret = v
			}
		}
	}

	if cfg.PostgresUser == "" || cfg.PostgresPassword == "" || cfg.PostgresDB == "" || cfg.PostgresHost == "" {
		return nil, fmt.Errorf("database config incomplete")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
