package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DatabaseURL string

	JWTSecret   []byte
	TokenTTLMin int

	AuthURL       string
	ShopURL       string
	InternalToken string

	RabbitURL       string
	OrderExchange   string
	OrderRoutingKey string
	BillingQueue    string

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
}

func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env file not found, using system environment variables")
	}

	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", ""),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret:   []byte(os.Getenv("JWT_SECRET")),
		TokenTTLMin: EnvIntDefault("TOKEN_TTL_MIN", 15),

		AuthURL:       os.Getenv("AUTH_URL"),
		ShopURL:       os.Getenv("SHOP_URL"),
		InternalToken: os.Getenv("INTERNAL_TOKEN"),

		RabbitURL:       os.Getenv("RABBIT_URL"),
		OrderExchange:   EnvDefault("ORDER_EXCHANGE", "orders.details"),
		OrderRoutingKey: EnvDefault("ORDER_ROUTING_KEY", "orders.placed"),
		BillingQueue:    EnvDefault("BILLING_QUEUE", "billing"),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
