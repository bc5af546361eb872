package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServiceName string
	LogLevel    string

	ServerPort int

	DatabaseURL string

	JWTAccessSecret []byte
	CookieSecure    bool

	KafkaBrokers    []string
	KafkaOrderTopic string
	KafkaCartTopic  string

	PayGate PayGateConfig
}

type PayGateConfig struct {
	URL             string
	TerminalKey     string
	Password        string
	Timeout         time.Duration
	NotificationURL string
	SuccessURL      string
	FailURL         string
}

func Load() Config {
	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "storefront"),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		ServerPort: EnvIntDefault("SERVER_PORT", 8080),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTAccessSecret: []byte(os.Getenv("JWT_SECRET")),
		CookieSecure:    EnvDefault("COOKIE_SECURE", "false") == "true",

		KafkaBrokers:    CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaOrderTopic: EnvDefault("KAFKA_ORDER_TOPIC", "order_events"),
		KafkaCartTopic:  EnvDefault("KAFKA_CART_TOPIC", "cart_events"),

		PayGate: PayGateConfig{
			URL:             EnvDefault("PAYGATE_URL", "https://securepay.tinkoff.ru/v2/"),
			TerminalKey:     os.Getenv("PAYGATE_TERMINAL_KEY"),
			Password:        os.Getenv("PAYGATE_PASSWORD"),
			Timeout:         time.Duration(EnvIntDefault("PAYGATE_TIMEOUT_SECONDS", 10)) * time.Second,
			NotificationURL: os.Getenv("PAYGATE_NOTIFICATION_URL"),
			SuccessURL:      os.Getenv("PAYGATE_SUCCESS_URL"),
			FailURL:         os.Getenv("PAYGATE_FAIL_URL"),
		},
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
	if os.Getenv(key) != "" {
		return os.Getenv(key)
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
