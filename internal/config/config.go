package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	ServiceName     string
	LogLevel        string
	HTTPPort        string
	GRPCPort        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	DB       Database
	Redis    Redis
	Kafka    Kafka
	JWT      JWT
	VNPay    VNPay
	SMTP     SMTP
	OrderURL string // frontend page for a single order, order id is appended
}

type Database struct {
	Host           string
	Port           int
	User           string
	Password       string
	Name           string
	MigrationsPath string
}

type Redis struct {
	Addr    string
	CartTTL time.Duration
}

type Kafka struct {
	Brokers      []string
	PaymentTopic string
	GroupID      string
}

type JWT struct {
	Secret string
}

type VNPay struct {
	TmnCode        string
	HashSecret     string
	PayURL         string
	ReturnURL      string
	QueryURL       string
	MinAmount      decimal.Decimal
	MaxAmount      decimal.Decimal
	Timeout        time.Duration
	VerifyCallback bool
}

type SMTP struct {
	Addr     string
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServiceName:     getEnv("SERVICE_NAME", "shop-service"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		GRPCPort:        getEnv("GRPC_PORT", "50051"),
		RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		DB: Database{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnvInt("DB_PORT", 5432),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			Name:           getEnv("DB_NAME", "shop"),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "./internal/repository/migrations"),
		},
		Redis: Redis{
			Addr:    getEnv("REDIS_ADDR", "localhost:6379"),
			CartTTL: getEnvDuration("CART_CACHE_TTL", 15*time.Minute),
		},
		Kafka: Kafka{
			Brokers:      splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			PaymentTopic: getEnv("KAFKA_PAYMENT_TOPIC", "order-payments"),
			GroupID:      getEnv("KAFKA_GROUP_ID", "shop-mailer"),
		},
		JWT: JWT{
			Secret: getEnv("JWT_SECRET", ""),
		},
		VNPay: VNPay{
			TmnCode:        getEnv("VNPAY_TMN_CODE", ""),
			HashSecret:     getEnv("VNPAY_HASH_SECRET", ""),
			PayURL:         getEnv("VNPAY_URL", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"),
			ReturnURL:      getEnv("VNPAY_RETURN_URL", "http://localhost:8080/api/vnpay/return"),
			QueryURL:       getEnv("VNPAY_QUERY_URL", ""),
			MinAmount:      getEnvDecimal("VNPAY_MIN_AMOUNT", decimal.NewFromInt(10000)),
			MaxAmount:      getEnvDecimal("VNPAY_MAX_AMOUNT", decimal.NewFromInt(50000000)),
			Timeout:        getEnvDuration("VNPAY_TIMEOUT", 5*time.Second),
			VerifyCallback: getEnvBool("VNPAY_VERIFY_CALLBACK", false),
		},
		SMTP: SMTP{
			Addr:     getEnv("SMTP_ADDR", "localhost:1025"),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "no-reply@aliceskin.local"),
			Timeout:  getEnvDuration("SMTP_TIMEOUT", 10*time.Second),
		},
		OrderURL: getEnv("FRONTEND_ORDER_URL", "http://localhost:3000/orders/"),
	}
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.VNPay.TmnCode == "" {
		errs = append(errs, errors.New("VNPAY_TMN_CODE is required"))
	}
	if c.VNPay.HashSecret == "" {
		errs = append(errs, errors.New("VNPAY_HASH_SECRET is required"))
	}
	if c.VNPay.MinAmount.GreaterThan(c.VNPay.MaxAmount) {
		errs = append(errs, errors.New("VNPAY_MIN_AMOUNT must not exceed VNPAY_MAX_AMOUNT"))
	}
	if len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS is required"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if v, err := decimal.NewFromString(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
