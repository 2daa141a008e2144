package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Printer  PrinterConfig
	Auth     AuthConfig
	App      AppConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Driver       string // sqlite, postgres, pgx, pgdriver or mysql
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	ConnectTries int
	AutoMigrate  bool
	Debug        bool
}

type RedisConfig struct {
	Enabled bool
	Addr    string
	Channel string
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

type PrinterConfig struct {
	Timeout        time.Duration
	SpoolCommand   string
	ChromePath     string
	ShopWidthMM    float64
	KitchenWidthMM float64
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type AppConfig struct {
	Timezone        string
	LogDir          string
	DefaultCurrency string
}

// Load reads .env (if present) and then the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8080"),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 45*time.Second), // receipts print inside the request
			IdleTimeout:  getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Driver:       strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
			DSN:          getEnv("DB_DSN", "file:pos.db?_pragma=busy_timeout(5000)"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
			ConnectTries: getEnvInt("DB_CONNECT_TRIES", 10),
			AutoMigrate:  getEnvBool("DB_AUTO_MIGRATE", true),
			Debug:        getEnvBool("DB_DEBUG", false),
		},
		Redis: RedisConfig{
			Enabled: getEnvBool("REDIS_ENABLED", false),
			Addr:    getEnv("REDIS_ADDR", "localhost:6379"),
			Channel: getEnv("REDIS_EVENTS_CHANNEL", "pos:events"),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvBool("KAFKA_ENABLED", false),
			Brokers: getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("KAFKA_TOPIC_EVENTS", "pos.events"),
		},
		Printer: PrinterConfig{
			Timeout:        getEnvDuration("PRINT_TIMEOUT", 10*time.Second),
			SpoolCommand:   getEnv("PRINT_SPOOL_COMMAND", "lp"),
			ChromePath:     getEnv("CHROME_PATH", ""),
			ShopWidthMM:    getEnvFloat("PRINT_SHOP_WIDTH_MM", 80),
			KitchenWidthMM: getEnvFloat("PRINT_KITCHEN_WIDTH_MM", 58),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			TokenTTL:  getEnvDuration("JWT_TTL", 12*time.Hour),
		},
		App: AppConfig{
			Timezone:        getEnv("APP_TIMEZONE", "Local"),
			LogDir:          getEnv("LOG_DIR", "logs"),
			DefaultCurrency: getEnv("DEFAULT_CURRENCY", "Rs"),
		},
	}
}

// Location resolves the configured timezone, falling back to time.Local.
func (a AppConfig) Location() *time.Location {
	if a.Timezone == "" || strings.EqualFold(a.Timezone, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
