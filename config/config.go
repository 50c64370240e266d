package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	JWTAccessSecret string

	// ✅ Redis Config
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// ✅ Kafka Config
	KafkaBrokers       string
	KafkaReminderTopic string

	// Compliance cache TTL in seconds
	ComplianceCacheTTL int
}

// Load reads environment variables and returns a Config object
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file, using environment variables")
	}

	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	cacheTTL, _ := strconv.Atoi(os.Getenv("COMPLIANCE_CACHE_TTL_SECONDS"))

	cfg := &Config{
		Port: os.Getenv("PORT"),

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		JWTAccessSecret: os.Getenv("JWT_ACCESS_SECRET"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		KafkaBrokers:       os.Getenv("KAFKA_BROKERS"),
		KafkaReminderTopic: os.Getenv("KAFKA_REMINDER_TOPIC"),

		ComplianceCacheTTL: cacheTTL,
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.KafkaReminderTopic == "" {
		cfg.KafkaReminderTopic = "training.compliance.reminders"
	}
	if cfg.ComplianceCacheTTL == 0 {
		cfg.ComplianceCacheTTL = 300
	}

	return cfg
}
