package utils

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/swachhsetu/training-backend/config"
)

var redisClient *redis.Client

// InitRedis connects the shared Redis client used for compliance caching.
func InitRedis(cfg *config.Config) error {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return err
	}

	redisClient = client
	log.Println("✅ Redis connected")
	return nil
}

// GetRedisClient returns the shared client, or nil when Redis is disabled.
func GetRedisClient() *redis.Client {
	return redisClient
}
