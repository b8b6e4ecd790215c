package utils

import (
	"context"
	"log"
	"time"

	"shipbook/config"

	"github.com/go-redis/redis/v8"
)

// LimiterClient backs the shared rate limiter.
var LimiterClient *redis.Client

// InitRedis connects the rate limiter client (DB from AppConfig).
func InitRedis() {
	LimiterClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisLimiterDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := LimiterClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Limiter): %v", err)
	}
}

// GetLimiterClient returns the rate limiter client.
func GetLimiterClient() *redis.Client {
	if LimiterClient == nil {
		InitRedis()
	}
	return LimiterClient
}
