package config

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	Redis   *redis.Client
	redisMu sync.Mutex
)

// ConnectRedis initializes the shared Redis client used for the
// per-trip booking lock and OTP resend limits (idempotent).
func ConnectRedis(env Env) *redis.Client {
	redisMu.Lock()
	defer redisMu.Unlock()

	if Redis != nil {
		return Redis
	}

	client := redis.NewClient(&redis.Options{
		Addr: env.RedisAddr,
		DB:   0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to ping Redis: %v", err)
	}

	Redis = client
	log.Println("Redis connected")
	return Redis
}

func CloseRedis() {
	redisMu.Lock()
	defer redisMu.Unlock()

	if Redis != nil {
		_ = Redis.Close()
		Redis = nil
	}
}
