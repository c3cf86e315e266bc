package database

import (
	"context"
	"log"
	"time"

	"go-techshop/pkg/config"

	"github.com/redis/go-redis/v9"
)

// InitRedis connects the cache backend.
func InitRedis(cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.Db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, err
	}

	log.Println("Redis connected successfully")
	return rdb, nil
}
