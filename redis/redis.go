package redis

import (
	"context"
	"time"

	"linksnap/config"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

// NewClient builds the store client. An unreachable store at startup is
// logged and tolerated: the process stays up and requests fail with a
// store error until connectivity returns. go-redis owns the connection
// pool and reconnects, so no connection state is tracked elsewhere.
func NewClient(cfg config.RedisConfig) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  time.Duration(cfg.OperationTimeout) * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.OperationTimeout)*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("address", cfg.Address).Msg("Store unreachable at startup, continuing without it")
		return rdb
	}

	log.Info().Str("address", cfg.Address).Msg("Connected to Redis successfully")
	return rdb
}
