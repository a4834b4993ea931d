// File: backend/services/integrity-service/internal/domain/repository/redis/client.go
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/config"
)

// NewClient connects to redis and verifies the connection.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}
