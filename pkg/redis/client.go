// Package redis provides Redis client utilities.
package redis

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"

	"github.com/JAFletch-surg/dukes-club/internal/config"
	"github.com/redis/go-redis/v9"
)

// Options builds client options from cfg. TLS is enabled whenever a
// password is set, which is how the managed production instance is reached.
func Options(cfg *config.Config) *redis.Options {
	options := &redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       0,
	}
	if cfg.RedisPassword != "" {
		options.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}
	return options
}

// NewClient creates a Redis client and checks that it answers.
func NewClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(Options(cfg))
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}
