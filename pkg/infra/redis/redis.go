package redis_wrapper

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultMaxConnect = 30 * time.Second

type RedisConfig struct {
	ConnectionURL       string `yaml:"connection_url"`
	PoolSize            int    `yaml:"pool_size"`
	DialTimeoutSeconds  int    `yaml:"dial_timeout_seconds"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
	IdleTimeoutSeconds  int    `yaml:"idle_timeout_seconds"`
	MaxConnectSeconds   int    `yaml:"max_connect_seconds"`
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// options parses the URL and overlays the non-zero tuning fields, so a URL
// query such as ?pool_size=5 survives an empty config field.
func (c *RedisConfig) options() (*redis.Options, error) {
	opts, err := redis.ParseURL(c.ConnectionURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if c.PoolSize > 0 {
		opts.PoolSize = c.PoolSize
	}
	if c.DialTimeoutSeconds > 0 {
		opts.DialTimeout = seconds(c.DialTimeoutSeconds)
	}
	if c.ReadTimeoutSeconds > 0 {
		opts.ReadTimeout = seconds(c.ReadTimeoutSeconds)
	}
	if c.WriteTimeoutSeconds > 0 {
		opts.WriteTimeout = seconds(c.WriteTimeoutSeconds)
	}
	if c.IdleTimeoutSeconds > 0 {
		opts.ConnMaxIdleTime = seconds(c.IdleTimeoutSeconds)
	}
	return opts, nil
}

func (c *RedisConfig) maxConnect() time.Duration {
	if c.MaxConnectSeconds > 0 {
		return seconds(c.MaxConnectSeconds)
	}
	return defaultMaxConnect
}

// InitRedis opens a client and pings it once.
func InitRedis(ctx context.Context, cfg *RedisConfig) (*redis.Client, error) {
	opts, err := cfg.options()
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	zap.S().Debugw("connected to redis", "addr", opts.Addr, "db", opts.DB)
	return client, nil
}

// InitRedisWithBackoff retries InitRedis until it succeeds, ctx ends or
// MaxConnectSeconds (30s when unset) elapse. A malformed URL fails at once.
func InitRedisWithBackoff(ctx context.Context, cfg *RedisConfig) (*redis.Client, error) {
	if _, err := cfg.options(); err != nil {
		return nil, err
	}

	boff := backoff.NewExponentialBackOff()
	boff.MaxElapsedTime = cfg.maxConnect()

	var client *redis.Client
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		var err error
		client, err = InitRedis(ctx, cfg)
		if err != nil {
			zap.S().Warnw("redis not ready", "attempt", attempt, "error", err)
		}
		return err
	}, backoff.WithContext(boff, ctx))
	if err != nil {
		return nil, fmt.Errorf("connect redis after %d attempts: %w", attempt, err)
	}
	return client, nil
}
