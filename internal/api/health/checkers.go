package health

import (
	"context"
	"fmt"
)

// Pinger interface for backends that support ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StorageChecker checks timer storage connectivity. With a lazy storage
// handle the first check also opens the connection.
type StorageChecker struct {
	pinger Pinger
}

// NewStorageChecker creates a new storage health checker.
func NewStorageChecker(p Pinger) *StorageChecker {
	return &StorageChecker{pinger: p}
}

// Name returns the checker name.
func (c *StorageChecker) Name() string {
	return "storage"
}

// Check verifies the database is accessible.
func (c *StorageChecker) Check(ctx context.Context) error {
	if c.pinger == nil {
		return fmt.Errorf("storage not initialized")
	}
	return c.pinger.Ping(ctx)
}

// RedisChecker checks the timer cache.
type RedisChecker struct {
	pinger Pinger
}

// NewRedisChecker creates a new Redis health checker.
func NewRedisChecker(p Pinger) *RedisChecker {
	return &RedisChecker{pinger: p}
}

// Name returns the checker name.
func (c *RedisChecker) Name() string {
	return "redis"
}

// Check verifies Redis is accessible.
func (c *RedisChecker) Check(ctx context.Context) error {
	if c.pinger == nil {
		return fmt.Errorf("redis not configured")
	}
	return c.pinger.Ping(ctx)
}
