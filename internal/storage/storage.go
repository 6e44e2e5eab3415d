// Package storage provides database storage interfaces and implementations.
package storage

import (
	"context"
	"errors"

	"github.com/good-yellow-bee/countdown/internal/models"
)

// ErrNotFound is returned by updates that match no record.
var ErrNotFound = errors.New("not found")

// Storage is the main interface for database operations.
type Storage interface {
	// Open initializes the database connection.
	Open(ctx context.Context) error
	// Close closes the database connection.
	Close() error
	// Migrate runs database migrations.
	Migrate(ctx context.Context) error
	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// Repository accessors
	Timers() TimerRepository
}

// TimerRepository defines operations for timer management.
// Every operation is partitioned by shop; lookups never cross shops.
type TimerRepository interface {
	Create(ctx context.Context, timer *models.Timer) error
	GetByID(ctx context.Context, shop, id string) (*models.Timer, error)
	// Update replaces every mutable field of the timer identified by
	// (timer.Shop, timer.ID). Returns ErrNotFound when nothing matched.
	Update(ctx context.Context, timer *models.Timer) error
	// Delete removes the timer and reports whether a record existed.
	Delete(ctx context.Context, shop, id string) (bool, error)
	// ListByShop returns all timers of a shop, newest first.
	ListByShop(ctx context.Context, shop string) ([]*models.Timer, error)
	// ListActiveByShop returns the enabled timers of a shop, newest first.
	// The schedule window is not considered.
	ListActiveByShop(ctx context.Context, shop string) ([]*models.Timer, error)
	CountByShop(ctx context.Context, shop string) (int64, error)
}
