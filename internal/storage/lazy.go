package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/good-yellow-bee/countdown/internal/metrics"
	"github.com/good-yellow-bee/countdown/internal/models"
)

// Lazy is a shared storage handle that connects on first use.
// Concurrent first uses collapse into a single Open+Migrate attempt and every
// waiter receives its outcome. A failed attempt is forgotten, so the next
// operation tries again.
type Lazy struct {
	inner Storage

	group singleflight.Group

	mu    sync.RWMutex
	ready bool
}

// NewLazy wraps inner. Nothing is opened until the first operation.
func NewLazy(inner Storage) *Lazy {
	return &Lazy{inner: inner}
}

// Open connects and migrates the underlying storage if needed.
func (l *Lazy) Open(ctx context.Context) error {
	return l.ensure(ctx)
}

// Migrate is part of Open for a lazy handle.
func (l *Lazy) Migrate(ctx context.Context) error {
	return l.ensure(ctx)
}

// Close closes the underlying storage if it was ever opened.
func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.ready {
		return nil
	}
	l.ready = false
	return l.inner.Close()
}

// Ping connects if needed and verifies the underlying storage.
func (l *Lazy) Ping(ctx context.Context) error {
	if err := l.ensure(ctx); err != nil {
		return err
	}
	return l.inner.Ping(ctx)
}

// Timers returns a repository that connects on first use.
func (l *Lazy) Timers() TimerRepository {
	return &lazyTimerRepo{lazy: l}
}

// Connected reports whether a connection has been established.
func (l *Lazy) Connected() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ready
}

func (l *Lazy) ensure(ctx context.Context) error {
	if l.Connected() {
		return nil
	}

	ch := l.group.DoChan("connect", func() (any, error) {
		// Another flight may have finished between the check and DoChan.
		if l.Connected() {
			return nil, nil
		}
		// The attempt outlives any single caller's context.
		connectCtx := context.WithoutCancel(ctx)
		if err := l.inner.Open(connectCtx); err != nil {
			metrics.StorageConnectAttempts.WithLabelValues("failure").Inc()
			return nil, fmt.Errorf("connect storage: %w", err)
		}
		if err := l.inner.Migrate(connectCtx); err != nil {
			l.inner.Close()
			metrics.StorageConnectAttempts.WithLabelValues("failure").Inc()
			return nil, fmt.Errorf("migrate storage: %w", err)
		}
		metrics.StorageConnectAttempts.WithLabelValues("success").Inc()
		slog.Info("storage connected")

		l.mu.Lock()
		l.ready = true
		l.mu.Unlock()
		return nil, nil
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

type lazyTimerRepo struct {
	lazy *Lazy
}

func (r *lazyTimerRepo) repo(ctx context.Context) (TimerRepository, error) {
	if err := r.lazy.ensure(ctx); err != nil {
		return nil, err
	}
	return r.lazy.inner.Timers(), nil
}

func (r *lazyTimerRepo) Create(ctx context.Context, timer *models.Timer) error {
	repo, err := r.repo(ctx)
	if err != nil {
		return err
	}
	return repo.Create(ctx, timer)
}

func (r *lazyTimerRepo) GetByID(ctx context.Context, shop, id string) (*models.Timer, error) {
	repo, err := r.repo(ctx)
	if err != nil {
		return nil, err
	}
	return repo.GetByID(ctx, shop, id)
}

func (r *lazyTimerRepo) Update(ctx context.Context, timer *models.Timer) error {
	repo, err := r.repo(ctx)
	if err != nil {
		return err
	}
	return repo.Update(ctx, timer)
}

func (r *lazyTimerRepo) Delete(ctx context.Context, shop, id string) (bool, error) {
	repo, err := r.repo(ctx)
	if err != nil {
		return false, err
	}
	return repo.Delete(ctx, shop, id)
}

func (r *lazyTimerRepo) ListByShop(ctx context.Context, shop string) ([]*models.Timer, error) {
	repo, err := r.repo(ctx)
	if err != nil {
		return nil, err
	}
	return repo.ListByShop(ctx, shop)
}

func (r *lazyTimerRepo) ListActiveByShop(ctx context.Context, shop string) ([]*models.Timer, error) {
	repo, err := r.repo(ctx)
	if err != nil {
		return nil, err
	}
	return repo.ListActiveByShop(ctx, shop)
}

func (r *lazyTimerRepo) CountByShop(ctx context.Context, shop string) (int64, error) {
	repo, err := r.repo(ctx)
	if err != nil {
		return 0, err
	}
	return repo.CountByShop(ctx, shop)
}
