// Package timers decides which countdown timers are current for a shop and
// provides the administrative operations over them.
package timers

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/good-yellow-bee/countdown/internal/metrics"
	"github.com/good-yellow-bee/countdown/internal/models"
	"github.com/good-yellow-bee/countdown/internal/storage"
)

// Resolver selects the timers whose window contains the evaluation instant.
// It holds no state between calls and is safe for concurrent use.
type Resolver struct {
	repo storage.TimerRepository
	settings
}

type settings struct {
	loc   *time.Location
	clock func() time.Time
}

func newSettings(opts []Option) settings {
	s := settings{loc: time.Local, clock: time.Now}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Option configures a Resolver or Service.
type Option func(*settings)

// WithLocation sets the zone civil window components are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(s *settings) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock replaces the wall clock.
func WithClock(clock func() time.Time) Option {
	return func(s *settings) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewResolver creates a resolver over repo.
func NewResolver(repo storage.TimerRepository, opts ...Option) *Resolver {
	return &Resolver{repo: repo, settings: newSettings(opts)}
}

// Location returns the zone windows are interpreted in.
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// Now returns the resolver's current instant.
func (r *Resolver) Now() time.Time {
	return r.clock()
}

// CurrentTimers returns the shop's timers that are current right now.
func (r *Resolver) CurrentTimers(ctx context.Context, shop string) ([]*models.Timer, error) {
	return r.CurrentTimersAt(ctx, shop, r.clock())
}

// CurrentTimersAt returns the shop's enabled timers whose inclusive window
// contains now, ordered by earliest end, then earliest start, then oldest
// record.
func (r *Resolver) CurrentTimersAt(ctx context.Context, shop string, now time.Time) ([]*models.Timer, error) {
	if strings.TrimSpace(shop) == "" {
		metrics.TimerResolutionsTotal.WithLabelValues("invalid").Inc()
		return nil, &ValidationError{Field: "shop", Message: "Shop parameter is required"}
	}

	candidates, err := r.repo.ListActiveByShop(ctx, shop)
	if err != nil {
		metrics.TimerResolutionsTotal.WithLabelValues("error").Inc()
		return nil, &StorageError{Op: "list active timers", Err: err}
	}

	type windowed struct {
		timer      *models.Timer
		start, end time.Time
	}
	current := make([]windowed, 0, len(candidates))
	for _, t := range candidates {
		// Guard against a repository that ignores the shop partition.
		if t.Shop != shop || !t.IsCurrent(now, r.loc) {
			continue
		}
		start, end, _ := t.Window(r.loc)
		current = append(current, windowed{timer: t, start: start, end: end})
	}

	sort.SliceStable(current, func(i, j int) bool {
		a, b := current[i], current[j]
		if !a.end.Equal(b.end) {
			return a.end.Before(b.end)
		}
		if !a.start.Equal(b.start) {
			return a.start.Before(b.start)
		}
		if !a.timer.CreatedAt.Equal(b.timer.CreatedAt) {
			return a.timer.CreatedAt.Before(b.timer.CreatedAt)
		}
		return a.timer.ID < b.timer.ID
	})

	result := make([]*models.Timer, len(current))
	for i, w := range current {
		result[i] = w.timer
	}

	if len(result) == 0 {
		metrics.TimerResolutionsTotal.WithLabelValues("empty").Inc()
	} else {
		metrics.TimerResolutionsTotal.WithLabelValues("hit").Inc()
	}
	metrics.CurrentTimersReturned.Observe(float64(len(result)))
	return result, nil
}

// ListByShop returns every timer of the shop, newest first.
func (r *Resolver) ListByShop(ctx context.Context, shop string) ([]*models.Timer, error) {
	if strings.TrimSpace(shop) == "" {
		return nil, &ValidationError{Field: "shop", Message: "Shop parameter is required"}
	}
	list, err := r.repo.ListByShop(ctx, shop)
	if err != nil {
		return nil, &StorageError{Op: "list timers", Err: err}
	}
	return list, nil
}

// ListActiveByShop returns the shop's enabled timers regardless of window,
// newest first.
func (r *Resolver) ListActiveByShop(ctx context.Context, shop string) ([]*models.Timer, error) {
	if strings.TrimSpace(shop) == "" {
		return nil, &ValidationError{Field: "shop", Message: "Shop parameter is required"}
	}
	list, err := r.repo.ListActiveByShop(ctx, shop)
	if err != nil {
		return nil, &StorageError{Op: "list active timers", Err: err}
	}
	return list, nil
}
