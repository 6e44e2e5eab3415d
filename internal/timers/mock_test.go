package timers

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/good-yellow-bee/countdown/internal/models"
	"github.com/good-yellow-bee/countdown/internal/storage"
)

// mockTimerRepo is an in-memory TimerRepository.
type mockTimerRepo struct {
	mu     sync.Mutex
	timers map[string]*models.Timer
	err    error
}

func newMockTimerRepo(timers ...*models.Timer) *mockTimerRepo {
	r := &mockTimerRepo{timers: make(map[string]*models.Timer)}
	for _, t := range timers {
		r.timers[t.ID] = t
	}
	return r
}

func (r *mockTimerRepo) Create(ctx context.Context, timer *models.Timer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, ok := r.timers[timer.ID]; ok {
		return errors.New("duplicate id")
	}
	c := *timer
	r.timers[timer.ID] = &c
	return nil
}

func (r *mockTimerRepo) GetByID(ctx context.Context, shop, id string) (*models.Timer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	t, ok := r.timers[id]
	if !ok || t.Shop != shop {
		return nil, nil
	}
	c := *t
	return &c, nil
}

func (r *mockTimerRepo) Update(ctx context.Context, timer *models.Timer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	t, ok := r.timers[timer.ID]
	if !ok || t.Shop != timer.Shop {
		return storage.ErrNotFound
	}
	c := *timer
	r.timers[timer.ID] = &c
	return nil
}

func (r *mockTimerRepo) Delete(ctx context.Context, shop, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	t, ok := r.timers[id]
	if !ok || t.Shop != shop {
		return false, nil
	}
	delete(r.timers, id)
	return true, nil
}

func (r *mockTimerRepo) list(shop string, activeOnly bool) []*models.Timer {
	out := make([]*models.Timer, 0)
	for _, t := range r.timers {
		if t.Shop != shop || (activeOnly && !t.IsActive) {
			continue
		}
		c := *t
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *mockTimerRepo) ListByShop(ctx context.Context, shop string) ([]*models.Timer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return r.list(shop, false), nil
}

func (r *mockTimerRepo) ListActiveByShop(ctx context.Context, shop string) ([]*models.Timer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return r.list(shop, true), nil
}

func (r *mockTimerRepo) CountByShop(ctx context.Context, shop string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	return int64(len(r.list(shop, false))), nil
}
