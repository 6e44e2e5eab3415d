package timers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/good-yellow-bee/countdown/internal/models"
)

func windowTimer(id, shop string, start, end time.Time) *models.Timer {
	return &models.Timer{
		ID:        id,
		Shop:      shop,
		Name:      id,
		StartDate: start.Format(models.DateLayout),
		StartTime: start.Format(models.TimeLayoutSeconds),
		EndDate:   end.Format(models.DateLayout),
		EndTime:   end.Format(models.TimeLayoutSeconds),
		Size:      models.DefaultSize,
		Position:  models.DefaultPosition,
		Urgency:   models.DefaultUrgency,
		Color:     models.DefaultColor,
		IsActive:  true,
		CreatedAt: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
	}
}

func ids(timers []*models.Timer) []string {
	out := make([]string, len(timers))
	for i, t := range timers {
		out[i] = t.ID
	}
	return out
}

var (
	winStart = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	winEnd   = time.Date(2025, 1, 1, 0, 10, 0, 0, time.UTC)
)

func TestResolver_WindowMembershipIsInclusive(t *testing.T) {
	repo := newMockTimerRepo(windowTimer("t1", "shop-a", winStart, winEnd))
	r := NewResolver(repo, WithLocation(time.UTC))
	ctx := context.Background()

	tests := []struct {
		name string
		now  time.Time
		want []string
	}{
		{"one second before start", winStart.Add(-time.Second), []string{}},
		{"exactly at start", winStart, []string{"t1"}},
		{"mid window", winStart.Add(5 * time.Minute), []string{"t1"}},
		{"exactly at end", winEnd, []string{"t1"}},
		{"one second after end", winEnd.Add(time.Second), []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.CurrentTimersAt(ctx, "shop-a", tt.now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestResolver_InactiveNeverReturned(t *testing.T) {
	disabled := windowTimer("off", "shop-a", winStart, winEnd)
	disabled.IsActive = false
	repo := newMockTimerRepo(disabled, windowTimer("on", "shop-a", winStart, winEnd))
	r := NewResolver(repo, WithLocation(time.UTC))

	for now := winStart; !now.After(winEnd); now = now.Add(time.Minute) {
		got, err := r.CurrentTimersAt(context.Background(), "shop-a", now)
		require.NoError(t, err)
		assert.Equal(t, []string{"on"}, ids(got), "at %v", now)
	}
}

func TestResolver_ShopIsolation(t *testing.T) {
	repo := newMockTimerRepo(
		windowTimer("a1", "shop-a", winStart, winEnd),
		windowTimer("b1", "shop-b", winStart, winEnd),
		windowTimer("b2", "shop-b", winStart, winEnd.Add(time.Minute)),
	)
	r := NewResolver(repo, WithLocation(time.UTC))
	now := winStart.Add(time.Minute)

	a, err := r.CurrentTimersAt(context.Background(), "shop-a", now)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1"}, ids(a))

	b, err := r.CurrentTimersAt(context.Background(), "shop-b", now)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b1", "b2"}, ids(b))
	for _, timer := range b {
		assert.Equal(t, "shop-b", timer.Shop)
	}
}

func TestResolver_OrdersByEarliestEnd(t *testing.T) {
	late := windowTimer("late", "shop-a", winStart, winEnd.Add(time.Hour))
	soon := windowTimer("soon", "shop-a", winStart.Add(time.Minute), winEnd)
	early := windowTimer("early-start", "shop-a", winStart, winEnd)
	tieOld := windowTimer("z-old", "shop-a", winStart, winEnd.Add(30*time.Minute))
	tieNew := windowTimer("a-new", "shop-a", winStart, winEnd.Add(30*time.Minute))
	tieNew.CreatedAt = tieOld.CreatedAt.Add(time.Hour)

	repo := newMockTimerRepo(late, soon, early, tieOld, tieNew)
	r := NewResolver(repo, WithLocation(time.UTC))

	got, err := r.CurrentTimersAt(context.Background(), "shop-a", winStart.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []string{"early-start", "soon", "z-old", "a-new", "late"}, ids(got))
}

func TestResolver_InvertedWindowNeverCurrent(t *testing.T) {
	inverted := windowTimer("inverted", "shop-a", winEnd, winStart)
	r := NewResolver(newMockTimerRepo(inverted), WithLocation(time.UTC))

	for _, now := range []time.Time{winStart, winStart.Add(5 * time.Minute), winEnd} {
		got, err := r.CurrentTimersAt(context.Background(), "shop-a", now)
		require.NoError(t, err)
		assert.Empty(t, got)
	}
}

func TestResolver_MissingShop(t *testing.T) {
	r := NewResolver(newMockTimerRepo())

	_, err := r.CurrentTimers(context.Background(), "  ")
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "shop", ve.Field)
}

func TestResolver_StorageFailurePropagates(t *testing.T) {
	cause := errors.New("database is locked")
	repo := newMockTimerRepo()
	repo.err = cause
	r := NewResolver(repo)

	_, err := r.CurrentTimers(context.Background(), "shop-a")
	require.Error(t, err)
	assert.True(t, IsStorage(err))
	assert.ErrorIs(t, err, cause)

	_, err = r.ListByShop(context.Background(), "shop-a")
	assert.True(t, IsStorage(err))
}

func TestResolver_UsesClockAndLocation(t *testing.T) {
	store := time.FixedZone("store", -5*60*60)
	// 00:05 store time is 05:05 UTC
	clock := func() time.Time { return time.Date(2025, 1, 1, 5, 5, 0, 0, time.UTC) }

	timer := windowTimer("t1", "shop-a", winStart, winEnd)
	r := NewResolver(newMockTimerRepo(timer), WithLocation(store), WithClock(clock))

	got, err := r.CurrentTimers(context.Background(), "shop-a")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, ids(got))

	utc := NewResolver(newMockTimerRepo(timer), WithLocation(time.UTC), WithClock(clock))
	got, err = utc.CurrentTimers(context.Background(), "shop-a")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResolver_ListActiveIgnoresWindow(t *testing.T) {
	past := windowTimer("past", "shop-a", winStart.AddDate(-1, 0, 0), winEnd.AddDate(-1, 0, 0))
	off := windowTimer("off", "shop-a", winStart, winEnd)
	off.IsActive = false
	r := NewResolver(newMockTimerRepo(past, off))

	active, err := r.ListActiveByShop(context.Background(), "shop-a")
	require.NoError(t, err)
	assert.Equal(t, []string{"past"}, ids(active))

	all, err := r.ListByShop(context.Background(), "shop-a")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
