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

var fixedNow = time.Date(2025, 1, 1, 0, 5, 0, 0, time.UTC)

func newTestService(repo *mockTimerRepo) *Service {
	return NewService(repo, WithLocation(time.UTC), WithClock(func() time.Time { return fixedNow }))
}

func validInput() TimerInput {
	return TimerInput{
		Name:      "Flash sale",
		StartDate: "2025-01-01",
		StartTime: "00:00",
		EndDate:   "2025-01-01",
		EndTime:   "00:10",
	}
}

func TestService_CreateAppliesDefaults(t *testing.T) {
	repo := newMockTimerRepo()
	svc := newTestService(repo)

	timer, err := svc.Create(context.Background(), "shop-a", validInput())
	require.NoError(t, err)

	assert.NotEmpty(t, timer.ID)
	assert.Equal(t, "shop-a", timer.Shop)
	assert.Equal(t, models.SizeMedium, timer.Size)
	assert.Equal(t, models.PositionTop, timer.Position)
	assert.Equal(t, models.UrgencyPulse, timer.Urgency)
	assert.Equal(t, "#00ff00", timer.Color)
	assert.True(t, timer.IsActive)
	assert.Equal(t, fixedNow, timer.CreatedAt)
	assert.Equal(t, fixedNow, timer.UpdatedAt)

	stored, err := svc.Get(context.Background(), "shop-a", timer.ID)
	require.NoError(t, err)
	assert.Equal(t, timer.Name, stored.Name)
}

func TestService_CreateRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		mut   func(*TimerInput)
		field string
	}{
		{"missing name", func(in *TimerInput) { in.Name = "   " }, "name"},
		{"bad start date", func(in *TimerInput) { in.StartDate = "01/01/2025" }, "startDate"},
		{"bad end time", func(in *TimerInput) { in.EndTime = "24:61" }, "endTime"},
		{"unknown size", func(in *TimerInput) { in.Size = "huge" }, "size"},
		{"unknown position", func(in *TimerInput) { in.Position = "left" }, "position"},
		{"unknown urgency", func(in *TimerInput) { in.Urgency = "shake" }, "urgency"},
		{"bad color", func(in *TimerInput) { in.Color = "green" }, "color"},
		{"alpha color", func(in *TimerInput) { in.Color = "#00ff00ff" }, "color"},
		{"end before start", func(in *TimerInput) { in.EndTime = "00:00"; in.StartTime = "00:10" }, "endDate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockTimerRepo()
			svc := newTestService(repo)
			in := validInput()
			tt.mut(&in)

			_, err := svc.Create(context.Background(), "shop-a", in)
			require.Error(t, err)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.Empty(t, repo.timers, "nothing should be persisted")
		})
	}
}

func TestService_CreateAcceptsExplicitStyle(t *testing.T) {
	svc := newTestService(newMockTimerRepo())
	in := validInput()
	in.Size = "Large"
	in.Position = "bottom"
	in.Urgency = "blink"
	in.Color = "#FFF"
	in.StartTime = "00:00:30"
	off := false
	in.IsActive = &off

	timer, err := svc.Create(context.Background(), "shop-a", in)
	require.NoError(t, err)
	assert.Equal(t, models.SizeLarge, timer.Size)
	assert.Equal(t, models.PositionBottom, timer.Position)
	assert.Equal(t, models.UrgencyBlink, timer.Urgency)
	assert.Equal(t, "#fff", timer.Color)
	assert.Equal(t, "00:00:30", timer.StartTime)
	assert.False(t, timer.IsActive)
}

func TestService_UpdateReplacesRecord(t *testing.T) {
	repo := newMockTimerRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	in := validInput()
	in.Description = "Old"
	in.Urgency = "blink"
	created, err := svc.Create(ctx, "shop-a", in)
	require.NoError(t, err)

	replacement := validInput()
	replacement.Name = "Renamed"
	updated, err := svc.Update(ctx, "shop-a", created.ID, replacement)
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "Renamed", updated.Name)
	// Omitted fields are reset, not merged
	assert.Empty(t, updated.Description)
	assert.Equal(t, models.UrgencyPulse, updated.Urgency)
}

func TestService_UpdateOtherShopIsNotFound(t *testing.T) {
	svc := newTestService(newMockTimerRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, "shop-a", validInput())
	require.NoError(t, err)

	_, err = svc.Update(ctx, "shop-b", created.ID, validInput())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Get(ctx, "shop-b", created.ID)
	assert.True(t, IsNotFound(err))
}

func TestService_SetActive(t *testing.T) {
	svc := newTestService(newMockTimerRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, "shop-a", validInput())
	require.NoError(t, err)

	current, err := svc.CurrentTimers(ctx, "shop-a")
	require.NoError(t, err)
	assert.Len(t, current, 1)

	_, err = svc.SetActive(ctx, "shop-a", created.ID, false)
	require.NoError(t, err)

	current, err = svc.CurrentTimers(ctx, "shop-a")
	require.NoError(t, err)
	assert.Empty(t, current)

	_, err = svc.SetActive(ctx, "shop-a", "missing", true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_DeleteIsIdempotent(t *testing.T) {
	svc := newTestService(newMockTimerRepo())
	ctx := context.Background()

	keep, err := svc.Create(ctx, "shop-a", validInput())
	require.NoError(t, err)
	drop, err := svc.Create(ctx, "shop-a", validInput())
	require.NoError(t, err)

	deleted, err := svc.Delete(ctx, "shop-a", drop.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	afterFirst, err := svc.Count(ctx, "shop-a")
	require.NoError(t, err)

	deleted, err = svc.Delete(ctx, "shop-a", drop.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
	afterSecond, err := svc.Count(ctx, "shop-a")
	require.NoError(t, err)

	assert.Equal(t, int64(1), afterFirst)
	assert.Equal(t, afterFirst, afterSecond)

	_, err = svc.Get(ctx, "shop-a", keep.ID)
	assert.NoError(t, err)
}

func TestService_StorageErrorsAreWrapped(t *testing.T) {
	repo := newMockTimerRepo()
	repo.err = errors.New("disk full")
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), "shop-a", validInput())
	require.Error(t, err)
	assert.True(t, IsStorage(err))
	assert.False(t, IsValidation(err))

	_, err = svc.Delete(context.Background(), "shop-a", "x")
	assert.True(t, IsStorage(err))
}

func TestService_RequiresShop(t *testing.T) {
	svc := newTestService(newMockTimerRepo())

	_, err := svc.Create(context.Background(), "", validInput())
	assert.True(t, IsValidation(err))

	_, err = svc.Delete(context.Background(), "", "id")
	assert.True(t, IsValidation(err))
}
