package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/good-yellow-bee/countdown/internal/metrics"
	"github.com/good-yellow-bee/countdown/internal/models"
)

const timerColumns = `id, shop, name, description, start_date, start_time, end_date, end_time,
		size, position, urgency, color, is_active, created_at, updated_at`

type sqliteTimerRepo struct {
	db *sql.DB
}

// observe starts timing a repository operation. The returned func records
// the latency and counts a failure when *errp is set.
func observe(op string) func(errp *error) {
	start := time.Now()
	return func(errp *error) {
		metrics.StorageQueryDuration.WithLabelValues(op, "sqlite").Observe(time.Since(start).Seconds())
		if errp != nil && *errp != nil {
			metrics.StorageErrors.WithLabelValues(op, "sqlite").Inc()
		}
	}
}

func (r *sqliteTimerRepo) Create(ctx context.Context, timer *models.Timer) (err error) {
	defer observe("timers_create")(&err)

	query := `
		INSERT INTO timers (` + timerColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		timer.ID, timer.Shop, timer.Name, timer.Description,
		timer.StartDate, timer.StartTime, timer.EndDate, timer.EndTime,
		string(timer.Size), string(timer.Position), string(timer.Urgency), timer.Color,
		timer.IsActive, timer.CreatedAt.UTC(), timer.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert timer: %w", err)
	}
	return nil
}

func (r *sqliteTimerRepo) GetByID(ctx context.Context, shop, id string) (_ *models.Timer, err error) {
	defer observe("timers_get")(&err)

	query := `SELECT ` + timerColumns + ` FROM timers WHERE id = ? AND shop = ?`
	timer, err := scanTimer(r.db.QueryRowContext(ctx, query, id, shop))
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get timer by id: %w", err)
	}
	return timer, nil
}

func (r *sqliteTimerRepo) Update(ctx context.Context, timer *models.Timer) (err error) {
	defer observe("timers_update")(&err)

	query := `
		UPDATE timers SET
			name = ?, description = ?,
			start_date = ?, start_time = ?, end_date = ?, end_time = ?,
			size = ?, position = ?, urgency = ?, color = ?,
			is_active = ?, updated_at = ?
		WHERE id = ? AND shop = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		timer.Name, timer.Description,
		timer.StartDate, timer.StartTime, timer.EndDate, timer.EndTime,
		string(timer.Size), string(timer.Position), string(timer.Urgency), timer.Color,
		timer.IsActive, timer.UpdatedAt.UTC(),
		timer.ID, timer.Shop,
	)
	if err != nil {
		return fmt.Errorf("update timer: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("timer %s: %w", timer.ID, ErrNotFound)
	}
	return nil
}

func (r *sqliteTimerRepo) Delete(ctx context.Context, shop, id string) (_ bool, err error) {
	defer observe("timers_delete")(&err)

	result, err := r.db.ExecContext(ctx, "DELETE FROM timers WHERE id = ? AND shop = ?", id, shop)
	if err != nil {
		return false, fmt.Errorf("delete timer: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (r *sqliteTimerRepo) ListByShop(ctx context.Context, shop string) (_ []*models.Timer, err error) {
	defer observe("timers_list")(&err)

	query := `
		SELECT ` + timerColumns + `
		FROM timers WHERE shop = ?
		ORDER BY created_at DESC, rowid DESC
	`
	timers, err := r.list(ctx, query, shop)
	if err != nil {
		return nil, fmt.Errorf("list timers: %w", err)
	}
	return timers, nil
}

func (r *sqliteTimerRepo) ListActiveByShop(ctx context.Context, shop string) (_ []*models.Timer, err error) {
	defer observe("timers_list_active")(&err)

	query := `
		SELECT ` + timerColumns + `
		FROM timers WHERE shop = ? AND is_active = 1
		ORDER BY created_at DESC, rowid DESC
	`
	timers, err := r.list(ctx, query, shop)
	if err != nil {
		return nil, fmt.Errorf("list active timers: %w", err)
	}
	return timers, nil
}

func (r *sqliteTimerRepo) CountByShop(ctx context.Context, shop string) (_ int64, err error) {
	defer observe("timers_count")(&err)

	var count int64
	err = r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM timers WHERE shop = ?", shop).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count timers: %w", err)
	}
	return count, nil
}

func (r *sqliteTimerRepo) list(ctx context.Context, query string, args ...any) ([]*models.Timer, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	timers := make([]*models.Timer, 0)
	for rows.Next() {
		timer, err := scanTimer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan timer: %w", err)
		}
		timers = append(timers, timer)
	}
	return timers, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTimer(row rowScanner) (*models.Timer, error) {
	timer := &models.Timer{}
	var size, position, urgency string
	err := row.Scan(
		&timer.ID, &timer.Shop, &timer.Name, &timer.Description,
		&timer.StartDate, &timer.StartTime, &timer.EndDate, &timer.EndTime,
		&size, &position, &urgency, &timer.Color,
		&timer.IsActive, &timer.CreatedAt, &timer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	timer.Size = models.Size(size)
	timer.Position = models.Position(position)
	timer.Urgency = models.Urgency(urgency)
	return timer, nil
}
